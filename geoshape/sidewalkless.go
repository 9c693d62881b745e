package geoshape

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/sourcegraph/conc/iter"
	"github.com/striide/walkgraph/geomodel"
	"github.com/striide/walkgraph/linetree"
)

// SidewalkThreshold is the squared distance in degrees beyond which a street point
// counts as having no sidewalk next to it.
const SidewalkThreshold = 0.00000003

// SidewalklessStreets keeps the streets that have a vertex whose second nearest polyline
// in sidewalks is farther than threshold. The nearest one is skipped because street
// datasets usually contain the street itself.
func SidewalklessStreets(streets, sidewalks []geomodel.Walkable, threshold float64) []geomodel.Walkable {
	entries := make([]linetree.Entry[int], len(sidewalks))
	for i, w := range sidewalks {
		entries[i] = linetree.Entry[int]{Line: w.Line, Data: i}
	}
	tree := linetree.New(entries)

	keep := iter.Map(streets, func(s *geomodel.Walkable) bool {
		for _, p := range s.Line {
			if secondNearest(tree, p) > threshold {
				return true
			}
		}
		return false
	})

	out := make([]geomodel.Walkable, 0)
	for i, s := range streets {
		if keep[i] {
			out = append(out, s)
		}
	}
	return out
}

func secondNearest(tree *linetree.Tree[int], p orb.Point) float64 {
	n := 0
	for _, d := range tree.Nearest(p) {
		n++
		if n == 2 {
			return d
		}
	}
	return math.Inf(1)
}
