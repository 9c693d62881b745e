package associate

import (
	"iter"

	"github.com/paulmach/orb"
	"github.com/striide/walkgraph/geomodel"
	"github.com/striide/walkgraph/kdbush"
)

// Index is a static nearest-neighbour index. Nearest yields items in ascending
// squared distance from q; every call starts a fresh traversal.
type Index[T any] interface {
	Nearest(q orb.Point) iter.Seq2[T, float64]
}

// PointIndex indexes a point cloud such as lights or buildings.
type PointIndex struct {
	bush *kdbush.KDBush[struct{}]
}

func NewPointIndex(points []orb.Point) *PointIndex {
	kp := make([]kdbush.Point[struct{}], len(points))
	for i, p := range points {
		kp[i] = kdbush.Point[struct{}]{X: p[0], Y: p[1]}
	}
	return &PointIndex{bush: kdbush.NewBush(kp, kdbush.DefaultNodeSize)}
}

func (idx *PointIndex) Len() int {
	return idx.bush.Len()
}

func (idx *PointIndex) Nearest(q orb.Point) iter.Seq2[orb.Point, float64] {
	return func(yield func(orb.Point, float64) bool) {
		for p, d := range idx.bush.Nearest(q[0], q[1]) {
			if !yield(orb.Point{p.X, p.Y}, d) {
				return
			}
		}
	}
}

// NearestFeatures samples every segment of line and, for each sample, inspects up to k
// nearest features. A feature is accepted when it lies within maxDist2 and was not
// already accepted for this line.
func NearestFeatures(line orb.LineString, idx Index[orb.Point], s Sampler, k int, maxDist2 float64) []orb.Point {
	seen := make(map[geomodel.Key]struct{})
	var accepted []orb.Point

	for _, sample := range s.Line(line) {
		n := 0
		for feature, d := range idx.Nearest(sample) {
			if n == k || d > maxDist2 {
				break
			}
			n++

			key := geomodel.KeyOf(feature)
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			accepted = append(accepted, feature)
		}
	}

	return accepted
}
