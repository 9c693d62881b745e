// Package geoshape derives new walkable geometry from existing street data.
package geoshape

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
	"github.com/striide/walkgraph/geomodel"
)

const (
	// Segments longer than this (meters) are split by Densify.
	DensifyThreshold = 10.0
	// Target spacing (meters) of the points Densify inserts.
	DensifyInterval = 5.0
)

// Densify splits every segment longer than threshold meters into pieces of about
// interval meters, interpolating linearly in lon/lat. Each segment contributes its
// own start and end, so interior vertices appear twice in a row.
func Densify(line orb.LineString, threshold, interval float64) orb.LineString {
	var out orb.LineString
	for i := 0; i+1 < len(line); i++ {
		start, end := line[i], line[i+1]
		if geo.DistanceHaversine(start, end) > threshold {
			out = append(out, interpolate(start, end, interval)...)
		} else {
			out = append(out, start, end)
		}
	}
	return out
}

func interpolate(start, end orb.Point, interval float64) []orb.Point {
	total := geo.DistanceHaversine(start, end)
	if total <= interval {
		return []orb.Point{start, end}
	}

	n := int(math.Ceil(total / interval))
	dx := (end[0] - start[0]) / float64(n)
	dy := (end[1] - start[1]) / float64(n)

	points := make([]orb.Point, n+1)
	for i := range points {
		points[i] = orb.Point{start[0] + float64(i)*dx, start[1] + float64(i)*dy}
	}
	return points
}

// DensifyWalkables applies Densify with the default constants, keeping every other field.
func DensifyWalkables(walkables []geomodel.Walkable) []geomodel.Walkable {
	out := make([]geomodel.Walkable, len(walkables))
	for i, w := range walkables {
		w.Line = Densify(w.Line, DensifyThreshold, DensifyInterval)
		out[i] = w
	}
	return out
}
