package geoshape

import (
	"math/rand"

	"github.com/fogleman/poissondisc"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// Scatter fills the area with evenly spread points at least distance apart.
// A nil rnd uses the global source.
func Scatter(area orb.MultiPolygon, distance float64, rnd *rand.Rand) []orb.Point {
	// 1. Get the bounding box of the polygon
	bound := area.Bound()
	points := poissondisc.Sample(bound.Min.X(), bound.Min.Y(), bound.Max.X(), bound.Max.Y(), distance, 10, rnd)

	// 2. Filter points inside the polygon
	pointsInside := make([]orb.Point, 0)
	for _, p := range points {
		point := orb.Point{p.X, p.Y}
		if planar.MultiPolygonContains(area, point) {
			pointsInside = append(pointsInside, point)
		}
	}

	return pointsInside
}
