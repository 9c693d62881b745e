package graphgen

import (
	"math"

	"github.com/striide/walkgraph/geomodel"
)

const (
	// Weight of edges between consecutive points of one walkable.
	InternalEdgeWeight = 1.0

	DefaultRating = 1.0
	MaxRating     = 10.0

	lightMultiplier = 2
	lightScale      = 60.0
)

// Rating weights an intersection edge by the lights of the street it leads onto.
func Rating(w geomodel.Walkable) float64 {
	return LightRating(len(w.Lights))
}

func LightRating(lights int) float64 {
	if lights == 0 {
		return DefaultRating
	}
	return min(math.Round(float64(lights*lightMultiplier)/lightScale), MaxRating)
}
