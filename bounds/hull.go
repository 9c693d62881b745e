package bounds

import (
	"cmp"
	"slices"

	"github.com/paulmach/orb"
)

// Hull returns the closed convex hull ring of points, counter-clockwise.
// Fewer than three distinct points give a degenerate ring.
func Hull(points []orb.Point) orb.Ring {
	ps := slices.Clone(points)
	slices.SortFunc(ps, func(a, b orb.Point) int {
		if c := cmp.Compare(a[0], b[0]); c != 0 {
			return c
		}
		return cmp.Compare(a[1], b[1])
	})
	ps = slices.Compact(ps)
	if len(ps) < 3 {
		if len(ps) > 0 {
			ps = append(ps, ps[0])
		}
		return orb.Ring(ps)
	}

	hull := make([]orb.Point, 0, 2*len(ps))
	for _, p := range ps {
		for len(hull) >= 2 && cross(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}
	lower := len(hull) + 1
	for i := len(ps) - 2; i >= 0; i-- {
		p := ps[i]
		for len(hull) >= lower && cross(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}

	return orb.Ring(hull)
}

func cross(o, a, b orb.Point) float64 {
	return (a[0]-o[0])*(b[1]-o[1]) - (a[1]-o[1])*(b[0]-o[0])
}
