package geomodel

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// SegmentsIntersect reports whether segments p1p2 and p3p4 share at least one point.
// Touching endpoints and collinear overlaps count as intersecting.
func SegmentsIntersect(p1, p2, p3, p4 orb.Point) bool {
	o1 := orientation(p1, p2, p3)
	o2 := orientation(p1, p2, p4)
	o3 := orientation(p3, p4, p1)
	o4 := orientation(p3, p4, p2)

	if o1 != o2 && o3 != o4 {
		return true
	}

	switch {
	case o1 == 0 && onSegment(p1, p3, p2):
		return true
	case o2 == 0 && onSegment(p1, p4, p2):
		return true
	case o3 == 0 && onSegment(p3, p1, p4):
		return true
	case o4 == 0 && onSegment(p3, p2, p4):
		return true
	}
	return false
}

// LineIntersection solves the two-line determinant for the lines through p1p2 and p3p4
// and returns the point at the parameter along p1p2. Parallel or collinear lines
// (zero determinant) have no single intersection point.
func LineIntersection(p1, p2, p3, p4 orb.Point) (orb.Point, bool) {
	x1, y1 := p1[0], p1[1]
	x2, y2 := p2[0], p2[1]
	x3, y3 := p3[0], p3[1]
	x4, y4 := p4[0], p4[1]

	denom := (x2-x1)*(y4-y3) - (y2-y1)*(x4-x3)
	if denom == 0 {
		return orb.Point{}, false
	}

	ua := ((x4-x3)*(y1-y3) - (y4-y3)*(x1-x3)) / denom

	return orb.Point{x1 + ua*(x2-x1), y1 + ua*(y2-y1)}, true
}

// LineDistanceSquared is the squared planar distance from p to the closest segment of ls.
func LineDistanceSquared(p orb.Point, ls orb.LineString) float64 {
	switch len(ls) {
	case 0:
		return math.Inf(1)
	case 1:
		return planar.DistanceSquared(p, ls[0])
	}

	best := math.Inf(1)
	for i := 0; i < len(ls)-1; i++ {
		if d := planar.DistanceFromSegmentSquared(ls[i], ls[i+1], p); d < best {
			best = d
		}
	}
	return best
}

func orientation(a, b, c orb.Point) int {
	v := (b[1]-a[1])*(c[0]-b[0]) - (b[0]-a[0])*(c[1]-b[1])
	switch {
	case v > 0:
		return 1
	case v < 0:
		return 2
	}
	return 0
}

// onSegment assumes q is collinear with pr.
func onSegment(p, q, r orb.Point) bool {
	return q[0] <= math.Max(p[0], r[0]) && q[0] >= math.Min(p[0], r[0]) &&
		q[1] <= math.Max(p[1], r[1]) && q[1] >= math.Min(p[1], r[1])
}
