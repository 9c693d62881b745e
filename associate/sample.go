package associate

import (
	"math"

	"github.com/golang/geo/s2"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
)

type Sampler struct {
	LengthThreshold float64
	IntervalFactor  float64
	Mode            SamplingMode
}

// Segment returns sample points for segment ab. Short segments yield [a, b].
// Longer ones yield ceil(length/IntervalFactor)+1 points, a and b first.
//
// In bisect mode the interior points come from repeatedly halving the arc towards a,
// then walking from the overall midpoint towards b. The spacing is uneven; it is an
// approximation of equal division, not an exact one.
func (s Sampler) Segment(a, b orb.Point) []orb.Point {
	length := geo.DistanceHaversine(a, b)
	if length <= s.LengthThreshold || math.IsNaN(length) {
		return []orb.Point{a, b}
	}

	intervals := int(math.Ceil(length / s.IntervalFactor))
	points := make([]orb.Point, 0, intervals+1)

	if s.Mode == SamplingUniform {
		va, vb := toVector(a), toVector(b)
		points = append(points, a)
		for i := 1; i < intervals; i++ {
			points = append(points, fromVector(s2.Interpolate(float64(i)/float64(intervals), va, vb)))
		}
		return append(points, b)
	}

	points = append(points, a, b)

	hi := b
	for range intervals / 2 {
		mid := Midpoint(a, hi)
		points = append(points, mid)
		hi = mid
	}

	lo := a
	for i := intervals/2 + 1; i < intervals; i++ {
		mid := Midpoint(lo, b)
		points = append(points, mid)
		lo = mid
	}

	return points
}

// Line samples every segment of ls in order. Shared vertices appear once per segment.
func (s Sampler) Line(ls orb.LineString) []orb.Point {
	var points []orb.Point
	for i := 0; i+1 < len(ls); i++ {
		points = append(points, s.Segment(ls[i], ls[i+1])...)
	}
	return points
}

// Midpoint is the great-circle midpoint of a and b, found by averaging their
// unit vectors and projecting back to lon/lat.
func Midpoint(a, b orb.Point) orb.Point {
	va, vb := toVector(a), toVector(b)
	return fromVector(s2.Point{Vector: va.Add(vb.Vector).Mul(0.5)})
}

func toVector(p orb.Point) s2.Point {
	return s2.PointFromLatLng(s2.LatLngFromDegrees(p[1], p[0]))
}

const radToDeg = 180 / math.Pi

// fromVector converts with a multiplication by 180/pi. s1.Angle.Degrees divides by
// pi/180, which differs in the last bit for some inputs.
func fromVector(v s2.Point) orb.Point {
	ll := s2.LatLngFromPoint(v)
	return orb.Point{ll.Lng.Radians() * radToDeg, ll.Lat.Radians() * radToDeg}
}
