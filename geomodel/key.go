package geomodel

import (
	"math"
	"strconv"

	"github.com/paulmach/orb"
)

// Key identifies a coordinate by the bit patterns of both axes.
// Two points are the same node, light or intersection iff their keys are equal.
type Key struct {
	X, Y uint64
}

func KeyOf(p orb.Point) Key {
	return Key{X: math.Float64bits(p[0]), Y: math.Float64bits(p[1])}
}

func (k Key) Point() orb.Point {
	return orb.Point{math.Float64frombits(k.X), math.Float64frombits(k.Y)}
}

// Less orders keys by raw bits, it is not a geometric order.
func (k Key) Less(o Key) bool {
	if k.X != o.X {
		return k.X < o.X
	}
	return k.Y < o.Y
}

func (k Key) String() string {
	p := k.Point()
	return strconv.FormatFloat(p[0], 'g', -1, 64) + "," + strconv.FormatFloat(p[1], 'g', -1, 64)
}

// SamePoint compares coordinates bit for bit, without tolerance.
func SamePoint(a, b orb.Point) bool {
	return math.Float64bits(a[0]) == math.Float64bits(b[0]) &&
		math.Float64bits(a[1]) == math.Float64bits(b[1])
}

// Quantize rounds both axes to the given number of decimals.
// Negative decimals leave the point untouched.
func Quantize(p orb.Point, decimals int) orb.Point {
	if decimals < 0 {
		return p
	}
	scale := math.Pow(10, float64(decimals))
	return orb.Point{
		math.Round(p[0]*scale) / scale,
		math.Round(p[1]*scale) / scale,
	}
}
