// Package linetree is a static nearest-neighbour index over polylines.
package linetree

import (
	"iter"

	"github.com/paulmach/orb"
	"github.com/striide/walkgraph/geomodel"
	"github.com/tidwall/rtree"
)

type Entry[T any] struct {
	Line orb.LineString
	Data T
}

type Tree[T any] struct {
	entries []Entry[T]
	rt      rtree.RTreeG[int]
}

// New bulk-loads the tree. Empty polylines are kept in the entry list but never yielded.
func New[T any](entries []Entry[T]) *Tree[T] {
	t := &Tree[T]{entries: entries}
	for i, e := range entries {
		if len(e.Line) == 0 {
			continue
		}
		b := e.Line.Bound()
		t.rt.Insert(b.Min, b.Max, i)
	}
	return t
}

func (t *Tree[T]) Len() int {
	return t.rt.Len()
}

func (t *Tree[T]) Entry(i int) Entry[T] {
	return t.entries[i]
}

// Nearest yields entries in ascending squared planar distance from q to the closest
// point of each polyline.
func (t *Tree[T]) Nearest(q orb.Point) iter.Seq2[Entry[T], float64] {
	return func(yield func(Entry[T], float64) bool) {
		target := [2]float64(q)
		dist := rtree.BoxDist[float64, int](target, target, func(_, _ [2]float64, i int) float64 {
			return geomodel.LineDistanceSquared(q, t.entries[i].Line)
		})

		t.rt.Nearby(dist, func(_, _ [2]float64, i int, d float64) bool {
			return yield(t.entries[i], d)
		})
	}
}

// Search yields entries whose bounds intersect the given bound.
func (t *Tree[T]) Search(b orb.Bound) iter.Seq[Entry[T]] {
	return func(yield func(Entry[T]) bool) {
		t.rt.Search(b.Min, b.Max, func(_, _ [2]float64, i int) bool {
			return yield(t.entries[i])
		})
	}
}
