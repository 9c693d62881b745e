package kdbush

import (
	"iter"
	"math"

	"github.com/google/btree"
)

// queueItem is either a pending subtree [left, right] split on axis, bounded by box,
// or a single point (left == right, point == true).
type queueItem struct {
	dist float64
	seq  uint64

	left, right, axis int
	point             bool

	minX, minY, maxX, maxY float64
}

func queueLess(a, b queueItem) bool {
	if a.dist != b.dist {
		return a.dist < b.dist
	}
	return a.seq < b.seq
}

// Nearest yields indexed points in ascending order of squared planar distance to (qx, qy).
// The traversal is lazy: stopping the iteration early skips the rest of the tree.
func (bush *KDBush[T]) Nearest(qx, qy float64) iter.Seq2[Point[T], float64] {
	return func(yield func(Point[T], float64) bool) {
		if len(bush.idxs) == 0 {
			return
		}

		var seq uint64
		queue := btree.NewG(8, queueLess)
		push := func(it queueItem) {
			it.seq = seq
			seq++
			queue.ReplaceOrInsert(it)
		}

		inf := math.Inf(1)
		push(queueItem{
			left: 0, right: len(bush.idxs) - 1,
			minX: -inf, minY: -inf, maxX: inf, maxY: inf,
		})

		for queue.Len() > 0 {
			it, _ := queue.DeleteMin()

			if it.point {
				if !yield(bush.Points[bush.idxs[it.left]], it.dist) {
					return
				}
				continue
			}

			if it.right-it.left <= bush.NodeSize {
				for i := it.left; i <= it.right; i++ {
					push(queueItem{
						dist:  sqrtDist(bush.coords[2*i], bush.coords[2*i+1], qx, qy),
						left:  i,
						right: i,
						point: true,
					})
				}
				continue
			}

			m := floor(float64(it.left+it.right) / 2.0)
			x := bush.coords[2*m]
			y := bush.coords[2*m+1]

			push(queueItem{dist: sqrtDist(x, y, qx, qy), left: m, right: m, point: true})

			nextAxis := (it.axis + 1) % 2

			if it.left <= m-1 {
				child := it
				child.left, child.right, child.axis, child.point = it.left, m-1, nextAxis, false
				if it.axis == 0 {
					child.maxX = x
				} else {
					child.maxY = y
				}
				child.dist = boxDist(qx, qy, child.minX, child.minY, child.maxX, child.maxY)
				push(child)
			}

			if m+1 <= it.right {
				child := it
				child.left, child.right, child.axis, child.point = m+1, it.right, nextAxis, false
				if it.axis == 0 {
					child.minX = x
				} else {
					child.minY = y
				}
				child.dist = boxDist(qx, qy, child.minX, child.minY, child.maxX, child.maxY)
				push(child)
			}
		}
	}
}

// boxDist is the squared distance from a point to a box, zero when inside.
func boxDist(qx, qy, minX, minY, maxX, maxY float64) float64 {
	dx := math.Max(0, math.Max(minX-qx, qx-maxX))
	dy := math.Max(0, math.Max(minY-qy, qy-maxY))
	return dx*dx + dy*dy
}
