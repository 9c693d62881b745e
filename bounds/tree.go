package bounds

import (
	"sync"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/striide/walkgraph/geomodel"
	"github.com/tidwall/qtree"
)

// Tree finds which of many polygons contain a point or touch a polyline.
type Tree[Data any] struct {
	mu      sync.RWMutex
	borders []border[Data]
	qt      qtree.QTree
}

func NewTree[Data any]() *Tree[Data] {
	return &Tree[Data]{}
}

type border[D any] struct {
	Data    D
	Polygon orb.MultiPolygon
}

func (bt *Tree[Data]) Insert(data Data, b orb.MultiPolygon) {
	bound := b.Bound()

	bt.mu.Lock()
	defer bt.mu.Unlock()

	bt.qt.Insert(bound.Min, bound.Max, len(bt.borders))
	bt.borders = append(bt.borders, border[Data]{Data: data, Polygon: b})
}

func (bt *Tree[Data]) Len() int {
	bt.mu.RLock()
	defer bt.mu.RUnlock()
	return len(bt.borders)
}

// QueryPoint returns the data of the first polygon containing point.
func (bt *Tree[Data]) QueryPoint(point orb.Point) (Data, bool) {
	bt.mu.RLock()
	defer bt.mu.RUnlock()

	var out Data
	found := false

	bt.qt.Search(point, point, func(_, _ [2]float64, data interface{}) bool {
		id := data.(int)

		if planar.MultiPolygonContains(bt.borders[id].Polygon, point) {
			out = bt.borders[id].Data
			found = true
			return false
		}

		return true
	})

	return out, found
}

// QueryLine returns the data of the first polygon the polyline touches.
func (bt *Tree[Data]) QueryLine(line orb.LineString) (Data, bool) {
	bt.mu.RLock()
	defer bt.mu.RUnlock()

	var out Data
	found := false
	if len(line) == 0 {
		return out, false
	}

	bound := line.Bound()
	bt.qt.Search(bound.Min, bound.Max, func(_, _ [2]float64, data interface{}) bool {
		id := data.(int)

		if Intersects(bt.borders[id].Polygon, line) {
			out = bt.borders[id].Data
			found = true
			return false
		}

		return true
	})

	return out, found
}

// Intersects reports whether line has a vertex inside mp or crosses one of its rings.
func Intersects(mp orb.MultiPolygon, line orb.LineString) bool {
	for _, p := range line {
		if planar.MultiPolygonContains(mp, p) {
			return true
		}
	}

	for _, poly := range mp {
		for _, ring := range poly {
			for i := 0; i+1 < len(ring); i++ {
				for j := 0; j+1 < len(line); j++ {
					if geomodel.SegmentsIntersect(ring[i], ring[i+1], line[j], line[j+1]) {
						return true
					}
				}
			}
		}
	}
	return false
}
