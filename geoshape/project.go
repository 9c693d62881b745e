package geoshape

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/striide/walkgraph/geomodel"
)

// DefaultOffset is the sidewalk distance from the street centerline, in degrees.
const DefaultOffset = 0.00003

// ProjectSidewalks offsets line by offset degrees to each side. Every output vertex is
// a segment start moved along that segment's normal; the last segment also adds its end.
// Zero-length segments have no normal and are skipped.
func ProjectSidewalks(line orb.LineString, offset float64) (left, right orb.LineString) {
	last := -1
	for i := len(line) - 2; i >= 0; i-- {
		if line[i] != line[i+1] {
			last = i
			break
		}
	}

	for i := 0; i <= last; i++ {
		start, end := line[i], line[i+1]
		dx := end[0] - start[0]
		dy := end[1] - start[1]
		length := math.Hypot(dx, dy)
		if length == 0 {
			continue
		}

		px := offset * (dy / length)
		py := offset * (-dx / length)

		left = append(left, orb.Point{start[0] - px, start[1] - py})
		right = append(right, orb.Point{start[0] + px, start[1] + py})

		if i == last {
			left = append(left, orb.Point{end[0] - px, end[1] - py})
			right = append(right, orb.Point{end[0] + px, end[1] + py})
		}
	}
	return left, right
}

// ProjectWalkables returns a left and a right sidewalk for every street, in street order.
// The sidewalks carry no id or associated data.
func ProjectWalkables(streets []geomodel.Walkable, offset float64) []geomodel.Walkable {
	out := make([]geomodel.Walkable, 0, 2*len(streets))
	for _, s := range streets {
		left, right := ProjectSidewalks(s.Line, offset)
		out = append(out, geomodel.NewWalkable(left), geomodel.NewWalkable(right))
	}
	return out
}
