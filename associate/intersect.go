package associate

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/paulmach/orb"
	"github.com/striide/walkgraph/geomodel"
	"github.com/striide/walkgraph/linetree"
)

var ErrMissingID = errors.New("walkable has no id")

// NewLineIndex indexes every walkable polyline with its position in the slice.
func NewLineIndex(walkables []geomodel.Walkable) *linetree.Tree[int] {
	entries := make([]linetree.Entry[int], len(walkables))
	for i, w := range walkables {
		entries[i] = linetree.Entry[int]{Line: w.Line, Data: i}
	}
	return linetree.New(entries)
}

// FindIntersections returns the distinct points where line crosses other polylines.
// Candidates are taken in distance order from the first vertex of line, up to cutoff
// of them (0 for all). The candidate with payload self, or with a polyline identical
// to line, is skipped. Parallel segment pairs produce no point.
func FindIntersections(line orb.LineString, self int, lines Index[linetree.Entry[int]], cutoff int) []orb.Point {
	if len(line) == 0 {
		return nil
	}

	var candidates []linetree.Entry[int]
	for e := range lines.Nearest(line[0]) {
		candidates = append(candidates, e)
		if cutoff > 0 && len(candidates) >= cutoff {
			break
		}
	}

	seen := make(map[geomodel.Key]struct{})
	var points []orb.Point

	for _, c := range candidates {
		if c.Data == self || c.Line.Equal(line) {
			continue
		}

		for i := 0; i+1 < len(line); i++ {
			for j := 0; j+1 < len(c.Line); j++ {
				if !geomodel.SegmentsIntersect(line[i], line[i+1], c.Line[j], c.Line[j+1]) {
					continue
				}

				p, ok := geomodel.LineIntersection(line[i], line[i+1], c.Line[j], c.Line[j+1])
				if !ok {
					continue
				}

				key := geomodel.KeyOf(p)
				if _, ok := seen[key]; ok {
					continue
				}
				seen[key] = struct{}{}
				points = append(points, p)
			}
		}
	}

	return points
}

// ResolveIntersectionIDs lists the ids of walkables, other than self, whose polyline
// has a vertex bit-equal to p. Each walkable is listed once.
func ResolveIntersectionIDs(p orb.Point, self uuid.UUID, walkables []geomodel.Walkable) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	for i, w := range walkables {
		if !w.ID.Valid {
			return nil, fmt.Errorf("walkable %d: %w", i, ErrMissingID)
		}
		if w.ID.UUID == self {
			continue
		}
		if w.HasPoint(p) {
			ids = append(ids, w.ID.UUID)
		}
	}
	return ids, nil
}

// AssignIDs gives a random id to every walkable that does not have one yet.
// The input slice is left untouched.
func AssignIDs(walkables []geomodel.Walkable) []geomodel.Walkable {
	out := make([]geomodel.Walkable, len(walkables))
	for i, w := range walkables {
		if !w.ID.Valid {
			w.ID = uuid.NullUUID{UUID: uuid.New(), Valid: true}
		}
		out[i] = w
	}
	return out
}
