package geomodel

import (
	"github.com/google/uuid"
	"github.com/paulmach/orb"
)

// NoID is how a missing identifier is spelled in feature files.
const NoID = "NONE"

// Walkable is one street or sidewalk with everything attached to it by the pipeline.
type Walkable struct {
	ID            uuid.NullUUID
	Line          orb.LineString
	Lights        []orb.Point
	Buildings     []orb.Point
	Intersections []IntersectionPoint
}

// IntersectionPoint is a coordinate where the walkable meets other walkables.
// StreetIDs never contains the id of the walkable that owns the point.
type IntersectionPoint struct {
	Point     orb.Point
	StreetIDs []uuid.UUID
}

func NewWalkable(line orb.LineString) Walkable {
	return Walkable{Line: line}
}

func (w Walkable) IDString() string {
	if !w.ID.Valid {
		return NoID
	}
	return w.ID.UUID.String()
}

// HasPoint reports whether the polyline has a vertex bit-equal to p.
func (w Walkable) HasPoint(p orb.Point) bool {
	_, ok := w.FindPoint(p)
	return ok
}

// FindPoint returns the first polyline vertex bit-equal to p.
func (w Walkable) FindPoint(p orb.Point) (orb.Point, bool) {
	for _, v := range w.Line {
		if SamePoint(v, p) {
			return v, true
		}
	}
	return orb.Point{}, false
}

// ParseID accepts a UUID string or NoID.
func ParseID(s string) (uuid.NullUUID, error) {
	if s == "" || s == NoID {
		return uuid.NullUUID{}, nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.NullUUID{}, err
	}
	return uuid.NullUUID{UUID: id, Valid: true}, nil
}
