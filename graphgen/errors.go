package graphgen

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/paulmach/orb"
	"github.com/striide/walkgraph/geomodel"
)

var (
	// ErrMalformedInput marks walkables whose intersection data does not match their geometry.
	ErrMalformedInput = errors.New("malformed input")
	// ErrInvariant marks a broken assumption inside the builder itself.
	ErrInvariant = errors.New("graph invariant violated")
)

type DuplicateIDError struct {
	ID uuid.UUID
}

func (e *DuplicateIDError) Error() string {
	return fmt.Sprintf("walkable id %s is used more than once", e.ID)
}

func (e *DuplicateIDError) Unwrap() error { return ErrMalformedInput }

// MissingWalkableError is returned when an intersection names a street id that no walkable has.
type MissingWalkableError struct {
	ID uuid.UUID
}

func (e *MissingWalkableError) Error() string {
	return fmt.Sprintf("intersection references unknown walkable %s", e.ID)
}

func (e *MissingWalkableError) Unwrap() error { return ErrMalformedInput }

// MissingPointError is returned when an intersection point is not a vertex of the street it names.
type MissingPointError struct {
	ID    uuid.UUID
	Point orb.Point
}

func (e *MissingPointError) Error() string {
	return fmt.Sprintf("intersection point %s is not a vertex of walkable %s", geomodel.KeyOf(e.Point), e.ID)
}

func (e *MissingPointError) Unwrap() error { return ErrMalformedInput }

type MissingNodeError struct {
	Point orb.Point
}

func (e *MissingNodeError) Error() string {
	return fmt.Sprintf("no node for point %s", geomodel.KeyOf(e.Point))
}

func (e *MissingNodeError) Unwrap() error { return ErrInvariant }

// EdgeEndpointError is returned when a stored edge refers to a node index out of range.
type EdgeEndpointError struct {
	Edge  int
	Node  int
	Nodes int
}

func (e *EdgeEndpointError) Error() string {
	return fmt.Sprintf("edge %d: node %d out of range [0, %d)", e.Edge, e.Node, e.Nodes)
}

func (e *EdgeEndpointError) Unwrap() error { return ErrMalformedInput }
