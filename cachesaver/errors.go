package cachesaver

import (
	"fmt"

	"github.com/paulmach/orb"
	"github.com/striide/walkgraph/geomodel"
	"github.com/striide/walkgraph/graphgen"
)

// UnknownNodeError is returned when a JSON edge endpoint is not among the nodes.
type UnknownNodeError struct {
	Edge  int
	Point orb.Point
}

func (e *UnknownNodeError) Error() string {
	return fmt.Sprintf("edge %d: endpoint %s is not a node", e.Edge, geomodel.KeyOf(e.Point))
}

func (e *UnknownNodeError) Unwrap() error { return graphgen.ErrMalformedInput }
