// Package savev1 is the first binary layout of the graph artifact.
//
// Layout after the compatibility level:
//
//	uint32 header size | header | metadata | nodes blob | edge blob...
//
// Blobs are protobuf wire messages, each preceded by its uint32 little-endian size.
package savev1

import (
	"fmt"

	"github.com/paulmach/orb"
	"github.com/striide/walkgraph/graphgen"
)

const COMPATIBILITY_LEVEL uint32 = 1

const edgesChunkSize = 1000

type Edge struct {
	U, V uint32
	// Index into Cache.Weights.
	Weight uint32
}

type Cache struct {
	Version     uint32
	DateCreated string
	Sources     []string

	Nodes []orb.Point
	// Distinct edge weights. Ratings take few values, so edges refer to them by index.
	Weights []float64
	Edges   []Edge
}

func CacheFromArtifact(a graphgen.Artifact) Cache {
	weights := newUniqueMap[float64]()
	edges := make([]Edge, len(a.Edges))
	for i, e := range a.Edges {
		edges[i] = Edge{
			U:      uint32(e.U),
			V:      uint32(e.V),
			Weight: uint32(weights.Add(e.Weight)),
		}
	}

	return Cache{
		Nodes:   a.Nodes,
		Weights: weights.Slice(),
		Edges:   edges,
	}
}

func (c Cache) Artifact() (graphgen.Artifact, error) {
	edges := make([]graphgen.Edge, len(c.Edges))
	for i, e := range c.Edges {
		if int(e.Weight) >= len(c.Weights) {
			return graphgen.Artifact{}, fmt.Errorf("edge %d: weight index %d out of range [0, %d)", i, e.Weight, len(c.Weights))
		}
		edges[i] = graphgen.Edge{U: int(e.U), V: int(e.V), Weight: c.Weights[e.Weight]}
	}
	return graphgen.Artifact{Nodes: c.Nodes, Edges: edges}, nil
}
