// Package navgraph serves lookups over a built walk graph: the node nearest to a
// coordinate and the weighted edges leaving it.
package navgraph

import (
	"fmt"
	"io"
	"log/slog"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
	"github.com/paulmach/orb/planar"
	"github.com/striide/walkgraph/cachesaver"
	"github.com/striide/walkgraph/graphgen"
	"github.com/striide/walkgraph/kdbush"
)

const maxSearchRadius float64 = 0.01

type Graph struct {
	graph *graphgen.Graph
	tree  *kdbush.KDBush[int]
	meta  *cachesaver.Metadata

	searchRadius float64
	logger       *slog.Logger
}

type Node struct {
	Index int
	Point orb.Point
	// Great-circle distance in meters from the query point.
	Distance float64
}

type Neighbor struct {
	Index  int
	Point  orb.Point
	Weight float64
}

type Stats struct {
	Nodes    int
	Edges    int
	Metadata *cachesaver.Metadata
}

func New(g *graphgen.Graph, opts ...Option) *Graph {
	options := loadOptions(opts...)
	options.logger.Info("Indexing graph nodes", "nodes", g.NodeCount(), "edges", g.EdgeCount())

	points := make([]kdbush.Point[int], g.NodeCount())
	for i, p := range g.Nodes() {
		points[i] = kdbush.Point[int]{X: p[0], Y: p[1], Data: i}
	}

	return &Graph{
		graph:        g,
		tree:         kdbush.NewBush(points, kdbush.DefaultNodeSize),
		searchRadius: options.searchRadius,
		logger:       options.logger,
	}
}

func LoadFromReader(r io.Reader, opts ...Option) (*Graph, error) {
	options := loadOptions(opts...)

	a, meta, err := cachesaver.LoadFromReader(r, options.logger)
	if err != nil {
		return nil, fmt.Errorf("error loading graph: %w", err)
	}
	return fromArtifact(a, meta, opts...)
}

func LoadFile(name string, opts ...Option) (*Graph, error) {
	options := loadOptions(opts...)
	options.logger.Info("Loading graph", "file", name)

	a, meta, err := cachesaver.LoadFile(name, options.logger)
	if err != nil {
		return nil, fmt.Errorf("error loading graph: %w", err)
	}
	return fromArtifact(a, meta, opts...)
}

func fromArtifact(a graphgen.Artifact, meta *cachesaver.Metadata, opts ...Option) (*Graph, error) {
	g, err := graphgen.FromArtifact(a)
	if err != nil {
		return nil, err
	}
	n := New(g, opts...)
	n.meta = meta
	return n, nil
}

func (n *Graph) Stats() Stats {
	return Stats{
		Nodes:    n.graph.NodeCount(),
		Edges:    n.graph.EdgeCount(),
		Metadata: n.meta,
	}
}

func (n *Graph) Nearest(lon, lat float64) (Node, bool) {
	return n.NearestInRadius(lon, lat, n.searchRadius)
}

// NearestInRadius returns the closest node within radius degrees. Equally close
// nodes resolve to the lowest index.
func (n *Graph) NearestInRadius(lon, lat float64, radius float64) (Node, bool) {
	if !(radius >= 0) {
		return Node{}, false
	}

	best := -1
	bestDist := math.Inf(1)
	n.tree.Within(lon, lat, radius, func(p kdbush.Point[int]) bool {
		d := planar.DistanceSquared(orb.Point{lon, lat}, orb.Point{p.X, p.Y})
		if d < bestDist || (d == bestDist && p.Data < best) {
			best, bestDist = p.Data, d
		}
		return true
	})
	if best < 0 {
		return Node{}, false
	}

	q := orb.Point{lon, lat}
	p := n.graph.Node(best)
	return Node{
		Index:    best,
		Point:    p,
		Distance: geo.DistanceHaversine(q, p),
	}, true
}

// Neighbors resolves the nearest node and lists its incident edges.
func (n *Graph) Neighbors(lon, lat float64) (Node, []Neighbor, bool) {
	node, ok := n.Nearest(lon, lat)
	if !ok {
		return Node{}, nil, false
	}
	return node, n.NodeNeighbors(node.Index), true
}

func (n *Graph) NodeNeighbors(i int) []Neighbor {
	edges := n.graph.Neighbors(i)
	out := make([]Neighbor, len(edges))
	for j, e := range edges {
		other := e.Other(i)
		out[j] = Neighbor{
			Index:  other,
			Point:  n.graph.Node(other),
			Weight: e.Weight,
		}
	}
	return out
}
