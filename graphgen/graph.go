package graphgen

import (
	"github.com/google/btree"
	"github.com/paulmach/orb"
	"github.com/striide/walkgraph/geomodel"
)

const btreeDegree = 32

// Edge joins nodes U and V. Stored edges always have U <= V.
type Edge struct {
	U, V   int
	Weight float64
}

func (e Edge) Other(n int) int {
	if e.U == n {
		return e.V
	}
	return e.U
}

func byEndpoints(a, b Edge) bool {
	if a.U != b.U {
		return a.U < b.U
	}
	return a.V < b.V
}

func byReverseEndpoints(a, b Edge) bool {
	if a.V != b.V {
		return a.V < b.V
	}
	return a.U < b.U
}

// Graph is an undirected graph with one node per distinct coordinate and at most
// one edge per unordered node pair.
type Graph struct {
	nodes []orb.Point
	index map[geomodel.Key]int

	edges   *btree.BTreeG[Edge]
	reverse *btree.BTreeG[Edge]

	stats BuildStats
}

// BuildStats counts what the builder did. It is zero for graphs loaded from an artifact.
type BuildStats struct {
	Walkables         int
	PathEdges         int
	IntersectionEdges int
	DuplicateEdges    int
	SkippedLoops      int
}

func newGraph() *Graph {
	return &Graph{
		index:   make(map[geomodel.Key]int),
		edges:   btree.NewG(btreeDegree, byEndpoints),
		reverse: btree.NewG(btreeDegree, byReverseEndpoints),
	}
}

func (g *Graph) NodeCount() int { return len(g.nodes) }
func (g *Graph) EdgeCount() int { return g.edges.Len() }

func (g *Graph) Stats() BuildStats { return g.stats }

// Nodes returns the node coordinates indexed by node id. The slice must not be modified.
func (g *Graph) Nodes() []orb.Point {
	return g.nodes
}

func (g *Graph) Node(i int) orb.Point {
	return g.nodes[i]
}

// NodeIndex finds the node with a coordinate bit-equal to p.
func (g *Graph) NodeIndex(p orb.Point) (int, bool) {
	i, ok := g.index[geomodel.KeyOf(p)]
	return i, ok
}

// Edges returns all edges ordered by (U, V).
func (g *Graph) Edges() []Edge {
	out := make([]Edge, 0, g.edges.Len())
	g.edges.Ascend(func(e Edge) bool {
		out = append(out, e)
		return true
	})
	return out
}

func (g *Graph) HasEdge(u, v int) bool {
	_, ok := g.Edge(u, v)
	return ok
}

func (g *Graph) Edge(u, v int) (Edge, bool) {
	if u > v {
		u, v = v, u
	}
	return g.edges.Get(Edge{U: u, V: v})
}

// Neighbors returns every edge touching node n. A loop on n is listed once.
func (g *Graph) Neighbors(n int) []Edge {
	var out []Edge
	g.edges.AscendRange(Edge{U: n, V: 0}, Edge{U: n + 1, V: 0}, func(e Edge) bool {
		out = append(out, e)
		return true
	})
	g.reverse.AscendRange(Edge{U: 0, V: n}, Edge{U: n, V: n}, func(e Edge) bool {
		out = append(out, e)
		return true
	})
	return out
}

func (g *Graph) addNode(p orb.Point) int {
	key := geomodel.KeyOf(p)
	if i, ok := g.index[key]; ok {
		return i
	}
	i := len(g.nodes)
	g.nodes = append(g.nodes, p)
	g.index[key] = i
	return i
}

// addEdge inserts the edge unless the node pair is already connected.
// The weight of an existing edge is never changed.
func (g *Graph) addEdge(u, v int, weight float64) bool {
	if u > v {
		u, v = v, u
	}
	e := Edge{U: u, V: v, Weight: weight}
	if g.edges.Has(e) {
		return false
	}
	g.edges.ReplaceOrInsert(e)
	g.reverse.ReplaceOrInsert(e)
	return true
}

// Artifact is the flat, serializable form of a graph.
type Artifact struct {
	Nodes []orb.Point
	Edges []Edge
}

func (g *Graph) Artifact() Artifact {
	return Artifact{
		Nodes: g.nodes,
		Edges: g.Edges(),
	}
}

// FromArtifact rebuilds a graph. Repeated coordinates keep the first node id for lookups,
// and repeated node pairs keep the first edge.
func FromArtifact(a Artifact) (*Graph, error) {
	g := newGraph()
	g.nodes = a.Nodes
	for i := len(a.Nodes) - 1; i >= 0; i-- {
		g.index[geomodel.KeyOf(a.Nodes[i])] = i
	}

	for i, e := range a.Edges {
		for _, n := range [2]int{e.U, e.V} {
			if n < 0 || n >= len(a.Nodes) {
				return nil, &EdgeEndpointError{Edge: i, Node: n, Nodes: len(a.Nodes)}
			}
		}
		g.addEdge(e.U, e.V, e.Weight)
	}

	return g, nil
}
