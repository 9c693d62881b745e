// Package graphgen turns finalized walkables into a pedestrian graph.
//
// Every polyline vertex becomes a node, deduplicated by exact coordinate bits.
// Consecutive vertices are joined by path edges of InternalEdgeWeight. Every
// resolved intersection adds an edge weighted by the Rating of the street it
// leads onto.
package graphgen

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/striide/walkgraph/geomodel"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("github.com/striide/walkgraph/graphgen")

// Builder assembles one graph. It is not safe for concurrent use.
type Builder struct {
	log *slog.Logger

	graph     *Graph
	walkables map[uuid.UUID]geomodel.Walkable
}

func NewBuilder(log *slog.Logger) *Builder {
	if log == nil {
		log = slog.Default()
	}
	return &Builder{log: log.With("component", "graphgen")}
}

// Build is NewBuilder(nil).Build without tracing context.
func Build(walkables []geomodel.Walkable) (*Graph, error) {
	return NewBuilder(nil).Build(context.Background(), walkables)
}

// Build runs both phases and returns the finished graph. Any inconsistency between
// intersection data and geometry aborts the build and no graph is returned.
func (b *Builder) Build(ctx context.Context, walkables []geomodel.Walkable) (*Graph, error) {
	ctx, span := tracer.Start(ctx, "graphgen.build", trace.WithAttributes(
		attribute.Int("walkables", len(walkables)),
	))
	defer span.End()

	start := time.Now()
	b.graph = newGraph()
	b.walkables = make(map[uuid.UUID]geomodel.Walkable, len(walkables))
	defer func() {
		b.graph = nil
		b.walkables = nil
	}()

	if err := b.addPaths(walkables); err != nil {
		span.RecordError(err)
		return nil, err
	}
	b.log.InfoContext(ctx, "Path edges created",
		"nodes", b.graph.NodeCount(),
		"edges", b.graph.stats.PathEdges,
		"skipped_loops", b.graph.stats.SkippedLoops,
	)

	if err := b.connectIntersections(walkables); err != nil {
		span.RecordError(err)
		return nil, err
	}

	g := b.graph
	g.stats.Walkables = len(walkables)

	span.SetAttributes(
		attribute.Int("nodes", g.NodeCount()),
		attribute.Int("edges", g.EdgeCount()),
	)
	b.log.InfoContext(ctx, "Graph built",
		"nodes", g.NodeCount(),
		"edges", g.EdgeCount(),
		"intersection_edges", g.stats.IntersectionEdges,
		"elapsed", time.Since(start),
	)

	return g, nil
}

func (b *Builder) addPaths(walkables []geomodel.Walkable) error {
	g := b.graph
	for _, w := range walkables {
		if w.ID.Valid {
			if _, ok := b.walkables[w.ID.UUID]; ok {
				return &DuplicateIDError{ID: w.ID.UUID}
			}
			b.walkables[w.ID.UUID] = w
		}

		prev := -1
		for _, p := range w.Line {
			n := g.addNode(p)
			switch {
			case prev < 0:
			case prev == n:
				g.stats.SkippedLoops++
			case g.addEdge(prev, n, InternalEdgeWeight):
				g.stats.PathEdges++
			default:
				g.stats.DuplicateEdges++
			}
			prev = n
		}
	}
	return nil
}

func (b *Builder) connectIntersections(walkables []geomodel.Walkable) error {
	g := b.graph
	for _, w := range walkables {
		for _, ip := range w.Intersections {
			for _, id := range ip.StreetIDs {
				if w.ID.Valid && id == w.ID.UUID {
					continue
				}

				other, ok := b.walkables[id]
				if !ok {
					return &MissingWalkableError{ID: id}
				}

				otherPoint, ok := other.FindPoint(ip.Point)
				if !ok {
					return &MissingPointError{ID: id, Point: ip.Point}
				}

				from, ok := g.NodeIndex(ip.Point)
				if !ok {
					return &MissingNodeError{Point: ip.Point}
				}
				to, ok := g.NodeIndex(otherPoint)
				if !ok {
					return &MissingNodeError{Point: otherPoint}
				}

				if g.addEdge(from, to, Rating(other)) {
					g.stats.IntersectionEdges++
				} else {
					g.stats.DuplicateEdges++
				}
			}
		}
	}
	return nil
}
