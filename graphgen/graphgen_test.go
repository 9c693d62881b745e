package graphgen_test

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"testing"

	"github.com/fogleman/poissondisc"
	"github.com/google/uuid"
	"github.com/paulmach/orb"
	"github.com/striide/walkgraph/geomodel"
	"github.com/striide/walkgraph/graphgen"
	"github.com/thejerf/slogassert"
)

func walkable(line orb.LineString) geomodel.Walkable {
	w := geomodel.NewWalkable(line)
	w.ID = uuid.NullUUID{UUID: uuid.New(), Valid: true}
	return w
}

func crossing() (geomodel.Walkable, geomodel.Walkable) {
	a := walkable(orb.LineString{{0, -1}, {0, 0}, {0, 1}})
	b := walkable(orb.LineString{{-1, 0}, {0, 0}, {1, 0}})
	a.Intersections = []geomodel.IntersectionPoint{{Point: orb.Point{0, 0}, StreetIDs: []uuid.UUID{b.ID.UUID}}}
	b.Intersections = []geomodel.IntersectionPoint{{Point: orb.Point{0, 0}, StreetIDs: []uuid.UUID{a.ID.UUID}}}
	return a, b
}

func TestRating(t *testing.T) {
	cases := []struct {
		lights int
		want   float64
	}{
		{0, 1},
		{1, 0},
		{15, 1},
		{30, 1},
		{45, 2},
		{150, 5},
		{300, 10},
		{1000, 10},
	}
	for _, c := range cases {
		if got := graphgen.LightRating(c.lights); got != c.want {
			t.Errorf("LightRating(%d) = %v, expected %v", c.lights, got, c.want)
		}
	}

	w := geomodel.NewWalkable(nil)
	w.Lights = make([]orb.Point, 30)
	if got := graphgen.Rating(w); got != 1 {
		t.Fatalf("Rating with 30 lights = %v, expected 1", got)
	}
}

func TestBuildDedupsNodes(t *testing.T) {
	shared := orb.Point{0.5, 0.5}
	walkables := []geomodel.Walkable{
		walkable(orb.LineString{{0, 0}, shared, {1, 1}}),
		walkable(orb.LineString{{1, 0}, shared, {0, 1}}),
		walkable(orb.LineString{{0, 0}, {1, 0}}),
	}

	g, err := graphgen.Build(walkables)
	if err != nil {
		t.Fatal(err)
	}

	distinct := make(map[geomodel.Key]struct{})
	for _, w := range walkables {
		for _, p := range w.Line {
			distinct[geomodel.KeyOf(p)] = struct{}{}
		}
	}
	if g.NodeCount() != len(distinct) {
		t.Fatalf("expected %d nodes, got %d", len(distinct), g.NodeCount())
	}
	if g.EdgeCount() != 5 {
		t.Fatalf("expected 5 edges, got %d", g.EdgeCount())
	}

	n, ok := g.NodeIndex(shared)
	if !ok {
		t.Fatal("shared point has no node")
	}
	if got := len(g.Neighbors(n)); got != 4 {
		t.Fatalf("expected 4 edges at shared node, got %d", got)
	}
}

func TestBuildBitExactNodes(t *testing.T) {
	p := orb.Point{30.1, 59.9}
	q := orb.Point{math.Nextafter(30.1, 31), 59.9}

	g, err := graphgen.Build([]geomodel.Walkable{walkable(orb.LineString{p, q})})
	if err != nil {
		t.Fatal(err)
	}
	if g.NodeCount() != 2 || g.EdgeCount() != 1 {
		t.Fatalf("neighbouring floats must be distinct nodes: %d nodes, %d edges", g.NodeCount(), g.EdgeCount())
	}
}

func TestBuildEdgeIdempotence(t *testing.T) {
	walkables := []geomodel.Walkable{
		walkable(orb.LineString{{0, 0}, {1, 0}, {0, 0}, {0, 0}}),
		walkable(orb.LineString{{1, 0}, {0, 0}}),
	}

	g, err := graphgen.Build(walkables)
	if err != nil {
		t.Fatal(err)
	}
	if g.EdgeCount() != 1 {
		t.Fatalf("expected a single edge, got %v", g.Edges())
	}

	stats := g.Stats()
	if stats.PathEdges != 1 || stats.DuplicateEdges != 2 || stats.SkippedLoops != 1 {
		t.Fatalf("unexpected stats %+v", stats)
	}
}

func TestBuildIntersectionEdges(t *testing.T) {
	a, b := crossing()
	b.Lights = make([]orb.Point, 300)

	g, err := graphgen.Build([]geomodel.Walkable{a, b})
	if err != nil {
		t.Fatal(err)
	}

	n, _ := g.NodeIndex(orb.Point{0, 0})
	e, ok := g.Edge(n, n)
	if !ok {
		t.Fatal("expected an intersection edge at the shared node")
	}
	// the first walkable reaches b first, so the edge carries b's rating
	if e.Weight != graphgen.MaxRating {
		t.Fatalf("expected weight %v, got %v", graphgen.MaxRating, e.Weight)
	}
	if g.Stats().IntersectionEdges != 1 {
		t.Fatalf("expected the reverse intersection to be a no-op, stats %+v", g.Stats())
	}
	if g.EdgeCount() != 5 {
		t.Fatalf("expected 4 path edges and 1 intersection edge, got %d", g.EdgeCount())
	}
}

func TestBuildSkipsOwnID(t *testing.T) {
	a := walkable(orb.LineString{{0, 0}, {1, 0}})
	a.Intersections = []geomodel.IntersectionPoint{{Point: orb.Point{0, 0}, StreetIDs: []uuid.UUID{a.ID.UUID}}}

	g, err := graphgen.Build([]geomodel.Walkable{a})
	if err != nil {
		t.Fatal(err)
	}
	if g.EdgeCount() != 1 {
		t.Fatalf("expected only the path edge, got %v", g.Edges())
	}
}

func TestBuildErrors(t *testing.T) {
	a, b := crossing()
	unknown := uuid.New()

	missingStreet := a
	missingStreet.Intersections = []geomodel.IntersectionPoint{{Point: orb.Point{0, 0}, StreetIDs: []uuid.UUID{unknown}}}

	missingPoint := a
	missingPoint.Intersections = []geomodel.IntersectionPoint{{Point: orb.Point{0, 1}, StreetIDs: []uuid.UUID{b.ID.UUID}}}

	dup := b
	dup.Intersections = nil

	t.Run("missing walkable", func(t *testing.T) {
		_, err := graphgen.Build([]geomodel.Walkable{missingStreet, b})
		if !errors.Is(err, graphgen.ErrMalformedInput) {
			t.Fatalf("expected malformed input, got %v", err)
		}
		var target *graphgen.MissingWalkableError
		if !errors.As(err, &target) || target.ID != unknown {
			t.Fatalf("expected MissingWalkableError for %s, got %v", unknown, err)
		}
	})

	t.Run("missing point", func(t *testing.T) {
		_, err := graphgen.Build([]geomodel.Walkable{missingPoint, b})
		var target *graphgen.MissingPointError
		if !errors.As(err, &target) || target.ID != b.ID.UUID || target.Point != (orb.Point{0, 1}) {
			t.Fatalf("expected MissingPointError, got %v", err)
		}
		if errors.Is(err, graphgen.ErrInvariant) {
			t.Fatal("missing point must not be reported as an invariant violation")
		}
	})

	t.Run("duplicate id", func(t *testing.T) {
		_, err := graphgen.Build([]geomodel.Walkable{a, b, dup})
		var target *graphgen.DuplicateIDError
		if !errors.As(err, &target) || target.ID != b.ID.UUID {
			t.Fatalf("expected DuplicateIDError, got %v", err)
		}
	})
}

func TestMissingNodeIsInvariant(t *testing.T) {
	err := error(&graphgen.MissingNodeError{Point: orb.Point{1, 2}})
	if !errors.Is(err, graphgen.ErrInvariant) || errors.Is(err, graphgen.ErrMalformedInput) {
		t.Fatalf("unexpected classification of %v", err)
	}
}

func TestBuilderLogs(t *testing.T) {
	handler := slogassert.New(t, slog.LevelInfo, nil)
	a, b := crossing()

	_, err := graphgen.NewBuilder(slog.New(handler)).Build(context.Background(), []geomodel.Walkable{a, b})
	if err != nil {
		t.Fatal(err)
	}

	handler.AssertMessage("Path edges created")
	handler.AssertMessage("Graph built")
}

func TestArtifactRoundtrip(t *testing.T) {
	a, b := crossing()
	g, err := graphgen.Build([]geomodel.Walkable{a, b})
	if err != nil {
		t.Fatal(err)
	}

	restored, err := graphgen.FromArtifact(g.Artifact())
	if err != nil {
		t.Fatal(err)
	}
	if restored.NodeCount() != g.NodeCount() || restored.EdgeCount() != g.EdgeCount() {
		t.Fatalf("restored graph differs: %d/%d nodes, %d/%d edges",
			restored.NodeCount(), g.NodeCount(), restored.EdgeCount(), g.EdgeCount())
	}
	for _, e := range g.Edges() {
		got, ok := restored.Edge(e.V, e.U)
		if !ok || got != e {
			t.Fatalf("edge %+v missing after restore, got %+v", e, got)
		}
	}
}

func TestFromArtifactRejectsBadEdge(t *testing.T) {
	_, err := graphgen.FromArtifact(graphgen.Artifact{
		Nodes: []orb.Point{{0, 0}},
		Edges: []graphgen.Edge{{U: 0, V: 3, Weight: 1}},
	})

	var target *graphgen.EdgeEndpointError
	if !errors.As(err, &target) || target.Node != 3 {
		t.Fatalf("expected EdgeEndpointError, got %v", err)
	}
	if !errors.Is(err, graphgen.ErrMalformedInput) {
		t.Fatal("expected malformed input classification")
	}
}

func BenchmarkBuild(b *testing.B) {
	points := poissondisc.Sample(0, 0, 1, 1, 0.005, 16, nil)

	walkables := make([]geomodel.Walkable, 0, len(points)/4)
	for i := 0; i+3 < len(points); i += 4 {
		line := orb.LineString{}
		for _, p := range points[i : i+4] {
			line = append(line, orb.Point{p.X, p.Y})
		}
		walkables = append(walkables, walkable(line))
	}

	b.ResetTimer()
	for b.Loop() {
		if _, err := graphgen.Build(walkables); err != nil {
			b.Fatal(err)
		}
	}
}
