package associate_test

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/fogleman/poissondisc"
	"github.com/google/uuid"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
	"github.com/striide/walkgraph/associate"
	"github.com/striide/walkgraph/geomodel"
	"github.com/thejerf/slogassert"
)

func testConfig() associate.Config {
	cfg := associate.ConfigDefault()
	cfg.Threads = 2
	return cfg
}

func withID(line orb.LineString) geomodel.Walkable {
	w := geomodel.NewWalkable(line)
	w.ID = uuid.NullUUID{UUID: uuid.New(), Valid: true}
	return w
}

func TestSampleShortSegment(t *testing.T) {
	for _, mode := range []associate.SamplingMode{associate.SamplingBisect, associate.SamplingUniform} {
		s := associate.Sampler{LengthThreshold: 15, IntervalFactor: 5, Mode: mode}
		a, b := orb.Point{0, 0}, orb.Point{0.0001, 0}

		points := s.Segment(a, b)
		if len(points) != 2 {
			t.Fatalf("%s: expected 2 points for %.1fm segment, got %d", mode, geo.DistanceHaversine(a, b), len(points))
		}
		if points[0] != a || points[1] != b {
			t.Fatalf("%s: expected endpoints, got %v", mode, points)
		}
	}
}

func TestSampleLongSegment(t *testing.T) {
	a, b := orb.Point{30.3, 59.9}, orb.Point{30.301, 59.9}
	want := int(math.Ceil(geo.DistanceHaversine(a, b)/5)) + 1

	for _, mode := range []associate.SamplingMode{associate.SamplingBisect, associate.SamplingUniform} {
		s := associate.Sampler{LengthThreshold: 15, IntervalFactor: 5, Mode: mode}
		points := s.Segment(a, b)

		if len(points) != want {
			t.Fatalf("%s: expected %d points, got %d", mode, want, len(points))
		}
		if !geomodel.SamePoint(points[0], a) {
			t.Fatalf("%s: first point %v is not the segment start", mode, points[0])
		}

		var hasEnd bool
		for _, p := range points {
			if geomodel.SamePoint(p, b) {
				hasEnd = true
			}
			if p[0] < a[0]-1e-9 || p[0] > b[0]+1e-9 || math.Abs(p[1]-a[1]) > 1e-5 {
				t.Fatalf("%s: sample %v is off the segment", mode, p)
			}
		}
		if !hasEnd {
			t.Fatalf("%s: segment end missing from samples", mode)
		}
	}
}

func TestSampleUniformSpacing(t *testing.T) {
	a, b := orb.Point{30.3, 59.9}, orb.Point{30.301, 59.9}
	s := associate.Sampler{LengthThreshold: 15, IntervalFactor: 5, Mode: associate.SamplingUniform}
	points := s.Segment(a, b)

	step := geo.DistanceHaversine(a, b) / float64(len(points)-1)
	for i := 1; i < len(points); i++ {
		d := geo.DistanceHaversine(points[i-1], points[i])
		if math.Abs(d-step) > 0.01 {
			t.Fatalf("sample %d: spacing %.3fm, expected %.3fm", i, d, step)
		}
	}
}

func TestSampleLine(t *testing.T) {
	s := associate.Config{LengthThreshold: 15, IntervalFactor: 5}.Sampler()
	line := orb.LineString{{0, 0}, {0.00005, 0}, {0.0001, 0}}

	points := s.Line(line)
	if len(points) != 4 {
		t.Fatalf("expected shared vertex to be sampled once per segment, got %d points", len(points))
	}
	if len(s.Line(orb.LineString{{0, 0}})) != 0 {
		t.Fatal("single point line must not produce samples")
	}
}

func TestMidpoint(t *testing.T) {
	m := associate.Midpoint(orb.Point{-10, 0}, orb.Point{10, 0})
	if math.Abs(m[0]) > 1e-9 || math.Abs(m[1]) > 1e-9 {
		t.Fatalf("expected midpoint at origin, got %v", m)
	}

	m = associate.Midpoint(orb.Point{0, 0}, orb.Point{0, 10})
	if math.Abs(m[0]) > 1e-9 || math.Abs(m[1]-5) > 1e-9 {
		t.Fatalf("expected midpoint at (0, 5), got %v", m)
	}
}

// unitMidpoint is the plain trigonometric form of the great-circle midpoint.
func unitMidpoint(a, b orb.Point) orb.Point {
	const toRad, toDeg = math.Pi / 180, 180 / math.Pi
	alon, alat := a[0]*toRad, a[1]*toRad
	blon, blat := b[0]*toRad, b[1]*toRad

	// explicit conversions keep the products rounded on FMA targets
	ax, ay := float64(math.Cos(alat)*math.Cos(alon)), float64(math.Cos(alat)*math.Sin(alon))
	bx, by := float64(math.Cos(blat)*math.Cos(blon)), float64(math.Cos(blat)*math.Sin(blon))

	x := (ax + bx) / 2
	y := (ay + by) / 2
	z := (math.Sin(alat) + math.Sin(blat)) / 2

	return orb.Point{math.Atan2(y, x) * toDeg, math.Atan2(z, math.Sqrt(x*x+y*y)) * toDeg}
}

func TestMidpointBitExact(t *testing.T) {
	rnd := rand.New(rand.NewPCG(7, 7))
	for i := range 10000 {
		a := orb.Point{-71.1 + rnd.Float64()*0.2, 42.3 + rnd.Float64()*0.1}
		b := orb.Point{a[0] + (rnd.Float64()-0.5)*0.002, a[1] + (rnd.Float64()-0.5)*0.002}

		got, want := associate.Midpoint(a, b), unitMidpoint(a, b)
		if math.Float64bits(got[0]) != math.Float64bits(want[0]) ||
			math.Float64bits(got[1]) != math.Float64bits(want[1]) {
			t.Fatalf("segment %d %v-%v: got %v, want %v", i, a, b, got, want)
		}
	}
}

func TestParseSamplingMode(t *testing.T) {
	for _, mode := range []associate.SamplingMode{associate.SamplingBisect, associate.SamplingUniform} {
		got, err := associate.ParseSamplingMode(mode.String())
		if err != nil || got != mode {
			t.Fatalf("roundtrip of %s: got %s, %v", mode, got, err)
		}
	}
	if _, err := associate.ParseSamplingMode("random"); err == nil {
		t.Fatal("expected error for unknown mode")
	}
}

func TestNearestFeaturesDedup(t *testing.T) {
	s := associate.ConfigDefault().Sampler()
	line := orb.LineString{{0, 0}, {0.0001, 0}}
	near := orb.Point{0.00005, 0.00001}
	far := orb.Point{0.01, 0.01}

	idx := associate.NewPointIndex([]orb.Point{near, far})
	found := associate.NearestFeatures(line, idx, s, associate.DefaultK, associate.DistThreshold*2)

	if len(found) != 1 {
		t.Fatalf("expected one light, got %v", found)
	}
	if found[0] != near {
		t.Fatalf("expected %v, got %v", near, found[0])
	}
}

func TestNearestFeaturesLimit(t *testing.T) {
	s := associate.ConfigDefault().Sampler()
	line := orb.LineString{{0, 0}, {0.00001, 0}}
	lights := []orb.Point{{0, 0.00001}, {0, 0.00002}}
	idx := associate.NewPointIndex(lights)

	if found := associate.NearestFeatures(line, idx, s, 1, associate.DistThreshold*2); len(found) != 1 {
		t.Fatalf("k=1: expected 1 light, got %d", len(found))
	}
	if found := associate.NearestFeatures(line, idx, s, 2, associate.DistThreshold*2); len(found) != 2 {
		t.Fatalf("k=2: expected 2 lights, got %d", len(found))
	}
	if found := associate.NearestFeatures(line, idx, s, 2, 1e-12); len(found) != 0 {
		t.Fatalf("tiny threshold: expected no lights, got %d", len(found))
	}
}

func TestAssociateLights(t *testing.T) {
	ctx := context.Background()
	a := associate.New(testConfig())

	walkables := []geomodel.Walkable{
		geomodel.NewWalkable(orb.LineString{{0, 0}, {0.0001, 0}}),
		geomodel.NewWalkable(orb.LineString{{1, 1}, {1.0001, 1}}),
	}
	lights := []orb.Point{{0.00005, 0.00001}, {1.00005, 1.00001}, {5, 5}}

	out, err := a.AssociateLights(ctx, walkables, lights)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 walkables, got %d", len(out))
	}
	if len(out[0].Lights) != 1 || out[0].Lights[0] != lights[0] {
		t.Fatalf("walkable 0: unexpected lights %v", out[0].Lights)
	}
	if len(out[1].Lights) != 1 || out[1].Lights[0] != lights[1] {
		t.Fatalf("walkable 1: unexpected lights %v", out[1].Lights)
	}
	if walkables[0].Lights != nil {
		t.Fatal("input walkables must not be modified")
	}

	out, err = a.AssociateBuildings(ctx, out, []orb.Point{{0.0001, 0.00001}})
	if err != nil {
		t.Fatal(err)
	}
	if len(out[0].Buildings) != 1 || len(out[1].Buildings) != 0 {
		t.Fatalf("unexpected buildings %v / %v", out[0].Buildings, out[1].Buildings)
	}
	if len(out[0].Lights) != 1 {
		t.Fatal("associating buildings must keep lights")
	}
}

func TestAssociateWarnsOnDegenerateWalkable(t *testing.T) {
	handler := slogassert.New(t, slog.LevelWarn, nil)
	cfg := testConfig()
	cfg.Logger = slog.New(handler)
	a := associate.New(cfg)

	walkables := []geomodel.Walkable{geomodel.NewWalkable(orb.LineString{{0, 0}})}
	out, err := a.AssociateLights(context.Background(), walkables, []orb.Point{{0, 0}})
	if err != nil {
		t.Fatal(err)
	}
	if len(out[0].Lights) != 0 {
		t.Fatalf("expected no lights on a single point walkable, got %v", out[0].Lights)
	}

	handler.AssertMessage("Walkable has no segments, nothing to sample")
}

func TestAssociateCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	a := associate.New(testConfig())
	_, err := a.AssociateLights(ctx, []geomodel.Walkable{geomodel.NewWalkable(orb.LineString{{0, 0}, {1, 1}})}, nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestAssociateIntersectionsCrossing(t *testing.T) {
	a := associate.New(testConfig())
	walkables := []geomodel.Walkable{
		geomodel.NewWalkable(orb.LineString{{0, -10}, {0, 0}, {0, 10}}),
		geomodel.NewWalkable(orb.LineString{{-10, 0}, {0, 0}, {10, 0}}),
	}

	out, err := a.AssociateIntersections(context.Background(), walkables)
	if err != nil {
		t.Fatal(err)
	}

	for i, w := range out {
		if !w.ID.Valid {
			t.Fatalf("walkable %d: expected an assigned id", i)
		}
		if len(w.Intersections) != 1 {
			t.Fatalf("walkable %d: expected 1 intersection, got %v", i, w.Intersections)
		}
		ip := w.Intersections[0]
		if ip.Point != (orb.Point{0, 0}) {
			t.Fatalf("walkable %d: expected intersection at origin, got %v", i, ip.Point)
		}

		other := out[1-i].ID.UUID
		if len(ip.StreetIDs) != 1 || ip.StreetIDs[0] != other {
			t.Fatalf("walkable %d: expected street ids [%s], got %v", i, other, ip.StreetIDs)
		}
	}
}

func TestAssociateIntersectionsKeepsIDs(t *testing.T) {
	a := associate.New(testConfig())
	first := withID(orb.LineString{{0, -10}, {0, 10}})

	out, err := a.AssociateIntersections(context.Background(), []geomodel.Walkable{
		first,
		geomodel.NewWalkable(orb.LineString{{-10, 0}, {10, 0}}),
	})
	if err != nil {
		t.Fatal(err)
	}
	if out[0].ID != first.ID {
		t.Fatalf("existing id replaced: %v -> %v", first.ID, out[0].ID)
	}

	// the crossing point is not a vertex of either line, so nothing resolves
	for i, w := range out {
		if len(w.Intersections) != 1 {
			t.Fatalf("walkable %d: expected 1 intersection, got %d", i, len(w.Intersections))
		}
		if len(w.Intersections[0].StreetIDs) != 0 {
			t.Fatalf("walkable %d: expected no street ids, got %v", i, w.Intersections[0].StreetIDs)
		}
	}
}

func TestFindIntersectionsParallel(t *testing.T) {
	walkables := []geomodel.Walkable{
		geomodel.NewWalkable(orb.LineString{{0, 0}, {10, 0}}),
		geomodel.NewWalkable(orb.LineString{{0, 1}, {10, 1}}),
	}
	lines := associate.NewLineIndex(walkables)

	if points := associate.FindIntersections(walkables[0].Line, 0, lines, 0); len(points) != 0 {
		t.Fatalf("expected no intersections between parallel lines, got %v", points)
	}
}

func TestFindIntersectionsSkipsDuplicateLine(t *testing.T) {
	line := orb.LineString{{0, -10}, {0, 10}}
	walkables := []geomodel.Walkable{
		geomodel.NewWalkable(line),
		geomodel.NewWalkable(line.Clone()),
	}
	lines := associate.NewLineIndex(walkables)

	if points := associate.FindIntersections(line, 0, lines, 0); len(points) != 0 {
		t.Fatalf("identical polylines must not intersect each other, got %v", points)
	}
}

func TestFindIntersectionsCutoff(t *testing.T) {
	walkables := []geomodel.Walkable{
		geomodel.NewWalkable(orb.LineString{{0, 0}, {100, 0}}),
		geomodel.NewWalkable(orb.LineString{{1, -1}, {1, 1}}),
		geomodel.NewWalkable(orb.LineString{{90, -1}, {90, 1}}),
	}
	lines := associate.NewLineIndex(walkables)

	if points := associate.FindIntersections(walkables[0].Line, 0, lines, 0); len(points) != 2 {
		t.Fatalf("expected 2 intersections without cutoff, got %v", points)
	}
	// the walkable itself is the first candidate
	if points := associate.FindIntersections(walkables[0].Line, 0, lines, 2); len(points) != 1 {
		t.Fatalf("expected 1 intersection with cutoff, got %v", points)
	}
}

func TestResolveIntersectionIDs(t *testing.T) {
	shared := orb.Point{0, 0}
	self := withID(orb.LineString{{0, -1}, shared, {0, 1}})
	other := withID(orb.LineString{{-1, 0}, shared, {1, 0}})
	dup := withID(orb.LineString{{-1, -1}, shared, {1, 1}, shared})
	far := withID(orb.LineString{{5, 5}, {6, 6}})

	ids, err := associate.ResolveIntersectionIDs(shared, self.ID.UUID, []geomodel.Walkable{self, other, dup, far})
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 2 || ids[0] != other.ID.UUID || ids[1] != dup.ID.UUID {
		t.Fatalf("unexpected ids %v", ids)
	}

	_, err = associate.ResolveIntersectionIDs(shared, self.ID.UUID, []geomodel.Walkable{self, geomodel.NewWalkable(other.Line)})
	if !errors.Is(err, associate.ErrMissingID) {
		t.Fatalf("expected ErrMissingID, got %v", err)
	}
}

func TestResolveIntersectionsMissingID(t *testing.T) {
	a := associate.New(testConfig())
	walkables := []geomodel.Walkable{
		withID(orb.LineString{{0, 0}, {1, 1}}),
		geomodel.NewWalkable(orb.LineString{{1, 0}, {0, 1}}),
	}

	_, err := a.ResolveIntersections(context.Background(), walkables)
	if !errors.Is(err, associate.ErrMissingID) {
		t.Fatalf("expected ErrMissingID, got %v", err)
	}
}

func TestAssignIDs(t *testing.T) {
	keep := withID(orb.LineString{{0, 0}, {1, 1}})
	in := []geomodel.Walkable{keep, geomodel.NewWalkable(orb.LineString{{1, 0}, {0, 1}})}

	out := associate.AssignIDs(in)
	if out[0].ID != keep.ID {
		t.Fatal("existing id must be kept")
	}
	if !out[1].ID.Valid {
		t.Fatal("missing id must be assigned")
	}
	if in[1].ID.Valid {
		t.Fatal("input must not be modified")
	}
}

func BenchmarkAssociateLights(b *testing.B) {
	rnd := rand.New(rand.NewPCG(1, 2))
	points := poissondisc.Sample(30.2, 59.8, 30.4, 60.0, 0.0005, 32, nil)

	lights := make([]orb.Point, len(points))
	for i, p := range points {
		lights[i] = orb.Point{p.X, p.Y}
	}

	walkables := make([]geomodel.Walkable, 500)
	for i := range walkables {
		x, y := 30.2+rnd.Float64()*0.2, 59.8+rnd.Float64()*0.2
		walkables[i] = geomodel.NewWalkable(orb.LineString{{x, y}, {x + 0.001, y + 0.0005}, {x + 0.002, y}})
	}

	a := associate.New(associate.ConfigDefault())
	ctx := context.Background()

	b.ResetTimer()
	for b.Loop() {
		if _, err := a.AssociateLights(ctx, walkables, lights); err != nil {
			b.Fatal(err)
		}
	}
}
