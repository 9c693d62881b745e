// Package associate attaches lights, buildings and intersection points to walkables.
//
// Every stage is a parallel map over the input slice that returns a new slice in the
// same order. Spatial indexes are built once per stage and only read by workers.
package associate

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/paulmach/orb"
	"github.com/sourcegraph/conc/iter"
	"github.com/striide/walkgraph/geomodel"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("github.com/striide/walkgraph/associate")

type Associator struct {
	cfg Config
	log *slog.Logger
}

func New(cfg Config) *Associator {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	if cfg.K <= 0 {
		cfg.K = DefaultK
	}
	if cfg.Progress == nil {
		cfg.Progress = func(string, int) Progress { return nopProgress{} }
	}

	return &Associator{
		cfg: cfg,
		log: log.With("component", "associate"),
	}
}

func (a *Associator) AssociateLights(ctx context.Context, walkables []geomodel.Walkable, lights []orb.Point) ([]geomodel.Walkable, error) {
	return a.associatePoints(ctx, "lights", walkables, lights, func(w *geomodel.Walkable, found []orb.Point) {
		w.Lights = found
	})
}

func (a *Associator) AssociateBuildings(ctx context.Context, walkables []geomodel.Walkable, buildings []orb.Point) ([]geomodel.Walkable, error) {
	return a.associatePoints(ctx, "buildings", walkables, buildings, func(w *geomodel.Walkable, found []orb.Point) {
		w.Buildings = found
	})
}

func (a *Associator) associatePoints(
	ctx context.Context, name string,
	walkables []geomodel.Walkable, features []orb.Point,
	set func(w *geomodel.Walkable, found []orb.Point),
) ([]geomodel.Walkable, error) {
	ctx, span := tracer.Start(ctx, "associate."+name, trace.WithAttributes(
		attribute.Int("walkables", len(walkables)),
		attribute.Int("features", len(features)),
	))
	defer span.End()

	log := a.log.With("stage", name)
	start := time.Now()
	log.InfoContext(ctx, "Building feature index", "features", len(features))
	idx := NewPointIndex(features)
	sampler := a.cfg.Sampler()

	var total atomic.Int64
	out, err := mapParallel(ctx, a, "associating "+name, walkables, func(w geomodel.Walkable) (geomodel.Walkable, error) {
		if len(w.Line) < 2 {
			log.Warn("Walkable has no segments, nothing to sample", "id", w.IDString(), "points", len(w.Line))
		}
		found := NearestFeatures(w.Line, idx, sampler, a.cfg.K, a.cfg.MaxDistSquared)
		total.Add(int64(len(found)))
		set(&w, found)
		return w, nil
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	span.SetAttributes(attribute.Int64("associated", total.Load()))
	log.InfoContext(ctx, "Association complete", "associated", total.Load(), "elapsed", time.Since(start))

	return out, nil
}

// DetectIntersections attaches raw intersection points with empty street id lists.
func (a *Associator) DetectIntersections(ctx context.Context, walkables []geomodel.Walkable) ([]geomodel.Walkable, error) {
	ctx, span := tracer.Start(ctx, "associate.detect_intersections", trace.WithAttributes(
		attribute.Int("walkables", len(walkables)),
	))
	defer span.End()

	start := time.Now()
	lines := NewLineIndex(walkables)

	// workers only see values, so the slice position is carried alongside
	indexed := make([]indexedWalkable, len(walkables))
	for i, w := range walkables {
		indexed[i] = indexedWalkable{i: i, w: w}
	}

	out, err := mapParallel(ctx, a, "detecting intersections", indexed, func(iw indexedWalkable) (geomodel.Walkable, error) {
		w := iw.w
		if len(w.Line) < 2 {
			a.log.Warn("Walkable has no segments, skipping intersection search", "id", w.IDString())
			w.Intersections = nil
			return w, nil
		}
		points := FindIntersections(w.Line, iw.i, lines, a.cfg.CandidateCutoff)
		w.Intersections = make([]geomodel.IntersectionPoint, len(points))
		for j, p := range points {
			w.Intersections[j] = geomodel.IntersectionPoint{Point: p}
		}
		return w, nil
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	a.log.InfoContext(ctx, "Intersection detection complete", "intersections", countIntersections(out), "elapsed", time.Since(start))
	return out, nil
}

// ResolveIntersections fills the street id list of every intersection point.
// Every walkable must carry an id.
func (a *Associator) ResolveIntersections(ctx context.Context, walkables []geomodel.Walkable) ([]geomodel.Walkable, error) {
	ctx, span := tracer.Start(ctx, "associate.resolve_intersections")
	defer span.End()

	start := time.Now()
	out, err := mapParallel(ctx, a, "resolving intersections", walkables, func(w geomodel.Walkable) (geomodel.Walkable, error) {
		if !w.ID.Valid {
			return w, ErrMissingID
		}
		resolved := make([]geomodel.IntersectionPoint, len(w.Intersections))
		for j, ip := range w.Intersections {
			ids, err := ResolveIntersectionIDs(ip.Point, w.ID.UUID, walkables)
			if err != nil {
				return w, err
			}
			resolved[j] = geomodel.IntersectionPoint{Point: ip.Point, StreetIDs: ids}
		}
		w.Intersections = resolved
		return w, nil
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	a.log.InfoContext(ctx, "Intersection resolution complete", "elapsed", time.Since(start))
	return out, nil
}

// AssociateIntersections assigns missing ids, then detects and resolves intersections.
func (a *Associator) AssociateIntersections(ctx context.Context, walkables []geomodel.Walkable) ([]geomodel.Walkable, error) {
	withIDs := AssignIDs(walkables)
	a.log.InfoContext(ctx, "Finished assigning IDs", "walkables", len(withIDs))

	detected, err := a.DetectIntersections(ctx, withIDs)
	if err != nil {
		return nil, err
	}
	return a.ResolveIntersections(ctx, detected)
}

type indexedWalkable struct {
	i int
	w geomodel.Walkable
}

func mapParallel[T any](
	ctx context.Context, a *Associator, name string, input []T,
	f func(T) (geomodel.Walkable, error),
) ([]geomodel.Walkable, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	bar := a.cfg.Progress(name, len(input))
	defer bar.Finish()

	mapper := iter.Mapper[T, geomodel.Walkable]{MaxGoroutines: a.cfg.Threads}
	return mapper.MapErr(input, func(item *T) (geomodel.Walkable, error) {
		if err := ctx.Err(); err != nil {
			return geomodel.Walkable{}, err
		}
		w, err := f(*item)
		bar.Increment()
		return w, err
	})
}

func countIntersections(walkables []geomodel.Walkable) int {
	n := 0
	for _, w := range walkables {
		n += len(w.Intersections)
	}
	return n
}
