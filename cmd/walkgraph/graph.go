package main

import (
	"context"
	"fmt"
	"time"

	"github.com/paulmach/orb"
	"github.com/striide/walkgraph/cachesaver"
	"github.com/striide/walkgraph/featureio"
	"github.com/striide/walkgraph/geomodel"
	"github.com/striide/walkgraph/graphgen"
	"github.com/striide/walkgraph/internal/stats"
	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"
)

// Bumped whenever the graph semantics change.
const graphVersion = 1

const statsInterval = time.Second

func (r *runner) genGraph(ctx *cli.Context) error {
	collector, err := r.startCollector(ctx.String("report"))
	if err != nil {
		return err
	}
	defer collector.close()

	input := ctx.String("walkables")
	done := collector.stage("load walkables")
	walkables, err := featureio.ReadWalkablesFile(input, r.cfg.readOptions(r.log)...)
	done()
	if err != nil {
		return err
	}

	if err := r.buildAndSave(ctx.Context, collector, walkables, ctx.String("out"), []string{input}); err != nil {
		return err
	}
	return collector.save()
}

func (r *runner) pipeline(ctx *cli.Context) error {
	collector, err := r.startCollector(ctx.String("report"))
	if err != nil {
		return err
	}
	defer collector.close()

	var (
		walkables         []geomodel.Walkable
		lights, buildings []orb.Point
	)
	sources := []string{ctx.String("walkables"), ctx.String("lights")}
	opts := r.cfg.readOptions(r.log)

	done := collector.stage("load inputs")
	g, _ := errgroup.WithContext(ctx.Context)
	g.Go(func() (err error) {
		walkables, err = featureio.ReadWalkablesFile(ctx.String("walkables"), opts...)
		return err
	})
	g.Go(func() (err error) {
		lights, err = featureio.ReadPointsFile(ctx.String("lights"), opts...)
		return err
	})
	if name := ctx.String("buildings"); name != "" {
		sources = append(sources, name)
		g.Go(func() (err error) {
			buildings, err = featureio.ReadPointsFile(name, opts...)
			return err
		})
	}
	err = g.Wait()
	done()
	if err != nil {
		return err
	}

	a := r.associator()

	done = collector.stage("associate lights")
	walkables, err = a.AssociateLights(ctx.Context, walkables, lights)
	done()
	if err != nil {
		return fmt.Errorf("error associating lights: %w", err)
	}

	if buildings != nil {
		done = collector.stage("associate buildings")
		walkables, err = a.AssociateBuildings(ctx.Context, walkables, buildings)
		done()
		if err != nil {
			return fmt.Errorf("error associating buildings: %w", err)
		}
	}

	done = collector.stage("associate intersections")
	walkables, err = a.AssociateIntersections(ctx.Context, walkables)
	done()
	if err != nil {
		return fmt.Errorf("error associating intersections: %w", err)
	}

	if err := r.buildAndSave(ctx.Context, collector, walkables, ctx.String("out"), sources); err != nil {
		return err
	}
	return collector.save()
}

func (r *runner) buildAndSave(ctx context.Context, collector *reportCollector, walkables []geomodel.Walkable, out string, sources []string) error {
	done := collector.stage("build graph")
	graph, err := graphgen.NewBuilder(r.log).Build(ctx, walkables)
	done()
	if err != nil {
		return fmt.Errorf("error building graph: %w", err)
	}

	s := graph.Stats()
	collector.count("walkables", s.Walkables)
	collector.count("graph nodes", graph.NodeCount())
	collector.count("graph edges", graph.EdgeCount())
	collector.count("path edges", s.PathEdges)
	collector.count("intersection edges", s.IntersectionEdges)
	collector.count("duplicate edges", s.DuplicateEdges)
	collector.count("skipped loops", s.SkippedLoops)

	done = collector.stage("save graph")
	defer done()

	r.log.Info("Saving graph", "file", out)
	return cachesaver.SaveFile(out, graph.Artifact(), cachesaver.Metadata{
		Version:     graphVersion,
		DateCreated: time.Now(),
		Sources:     sources,
	})
}

// reportCollector is a no-op when no report file was requested.
type reportCollector struct {
	c    *stats.Collector
	file string
}

func (r *runner) startCollector(file string) (*reportCollector, error) {
	if file == "" {
		return &reportCollector{}, nil
	}
	c, err := stats.NewCollector(statsInterval)
	if err != nil {
		return nil, err
	}
	c.Start()
	return &reportCollector{c: c, file: file}, nil
}

func (rc *reportCollector) stage(name string) func() {
	if rc.c == nil {
		return func() {}
	}
	return rc.c.StartStage(name)
}

func (rc *reportCollector) count(name string, v int) {
	if rc.c != nil {
		rc.c.Count(name, int64(v))
	}
}

// save stops sampling and writes the report. Later calls are no-ops.
func (rc *reportCollector) save() error {
	if rc.c == nil {
		return nil
	}
	report := rc.c.Stop()
	rc.c = nil
	return report.SaveToFile(rc.file)
}

// close stops sampling without writing a report, for commands that fail midway.
func (rc *reportCollector) close() {
	if rc.c != nil {
		rc.c.Stop()
		rc.c = nil
	}
}
