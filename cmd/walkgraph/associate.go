package main

import (
	"context"
	"fmt"

	"github.com/paulmach/orb"
	"github.com/striide/walkgraph/associate"
	"github.com/striide/walkgraph/featureio"
	"github.com/striide/walkgraph/geomodel"
	"github.com/urfave/cli/v3"
)

func (r *runner) associator() *associate.Associator {
	cfg := r.cfg.associateConfig(r.log)
	cfg.Progress = progressBars
	return associate.New(cfg)
}

func (r *runner) associateLights(ctx *cli.Context) error {
	return r.associatePoints(ctx, "lights", (*associate.Associator).AssociateLights)
}

func (r *runner) associateBuildings(ctx *cli.Context) error {
	return r.associatePoints(ctx, "buildings", (*associate.Associator).AssociateBuildings)
}

type associateFunc func(*associate.Associator, context.Context, []geomodel.Walkable, []orb.Point) ([]geomodel.Walkable, error)

func (r *runner) associatePoints(ctx *cli.Context, flag string, f associateFunc) error {
	walkables, err := featureio.ReadWalkablesFile(ctx.String("walkables"), r.cfg.readOptions(r.log)...)
	if err != nil {
		return err
	}
	points, err := featureio.ReadPointsFile(ctx.String(flag), r.cfg.readOptions(r.log)...)
	if err != nil {
		return err
	}

	out, err := f(r.associator(), ctx.Context, walkables, points)
	if err != nil {
		return fmt.Errorf("error associating %s: %w", flag, err)
	}
	return r.writeWalkables(ctx.String("out"), out)
}

func (r *runner) associateIntersections(ctx *cli.Context) error {
	walkables, err := featureio.ReadWalkablesFile(ctx.String("walkables"), r.cfg.readOptions(r.log)...)
	if err != nil {
		return err
	}

	out, err := r.associator().AssociateIntersections(ctx.Context, walkables)
	if err != nil {
		return fmt.Errorf("error associating intersections: %w", err)
	}
	return r.writeWalkables(ctx.String("out"), out)
}

func (r *runner) writeWalkables(name string, walkables []geomodel.Walkable) error {
	r.log.Info("Saving walkables", "file", name, "walkables", len(walkables))
	return featureio.WriteWalkablesFile(name, walkables)
}
