package main

import (
	"math/rand"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/striide/walkgraph/bounds"
	"github.com/striide/walkgraph/featureio"
	"github.com/striide/walkgraph/geomodel"
	"github.com/striide/walkgraph/geoshape"
	"github.com/urfave/cli/v3"
)

func (r *runner) bound(ctx *cli.Context) error {
	fc, err := featureio.ReadCollectionFile(ctx.String("polygon"))
	if err != nil {
		return err
	}
	area, err := bounds.AreaFromCollection(fc)
	if err != nil {
		return err
	}

	walkables, err := featureio.ReadWalkablesFile(ctx.String("walkables"), r.cfg.readOptions(r.log)...)
	if err != nil {
		return err
	}

	out := bounds.FilterWalkables(area, walkables)
	r.log.Info("Bounded walkables", "kept", len(out), "dropped", len(walkables)-len(out))
	return r.writeWalkables(ctx.String("out"), out)
}

func (r *runner) removePoints(ctx *cli.Context) error {
	fc, err := featureio.ReadCollectionFile(ctx.String("area"))
	if err != nil {
		return err
	}

	var area orb.MultiPolygon
	if town := ctx.String("town"); town != "" {
		area, err = bounds.Town(fc, town)
	} else {
		area, err = bounds.AreaFromCollection(fc)
	}
	if err != nil {
		return err
	}

	points, err := featureio.ReadPointsFile(ctx.String("points"), r.cfg.readOptions(r.log)...)
	if err != nil {
		return err
	}

	out := bounds.RemovePoints(area, points)
	r.log.Info("Removed points inside area", "kept", len(out), "removed", len(points)-len(out))
	return featureio.WritePointsFile(ctx.String("out"), out)
}

func (r *runner) densify(ctx *cli.Context) error {
	walkables, err := featureio.ReadWalkablesFile(ctx.String("walkables"), r.cfg.readOptions(r.log)...)
	if err != nil {
		return err
	}
	return r.writeWalkables(ctx.String("out"), geoshape.DensifyWalkables(walkables))
}

func (r *runner) project(ctx *cli.Context) error {
	streets, err := featureio.ReadWalkablesFile(ctx.String("walkables"), r.cfg.readOptions(r.log)...)
	if err != nil {
		return err
	}

	if name := ctx.String("sidewalks"); name != "" {
		sidewalks, err := featureio.ReadWalkablesFile(name, r.cfg.readOptions(r.log)...)
		if err != nil {
			return err
		}
		streets = geoshape.SidewalklessStreets(streets, sidewalks, geoshape.SidewalkThreshold)
		r.log.Info("Streets without sidewalks", "streets", len(streets))
	}

	return r.writeWalkables(ctx.String("out"), geoshape.ProjectWalkables(streets, ctx.Float64("offset")))
}

func (r *runner) combine(ctx *cli.Context) error {
	var sets [][]geomodel.Walkable
	for _, name := range ctx.StringSlice("input") {
		walkables, err := featureio.ReadWalkablesFile(name, r.cfg.readOptions(r.log)...)
		if err != nil {
			return err
		}
		sets = append(sets, walkables)
	}
	return r.writeWalkables(ctx.String("out"), featureio.Combine(sets...))
}

func (r *runner) scatter(ctx *cli.Context) error {
	fc, err := featureio.ReadCollectionFile(ctx.String("area"))
	if err != nil {
		return err
	}
	area, err := bounds.AreaFromCollection(fc)
	if err != nil {
		return err
	}

	rnd := rand.New(rand.NewSource(ctx.Int64("seed")))
	points := geoshape.Scatter(area, ctx.Float64("distance"), rnd)
	r.log.Info("Scattered points", "points", len(points))
	return featureio.WritePointsFile(ctx.String("out"), points)
}

func (r *runner) makePolygon(ctx *cli.Context) error {
	points, err := featureio.ReadPointsFile(ctx.String("points"), r.cfg.readOptions(r.log)...)
	if err != nil {
		return err
	}

	hull := bounds.Hull(points)
	if len(hull) == 0 {
		return bounds.ErrNoArea
	}

	fc := geojson.NewFeatureCollection()
	fc.Append(geojson.NewFeature(orb.Polygon{hull}))
	return featureio.WriteCollectionFile(ctx.String("out"), fc)
}
