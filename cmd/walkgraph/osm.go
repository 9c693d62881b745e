package main

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/striide/walkgraph/featureio"
	"github.com/striide/walkgraph/osmimport"
	"github.com/urfave/cli/v3"
)

func (r *runner) importOSM(ctx *cli.Context) error {
	cfg := osmimport.ConfigDefault()
	if r.cfg.Threads > 0 {
		cfg.Threads = r.cfg.Threads
	}
	cfg.Logger = logrus.StandardLogger()

	input := ctx.String("input")
	res, err := osmimport.Extract(ctx.Context, input, cfg)
	if err != nil {
		return fmt.Errorf("error extracting %s: %w", input, err)
	}
	r.log.Info("Extracted OSM data", "result", res.String())

	if err := r.writeWalkables(ctx.String("walkables"), res.Walkables); err != nil {
		return err
	}
	if err := featureio.WritePointsFile(ctx.String("lights"), res.Lights); err != nil {
		return err
	}
	return featureio.WritePointsFile(ctx.String("buildings"), res.Buildings)
}
