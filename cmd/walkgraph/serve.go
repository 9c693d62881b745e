package main

import (
	"fmt"

	"github.com/striide/walkgraph/internal/telemetry"
	"github.com/striide/walkgraph/navgraph"
	"github.com/striide/walkgraph/server"
	"github.com/urfave/cli/v3"
)

func (r *runner) serve(ctx *cli.Context) error {
	if r.telemetry == nil {
		if err := telemetry.SetupPrometheus(ctx.Context, "walkgraph"); err != nil {
			return fmt.Errorf("failed to initialize otel metrics: %w", err)
		}
	}

	r.log.Info("Loading graph")
	graph, err := navgraph.LoadFile(ctx.String("graph"),
		navgraph.WithLogger(r.log),
		navgraph.WithSearchRadius(ctx.Float64("search-radius")),
	)
	if err != nil {
		return err
	}

	return server.Run(ctx.Context, ctx.String("listen"), graph)
}
