package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"runtime/pprof"
	"syscall"

	_ "net/http/pprof"

	_ "github.com/KimMachineGun/automemlimit"
	"github.com/striide/walkgraph/cachesaver"
	"github.com/striide/walkgraph/internal/telemetry"
	"github.com/urfave/cli/v3"
	_ "go.uber.org/automaxprocs"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp(&runner{}).RunContext(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp(r *runner) *cli.App {
	return &cli.App{
		Name:        "walkgraph",
		Description: "Builds a weighted pedestrian graph from street geometry, lights and buildings",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:      "config",
				Aliases:   []string{"c"},
				TakesFile: true,
			},
			&cli.IntFlag{
				Name:        "threads",
				Aliases:     []string{"t"},
				DefaultText: "max",
			},
			&cli.StringFlag{
				Name: "pprof.listen",
			},
			&cli.BoolFlag{
				Name: "pprof.profile",
			},
			&cli.BoolFlag{
				Name: "pprof.heap",
			},
		},
		Before: r.before,
		After:  r.after,
		Commands: []*cli.Command{
			{
				Name:   "associate-lights",
				Usage:  "attach street lights to nearby walkables",
				Flags:  []cli.Flag{walkablesFlag(), outFlag(), pointsFlag("lights")},
				Action: r.associateLights,
			},
			{
				Name:   "associate-buildings",
				Usage:  "attach buildings to nearby walkables",
				Flags:  []cli.Flag{walkablesFlag(), outFlag(), pointsFlag("buildings")},
				Action: r.associateBuildings,
			},
			{
				Name:   "associate-intersections",
				Usage:  "detect and resolve intersections between walkables",
				Flags:  []cli.Flag{walkablesFlag(), outFlag()},
				Action: r.associateIntersections,
			},
			{
				Name:    "gen-graph",
				Aliases: []string{"g"},
				Usage:   "build the graph from fully associated walkables",
				Flags: []cli.Flag{
					walkablesFlag(),
					graphOutFlag(),
					&cli.StringFlag{
						Name:      "report",
						Usage:     "write a run report to this file",
						TakesFile: true,
					},
				},
				Action: r.genGraph,
			},
			{
				Name:  "pipeline",
				Usage: "run every association stage and build the graph",
				Flags: []cli.Flag{
					walkablesFlag(),
					graphOutFlag(),
					pointsFlag("lights"),
					&cli.StringFlag{
						Name:      "buildings",
						TakesFile: true,
					},
					&cli.StringFlag{
						Name:      "report",
						TakesFile: true,
					},
				},
				Action: r.pipeline,
			},
			{
				Name:  "bound",
				Usage: "keep walkables that touch a bounding polygon",
				Flags: []cli.Flag{
					walkablesFlag(),
					outFlag(),
					&cli.StringFlag{
						Name:      "polygon",
						Usage:     "GeoJSON with a LineString or Polygon outline",
						Required:  true,
						TakesFile: true,
					},
				},
				Action: r.bound,
			},
			{
				Name:  "remove-points",
				Usage: "drop points that fall inside a town area",
				Flags: []cli.Flag{
					outFlag(),
					pointsFlag("points"),
					&cli.StringFlag{
						Name:      "area",
						Required:  true,
						TakesFile: true,
					},
					&cli.StringFlag{
						Name:  "town",
						Usage: "only use the feature whose TOWN property matches",
					},
				},
				Action: r.removePoints,
			},
			{
				Name:   "densify",
				Usage:  "split long segments at regular intervals",
				Flags:  []cli.Flag{walkablesFlag(), outFlag()},
				Action: r.densify,
			},
			{
				Name:  "project",
				Usage: "offset streets into left and right sidewalks",
				Flags: []cli.Flag{
					walkablesFlag(),
					outFlag(),
					&cli.Float64Flag{
						Name:  "offset",
						Value: 0.00003,
					},
					&cli.StringFlag{
						Name:      "sidewalks",
						Usage:     "only project streets that have no sidewalk within reach in this file",
						TakesFile: true,
					},
				},
				Action: r.project,
			},
			{
				Name:  "combine",
				Usage: "concatenate walkable collections",
				Flags: []cli.Flag{
					outFlag(),
					&cli.StringSliceFlag{
						Name:      "input",
						Aliases:   []string{"i"},
						Required:  true,
						TakesFile: true,
					},
				},
				Action: r.combine,
			},
			{
				Name:  "scatter",
				Usage: "fill an area with evenly spaced points",
				Flags: []cli.Flag{
					outFlag(),
					&cli.StringFlag{
						Name:      "area",
						Required:  true,
						TakesFile: true,
					},
					&cli.Float64Flag{
						Name:  "distance",
						Usage: "minimum spacing in degrees",
						Value: 0.0005,
					},
					&cli.Int64Flag{
						Name:  "seed",
						Value: 1,
					},
				},
				Action: r.scatter,
			},
			{
				Name:   "make-polygon",
				Usage:  "wrap a point set into its convex hull polygon",
				Flags:  []cli.Flag{outFlag(), pointsFlag("points")},
				Action: r.makePolygon,
			},
			{
				Name:  "import-osm",
				Usage: "extract walkables, lights and buildings from an .osm.pbf file",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:      "input",
						Aliases:   []string{"i"},
						Required:  true,
						TakesFile: true,
					},
					&cli.StringFlag{Name: "walkables", Required: true, TakesFile: true},
					&cli.StringFlag{Name: "lights", Required: true, TakesFile: true},
					&cli.StringFlag{Name: "buildings", Required: true, TakesFile: true},
				},
				Action: r.importOSM,
			},
			{
				Name:  "serve",
				Usage: "serve a graph over HTTP",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:      "graph",
						TakesFile: true,
						Value:     cachesaver.DefaultFileName,
					},
					&cli.StringFlag{
						Name:  "listen",
						Value: ":8080",
					},
					&cli.Float64Flag{
						Name:  "search-radius",
						Usage: "nearest node search radius in degrees",
						Value: 0.01,
					},
				},
				Action: r.serve,
			},
		},
	}
}

func walkablesFlag() cli.Flag {
	return &cli.StringFlag{
		Name:      "walkables",
		Aliases:   []string{"w"},
		Required:  true,
		TakesFile: true,
	}
}

func outFlag() cli.Flag {
	return &cli.StringFlag{
		Name:      "out",
		Aliases:   []string{"o"},
		Required:  true,
		TakesFile: true,
	}
}

func graphOutFlag() cli.Flag {
	return &cli.StringFlag{
		Name:      "out",
		Aliases:   []string{"o"},
		TakesFile: true,
		Value:     cachesaver.DefaultFileName,
	}
}

func pointsFlag(name string) cli.Flag {
	return &cli.StringFlag{
		Name:      name,
		Required:  true,
		TakesFile: true,
	}
}

// runner holds what every command shares once the global flags are read.
type runner struct {
	cfg       Config
	log       *slog.Logger
	telemetry *telemetry.Client

	stopProfile func()
	heapProfile bool
}

func (r *runner) before(ctx *cli.Context) error {
	cfg, err := loadConfig(ctx.String("config"))
	if err != nil {
		return err
	}
	if threads := ctx.Int("threads"); threads > 0 {
		cfg.Threads = threads
	}
	r.cfg = cfg

	level, err := cfg.logLevel()
	if err != nil {
		return fmt.Errorf("bad log level: %w", err)
	}
	r.telemetry, err = telemetry.Setup(ctx.Context, "walkgraph", cfg.TelemetryEndpoint, level)
	if err != nil {
		return fmt.Errorf("error setting up telemetry: %w", err)
	}
	if r.telemetry == nil {
		telemetry.SetupLogging(level, nil)
	}
	r.log = slog.Default()

	if pprofListen := ctx.String("pprof.listen"); pprofListen != "" {
		go func() {
			r.log.Info("Starting pprof server", "address", pprofListen)
			err := http.ListenAndServe(pprofListen, nil)
			if err != nil {
				r.log.Error("Error starting pprof server", "error", err)
			}
		}()
	}

	if ctx.Bool("pprof.profile") {
		f, err := os.OpenFile("profile.cpu.pprof", os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
		if err != nil {
			return fmt.Errorf("error creating pprof file: %w", err)
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			f.Close()
			return fmt.Errorf("error starting pprof: %w", err)
		}
		r.stopProfile = func() {
			pprof.StopCPUProfile()
			f.Close()
		}
	}
	r.heapProfile = ctx.Bool("pprof.heap")

	return nil
}

func (r *runner) after(ctx *cli.Context) error {
	if r.stopProfile != nil {
		r.stopProfile()
	}
	if r.heapProfile {
		if err := writeHeapProfile("profile"); err != nil {
			return fmt.Errorf("error writing heap profile: %w", err)
		}
	}
	if err := r.telemetry.Shutdown(context.Background()); err != nil {
		r.log.Error("Error shutting down telemetry", "error", err)
	}
	return nil
}

func writeHeapProfile(name string) error {
	f, err := os.Create(name + ".heap.prof")
	if err != nil {
		return err
	}
	defer f.Close()
	return pprof.WriteHeapProfile(f)
}
