// Package osmimport pulls walkables, street lights and buildings out of an OpenStreetMap
// .osm.pbf extract.
package osmimport

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/cheggaaa/pb/v3"
	"github.com/cheggaaa/pb/v3/termutil"
	"github.com/google/uuid"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/paulmach/osm"
	"github.com/paulmach/osm/osmpbf"
	"github.com/sirupsen/logrus"
	"github.com/sourcegraph/conc/iter"
	"github.com/striide/walkgraph/geomodel"
	"github.com/striide/walkgraph/kv"
)

const wayURL = "https://www.openstreetmap.org/way/"

type Result struct {
	Walkables []geomodel.Walkable
	Lights    []orb.Point
	Buildings []orb.Point
}

type extractor struct {
	cfg Config
	log *logrus.Entry

	nodeCache kv.KVS[osm.NodeID, orb.Point]
	needed    map[osm.NodeID]struct{}

	walkWays     []*osm.Way
	buildingWays []*osm.Way

	result Result
}

// Extract scans the file twice: ways first to learn which nodes matter, then nodes to
// resolve their coordinates and pick up lamps and building points.
func Extract(ctx context.Context, base string, cfg Config) (Result, error) {
	if cfg.Logger == nil {
		cfg.Logger = logrus.StandardLogger()
	}
	if cfg.Threads <= 0 {
		cfg.Threads = 1
	}

	f := &extractor{
		cfg:       cfg,
		log:       cfg.Logger.WithField("base", base),
		nodeCache: kv.NewXMap[osm.NodeID, orb.Point](),
		needed:    map[osm.NodeID]struct{}{},
	}
	defer f.nodeCache.Close()

	start := time.Now()
	if err := f.scanWays(ctx, base); err != nil {
		return Result{}, err
	}
	if err := f.scanNodes(ctx, base); err != nil {
		return Result{}, err
	}
	f.needed = nil

	f.result.Walkables = f.buildWalkables()
	f.result.Buildings = append(f.result.Buildings, f.buildingCenters()...)

	f.log.WithFields(logrus.Fields{
		"walkables": len(f.result.Walkables),
		"lights":    len(f.result.Lights),
		"buildings": len(f.result.Buildings),
		"took":      time.Since(start),
	}).Info("OSM extract finished")

	return f.result, nil
}

func (f *extractor) scanWays(ctx context.Context, base string) error {
	return f.scan(ctx, base, "1/2 collecting ways", func(s *osmpbf.Scanner) {
		s.SkipNodes = true
		s.SkipRelations = true
	}, func(object osm.Object) {
		way, ok := object.(*osm.Way)
		if !ok {
			return
		}
		switch {
		case isWalkable(way.Tags):
			f.walkWays = append(f.walkWays, way)
		case isBuilding(way.Tags) && isClosed(way):
			f.buildingWays = append(f.buildingWays, way)
		default:
			return
		}
		for _, n := range way.Nodes {
			f.needed[n.ID] = struct{}{}
		}
	})
}

func (f *extractor) scanNodes(ctx context.Context, base string) error {
	return f.scan(ctx, base, "2/2 resolving nodes", func(s *osmpbf.Scanner) {
		s.SkipWays = true
		s.SkipRelations = true
	}, f.visitNode)
}

func (f *extractor) visitNode(object osm.Object) {
	node, ok := object.(*osm.Node)
	if !ok {
		f.log.WithField("type", object.ObjectID().Type()).Warn("Unexpected object in node scan, skipping")
		return
	}
	if _, ok := f.needed[node.ID]; ok {
		f.nodeCache.Set(node.ID, node.Point())
	}
	switch {
	case isStreetLamp(node.Tags):
		f.result.Lights = append(f.result.Lights, node.Point())
	case isBuilding(node.Tags):
		f.result.Buildings = append(f.result.Buildings, node.Point())
	}
}

func (f *extractor) scan(ctx context.Context, base, name string, setup func(*osmpbf.Scanner), it func(osm.Object)) error {
	file, err := os.Open(base)
	if err != nil {
		return err
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return err
	}

	scanner := osmpbf.New(ctx, file, f.cfg.Threads)
	defer scanner.Close()
	setup(scanner)

	if !f.cfg.Progress {
		for scanner.Scan() {
			it(scanner.Object())
		}
		return scanner.Err()
	}
	return scanWithProgress(scanner, stat.Size(), name, it)
}

func scanWithProgress(scanner *osmpbf.Scanner, size int64, name string, it func(osm.Object)) error {
	bar := pb.Start64(size)
	bar.Set("prefix", name)
	bar.Set(pb.Bytes, true)
	bar.SetRefreshRate(time.Second * 5)
	if w, err := termutil.TerminalWidth(); w == 0 || err != nil {
		bar.SetTemplateString(`{{with string . "prefix"}}{{.}} {{end}}{{counters . }} {{bar . }} {{percent . }} {{speed . }} {{rtime . "ETA %s"}}{{with string . "suffix"}} {{.}}{{end}}` + "\n")
	}

	for scanner.Scan() {
		bar.SetCurrent(scanner.FullyScannedBytes())
		it(scanner.Object())
	}
	bar.Finish()

	return scanner.Err()
}

func (f *extractor) buildWalkables() []geomodel.Walkable {
	mapper := iter.Mapper[*osm.Way, geomodel.Walkable]{MaxGoroutines: f.cfg.Threads}
	all := mapper.Map(f.walkWays, func(way **osm.Way) geomodel.Walkable {
		return wayWalkable(f.nodeCache, *way)
	})

	walkables := all[:0]
	for i, w := range all {
		if len(w.Line) < 2 {
			f.log.WithField("way", f.walkWays[i].ID).Warn("Way has fewer than two resolved nodes, skipping")
			continue
		}
		walkables = append(walkables, w)
	}
	return walkables
}

func (f *extractor) buildingCenters() []orb.Point {
	mapper := iter.Mapper[*osm.Way, orb.Point]{MaxGoroutines: f.cfg.Threads}
	centers := mapper.Map(f.buildingWays, func(way **osm.Way) orb.Point {
		return wayCenter(f.nodeCache, *way)
	})

	out := centers[:0]
	for _, c := range centers {
		if !c.Equal(orb.Point{}) {
			out = append(out, c)
		}
	}
	return out
}

// wayWalkable resolves the way geometry and derives a stable id from the way id.
// Nodes missing from the extract are dropped.
func wayWalkable(nodes kv.KVS[osm.NodeID, orb.Point], way *osm.Way) geomodel.Walkable {
	line := make(orb.LineString, 0, len(way.Nodes))
	for _, n := range way.Nodes {
		if p, ok := nodes.Get(n.ID); ok {
			line = append(line, p)
		}
	}

	w := geomodel.NewWalkable(line)
	w.ID = uuid.NullUUID{UUID: WayUUID(way.ID), Valid: true}
	return w
}

func wayCenter(nodes kv.KVS[osm.NodeID, orb.Point], way *osm.Way) orb.Point {
	ring := make(orb.Ring, 0, len(way.Nodes))
	for _, n := range way.Nodes {
		if p, ok := nodes.Get(n.ID); ok {
			ring = append(ring, p)
		}
	}
	if len(ring) == 0 {
		return orb.Point{}
	}

	p, _ := planar.CentroidArea(ring)
	return p
}

func isClosed(way *osm.Way) bool {
	return len(way.Nodes) > 3 && way.Nodes[0].ID == way.Nodes[len(way.Nodes)-1].ID
}

// WayUUID is the name-based UUID of the way's openstreetmap.org URL.
func WayUUID(id osm.WayID) uuid.UUID {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(wayURL+strconv.FormatInt(int64(id), 10)))
}

func (r Result) String() string {
	return fmt.Sprintf("%d walkables, %d lights, %d buildings", len(r.Walkables), len(r.Lights), len(r.Buildings))
}
