package osmimport

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/osm"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/striide/walkgraph/kv"
)

func TestTagClassification(t *testing.T) {
	cases := []struct {
		tags                       osm.Tags
		walkable, lamp, isBuilding bool
	}{
		{tags: osm.Tags{{Key: "highway", Value: "footway"}}, walkable: true},
		{tags: osm.Tags{{Key: "highway", Value: "pedestrian"}}, walkable: true},
		{tags: osm.Tags{{Key: "highway", Value: "residential"}, {Key: "sidewalk", Value: "both"}}, walkable: true},
		{tags: osm.Tags{{Key: "highway", Value: "residential"}, {Key: "sidewalk", Value: "no"}}},
		{tags: osm.Tags{{Key: "highway", Value: "motorway"}}},
		{tags: osm.Tags{{Key: "highway", Value: "street_lamp"}}, lamp: true},
		{tags: osm.Tags{{Key: "building", Value: "yes"}}, isBuilding: true},
		{tags: osm.Tags{{Key: "building", Value: "no"}}},
	}
	for _, c := range cases {
		if got := isWalkable(c.tags); got != c.walkable {
			t.Errorf("%v: walkable %v, want %v", c.tags, got, c.walkable)
		}
		if got := isStreetLamp(c.tags); got != c.lamp {
			t.Errorf("%v: lamp %v, want %v", c.tags, got, c.lamp)
		}
		if got := isBuilding(c.tags); got != c.isBuilding {
			t.Errorf("%v: building %v, want %v", c.tags, got, c.isBuilding)
		}
	}
}

func testNodes() kv.KVS[osm.NodeID, orb.Point] {
	nodes := kv.NewXMap[osm.NodeID, orb.Point]()
	nodes.Set(1, orb.Point{0, 0})
	nodes.Set(2, orb.Point{2, 0})
	nodes.Set(3, orb.Point{2, 2})
	nodes.Set(4, orb.Point{0, 2})
	return nodes
}

func TestWayWalkable(t *testing.T) {
	way := &osm.Way{ID: 42, Nodes: osm.WayNodes{{ID: 1}, {ID: 99}, {ID: 2}}}

	w := wayWalkable(testNodes(), way)
	if !w.Line.Equal(orb.LineString{{0, 0}, {2, 0}}) {
		t.Fatalf("unexpected line %v", w.Line)
	}
	if !w.ID.Valid || w.ID.UUID != WayUUID(42) {
		t.Fatalf("unexpected id %v", w.ID)
	}
	if WayUUID(42) == WayUUID(43) {
		t.Fatal("way ids must map to distinct uuids")
	}
}

func TestWayCenter(t *testing.T) {
	way := &osm.Way{ID: 7, Nodes: osm.WayNodes{{ID: 1}, {ID: 2}, {ID: 3}, {ID: 4}, {ID: 1}}}
	if !isClosed(way) {
		t.Fatal("expected closed way")
	}

	if c := wayCenter(testNodes(), way); c != (orb.Point{1, 1}) {
		t.Fatalf("unexpected center %v", c)
	}

	open := &osm.Way{Nodes: osm.WayNodes{{ID: 1}, {ID: 2}, {ID: 3}}}
	if isClosed(open) {
		t.Fatal("expected open way")
	}
}

func TestVisitNode(t *testing.T) {
	logger, hook := test.NewNullLogger()
	f := &extractor{
		log:       logrus.NewEntry(logger),
		nodeCache: kv.NewXMap[osm.NodeID, orb.Point](),
		needed:    map[osm.NodeID]struct{}{1: {}},
	}

	f.visitNode(&osm.Node{ID: 1, Lon: 1, Lat: 2})
	f.visitNode(&osm.Node{ID: 2, Lon: 3, Lat: 4, Tags: osm.Tags{{Key: "highway", Value: "street_lamp"}}})
	f.visitNode(&osm.Node{ID: 3, Lon: 5, Lat: 6, Tags: osm.Tags{{Key: "building", Value: "yes"}}})
	f.visitNode(&osm.Way{ID: 4})

	if p, ok := f.nodeCache.Get(1); !ok || p != (orb.Point{1, 2}) {
		t.Fatalf("expected needed node to be cached, got %v %v", p, ok)
	}
	if _, ok := f.nodeCache.Get(2); ok {
		t.Fatal("unneeded node must not be cached")
	}
	if len(f.result.Lights) != 1 || f.result.Lights[0] != (orb.Point{3, 4}) {
		t.Fatalf("unexpected lights %v", f.result.Lights)
	}
	if len(f.result.Buildings) != 1 || f.result.Buildings[0] != (orb.Point{5, 6}) {
		t.Fatalf("unexpected buildings %v", f.result.Buildings)
	}

	entry := hook.LastEntry()
	if entry == nil || entry.Level != logrus.WarnLevel || entry.Message != "Unexpected object in node scan, skipping" {
		t.Fatalf("unexpected log entry %+v", entry)
	}
}

func TestExtractMissingFile(t *testing.T) {
	cfg := ConfigDefault()
	cfg.Progress = false
	if _, err := Extract(context.Background(), filepath.Join(t.TempDir(), "missing.osm.pbf"), cfg); err == nil {
		t.Fatal("expected an error for a missing file")
	}
}
