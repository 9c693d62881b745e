// Package bounds clips walkables and point sets to areas of interest.
package bounds

import (
	"errors"
	"fmt"
	"slices"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"
	"github.com/sourcegraph/conc/iter"
	"github.com/striide/walkgraph/geomodel"
)

// TownProperty names the municipality in boundary files.
const TownProperty = "TOWN"

var ErrNoArea = errors.New("no matching area")

// PolygonFromLine turns a boundary drawn as a LineString into a polygon, closing the ring when needed.
func PolygonFromLine(ls orb.LineString) orb.Polygon {
	ring := orb.Ring(slices.Clone(ls))
	if len(ring) > 0 && ring[0] != ring[len(ring)-1] {
		ring = append(ring, ring[0])
	}
	return orb.Polygon{ring}
}

// AreaFromCollection merges every polygonal feature of fc into one multipolygon.
// LineString features are treated as closed boundaries.
func AreaFromCollection(fc *geojson.FeatureCollection) (orb.MultiPolygon, error) {
	var area orb.MultiPolygon
	for _, f := range fc.Features {
		switch g := f.Geometry.(type) {
		case orb.Polygon:
			area = append(area, g)
		case orb.MultiPolygon:
			area = append(area, g...)
		case orb.LineString:
			area = append(area, PolygonFromLine(g))
		case orb.Ring:
			area = append(area, orb.Polygon{g})
		}
	}
	if len(area) == 0 {
		return nil, ErrNoArea
	}
	return area, nil
}

// Town returns the area of the feature whose TOWN property equals name.
func Town(fc *geojson.FeatureCollection, name string) (orb.MultiPolygon, error) {
	for _, f := range fc.Features {
		if f.Properties.MustString(TownProperty, "") != name {
			continue
		}
		switch g := f.Geometry.(type) {
		case orb.Polygon:
			return orb.MultiPolygon{g}, nil
		case orb.MultiPolygon:
			return g, nil
		}
		return nil, fmt.Errorf("town %q: geometry %s is not polygonal", name, f.Geometry.GeoJSONType())
	}
	return nil, fmt.Errorf("town %q: %w", name, ErrNoArea)
}

// FilterWalkables keeps walkables whose polyline touches the area, in input order.
func FilterWalkables(area orb.MultiPolygon, walkables []geomodel.Walkable) []geomodel.Walkable {
	tree := NewTree[struct{}]()
	for _, poly := range area {
		tree.Insert(struct{}{}, orb.MultiPolygon{poly})
	}

	keep := iter.Map(walkables, func(w *geomodel.Walkable) bool {
		_, ok := tree.QueryLine(w.Line)
		return ok
	})

	out := make([]geomodel.Walkable, 0, len(walkables))
	for i, w := range walkables {
		if keep[i] {
			out = append(out, w)
		}
	}
	return out
}

// RemovePoints drops the points that lie inside the area.
func RemovePoints(area orb.MultiPolygon, points []orb.Point) []orb.Point {
	bound := area.Bound()
	out := make([]orb.Point, 0, len(points))
	for _, p := range points {
		if bound.Contains(p) && planar.MultiPolygonContains(area, p) {
			continue
		}
		out = append(out, p)
	}
	return out
}
