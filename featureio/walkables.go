// Package featureio reads and writes walkables and point sets as GeoJSON.
package featureio

import (
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/striide/walkgraph/geomodel"
	"github.com/striide/walkgraph/internal/fileio"
)

var ErrUnsupportedGeometry = errors.New("unsupported geometry")

const (
	propID            = "id"
	propLights        = "lights"
	propBuildings     = "buildings"
	propIntersections = "intersection points"

	propPointCoordinates = "point_coordinates"
	propStreetIDs        = "intersecting_street_ids"
)

func ReadWalkablesFile(name string, opts ...Option) ([]geomodel.Walkable, error) {
	data, err := fileio.ReadFile(name)
	if err != nil {
		return nil, err
	}
	walkables, err := ReadWalkables(data, opts...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return walkables, nil
}

// ReadWalkables parses a FeatureCollection of LineString features.
// MultiLineStrings are flattened into a single polyline.
func ReadWalkables(data []byte, opts ...Option) ([]geomodel.Walkable, error) {
	o := loadOptions(opts...)

	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("error parsing feature collection: %w", err)
	}

	walkables := make([]geomodel.Walkable, 0, len(fc.Features))
	for i, f := range fc.Features {
		if f.Geometry == nil {
			o.logger.Warn("Feature has no geometry, skipping", "feature", i)
			continue
		}

		w, err := walkableFromFeature(f, o.quantize)
		if err != nil {
			return nil, fmt.Errorf("feature %d: %w", i, err)
		}
		walkables = append(walkables, w)
	}

	o.logger.Info("Loaded walkables", "walkables", len(walkables), "features", len(fc.Features))
	return walkables, nil
}

func walkableFromFeature(f *geojson.Feature, decimals int) (geomodel.Walkable, error) {
	var line orb.LineString
	switch g := f.Geometry.(type) {
	case orb.LineString:
		line = g
	case orb.MultiLineString:
		for _, ls := range g {
			line = append(line, ls...)
		}
	default:
		return geomodel.Walkable{}, fmt.Errorf("%w: %s", ErrUnsupportedGeometry, f.Geometry.GeoJSONType())
	}

	w := geomodel.NewWalkable(quantizeLine(line, decimals))

	var err error
	if id, ok := f.Properties[propID].(string); ok {
		w.ID, err = geomodel.ParseID(id)
		if err != nil {
			return w, fmt.Errorf("bad id %q: %w", id, err)
		}
	}

	w.Lights, err = pointsProperty(f.Properties, propLights, decimals)
	if err != nil {
		return w, err
	}
	w.Buildings, err = pointsProperty(f.Properties, propBuildings, decimals)
	if err != nil {
		return w, err
	}
	w.Intersections, err = intersectionsProperty(f.Properties, decimals)
	if err != nil {
		return w, err
	}

	return w, nil
}

func pointsProperty(props geojson.Properties, key string, decimals int) ([]orb.Point, error) {
	raw, ok := props[key]
	if !ok || raw == nil {
		return nil, nil
	}
	list, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("property %q: expected an array, got %T", key, raw)
	}

	points := make([]orb.Point, len(list))
	for i, v := range list {
		p, err := parsePoint(v)
		if err != nil {
			return nil, fmt.Errorf("property %q, item %d: %w", key, i, err)
		}
		points[i] = geomodel.Quantize(p, decimals)
	}
	return points, nil
}

func intersectionsProperty(props geojson.Properties, decimals int) ([]geomodel.IntersectionPoint, error) {
	raw, ok := props[propIntersections]
	if !ok || raw == nil {
		return nil, nil
	}
	list, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("property %q: expected an array, got %T", propIntersections, raw)
	}

	out := make([]geomodel.IntersectionPoint, len(list))
	for i, v := range list {
		obj, ok := v.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("intersection %d: expected an object, got %T", i, v)
		}

		p, err := parsePoint(obj[propPointCoordinates])
		if err != nil {
			return nil, fmt.Errorf("intersection %d: %w", i, err)
		}
		out[i].Point = geomodel.Quantize(p, decimals)

		ids, _ := obj[propStreetIDs].([]any)
		for _, rawID := range ids {
			s, ok := rawID.(string)
			if !ok {
				return nil, fmt.Errorf("intersection %d: street id must be a string, got %T", i, rawID)
			}
			id, err := uuid.Parse(s)
			if err != nil {
				return nil, fmt.Errorf("intersection %d: bad street id %q: %w", i, s, err)
			}
			out[i].StreetIDs = append(out[i].StreetIDs, id)
		}
	}
	return out, nil
}

func parsePoint(v any) (orb.Point, error) {
	pair, ok := v.([]any)
	if !ok || len(pair) < 2 {
		return orb.Point{}, fmt.Errorf("expected a [lon, lat] pair, got %v", v)
	}
	lon, ok1 := pair[0].(float64)
	lat, ok2 := pair[1].(float64)
	if !ok1 || !ok2 {
		return orb.Point{}, fmt.Errorf("coordinates must be numbers, got %v", v)
	}
	return orb.Point{lon, lat}, nil
}

func quantizeLine(line orb.LineString, decimals int) orb.LineString {
	if decimals < 0 {
		return line
	}
	out := make(orb.LineString, len(line))
	for i, p := range line {
		out[i] = geomodel.Quantize(p, decimals)
	}
	return out
}

// WalkableFeature renders a walkable with every property set.
func WalkableFeature(w geomodel.Walkable) *geojson.Feature {
	f := geojson.NewFeature(w.Line)
	f.Properties[propID] = w.IDString()
	f.Properties[propLights] = nonNil(w.Lights)
	f.Properties[propBuildings] = nonNil(w.Buildings)

	intersections := make([]map[string]any, len(w.Intersections))
	for i, ip := range w.Intersections {
		ids := make([]string, len(ip.StreetIDs))
		for j, id := range ip.StreetIDs {
			ids[j] = id.String()
		}
		intersections[i] = map[string]any{
			propPointCoordinates: ip.Point,
			propStreetIDs:        ids,
		}
	}
	f.Properties[propIntersections] = intersections
	return f
}

func WriteWalkables(w io.Writer, walkables []geomodel.Walkable) error {
	fc := geojson.NewFeatureCollection()
	for _, wk := range walkables {
		fc.Append(WalkableFeature(wk))
	}

	data, err := fc.MarshalJSON()
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

func WriteWalkablesFile(name string, walkables []geomodel.Walkable) error {
	return writeFile(name, func(w io.Writer) error {
		return WriteWalkables(w, walkables)
	})
}

// Combine concatenates walkable sets in order.
func Combine(sets ...[]geomodel.Walkable) []geomodel.Walkable {
	n := 0
	for _, s := range sets {
		n += len(s)
	}
	out := make([]geomodel.Walkable, 0, n)
	for _, s := range sets {
		out = append(out, s...)
	}
	return out
}

func writeFile(name string, write func(io.Writer) error) (err error) {
	w, err := fileio.Create(name)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := w.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	if err := write(w); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

func nonNil(points []orb.Point) []orb.Point {
	if points == nil {
		return []orb.Point{}
	}
	return points
}
