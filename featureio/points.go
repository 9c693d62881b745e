package featureio

import (
	"fmt"
	"io"

	"github.com/mailru/easyjson/jlexer"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/striide/walkgraph/geomodel"
	"github.com/striide/walkgraph/internal/fileio"
)

const (
	// {"converted_coordinates": [[lon, lat], ...]}
	keyConverted = "converted_coordinates"
	// {"transformed_coordinates": [[lat, lon], ...]}
	keyTransformed = "transformed_coordinates"
)

func ReadPointsFile(name string, opts ...Option) ([]orb.Point, error) {
	data, err := fileio.ReadFile(name)
	if err != nil {
		return nil, err
	}
	points, err := ReadPoints(data, opts...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return points, nil
}

// ReadPoints loads a point set such as street lights. The input is either a GeoJSON
// FeatureCollection, where every geometry contributes its vertices, or an object with
// a converted_coordinates or transformed_coordinates array.
func ReadPoints(data []byte, opts ...Option) ([]orb.Point, error) {
	o := loadOptions(opts...)

	points, isGeoJSON, err := readCoordinateArrays(data)
	if err != nil {
		return nil, err
	}
	if isGeoJSON {
		fc, err := geojson.UnmarshalFeatureCollection(data)
		if err != nil {
			return nil, fmt.Errorf("error parsing feature collection: %w", err)
		}
		points = points[:0]
		for _, f := range fc.Features {
			points = appendVertices(points, f.Geometry)
		}
	}

	if o.quantize >= 0 {
		for i := range points {
			points[i] = geomodel.Quantize(points[i], o.quantize)
		}
	}

	o.logger.Info("Loaded points", "points", len(points))
	return points, nil
}

func readCoordinateArrays(data []byte) ([]orb.Point, bool, error) {
	in := jlexer.Lexer{Data: data}

	var points []orb.Point
	var isGeoJSON bool

	in.Delim('{')
	for !in.IsDelim('}') {
		key := in.UnsafeFieldName(false)
		in.WantColon()
		switch key {
		case keyConverted, keyTransformed:
			swap := key == keyTransformed
			in.Delim('[')
			for !in.IsDelim(']') {
				var p orb.Point
				in.Delim('[')
				p[0] = in.Float64()
				in.WantComma()
				p[1] = in.Float64()
				in.WantComma()
				in.Delim(']')
				if swap {
					p[0], p[1] = p[1], p[0]
				}
				points = append(points, p)
				in.WantComma()
			}
			in.Delim(']')
		case "type", "features":
			isGeoJSON = true
			in.SkipRecursive()
		default:
			in.SkipRecursive()
		}
		in.WantComma()
	}
	in.Delim('}')
	in.Consumed()

	if err := in.Error(); err != nil {
		return nil, false, fmt.Errorf("error parsing points: %w", err)
	}
	return points, isGeoJSON, nil
}

func appendVertices(points []orb.Point, g orb.Geometry) []orb.Point {
	switch g := g.(type) {
	case orb.Point:
		points = append(points, g)
	case orb.MultiPoint:
		points = append(points, g...)
	case orb.LineString:
		points = append(points, g...)
	case orb.Ring:
		points = append(points, g...)
	case orb.MultiLineString:
		for _, ls := range g {
			points = append(points, ls...)
		}
	case orb.Polygon:
		for _, r := range g {
			points = append(points, r...)
		}
	case orb.MultiPolygon:
		for _, p := range g {
			points = appendVertices(points, p)
		}
	case orb.Collection:
		for _, c := range g {
			points = appendVertices(points, c)
		}
	}
	return points
}

func PointsCollection(points []orb.Point) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, p := range points {
		fc.Append(geojson.NewFeature(p))
	}
	return fc
}

// WritePoints writes a FeatureCollection of Point features.
func WritePoints(w io.Writer, points []orb.Point) error {
	data, err := PointsCollection(points).MarshalJSON()
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

func WritePointsFile(name string, points []orb.Point) error {
	return writeFile(name, func(w io.Writer) error {
		return WritePoints(w, points)
	})
}
