package featureio

import (
	"fmt"
	"io"

	"github.com/paulmach/orb/geojson"
	"github.com/striide/walkgraph/internal/fileio"
)

// ReadCollectionFile loads any FeatureCollection, such as boundary or area files.
func ReadCollectionFile(name string) (*geojson.FeatureCollection, error) {
	data, err := fileio.ReadFile(name)
	if err != nil {
		return nil, err
	}
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("%s: error parsing feature collection: %w", name, err)
	}
	return fc, nil
}

func WriteCollectionFile(name string, fc *geojson.FeatureCollection) error {
	return writeFile(name, func(w io.Writer) error {
		data, err := fc.MarshalJSON()
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	})
}
