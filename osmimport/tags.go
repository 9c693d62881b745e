package osmimport

import (
	"slices"

	"github.com/paulmach/osm"
)

const (
	highwayKey  = "highway"
	sidewalkKey = "sidewalk"
	buildingKey = "building"

	streetLamp = "street_lamp"
)

var walkableHighways = []string{"footway", "path", "pedestrian"}

// A missing tag and these values all mean "not present".
var absentValues = []string{"", "no", "none"}

func isWalkable(tags osm.Tags) bool {
	if slices.Contains(walkableHighways, tags.Find(highwayKey)) {
		return true
	}
	return !slices.Contains(absentValues, tags.Find(sidewalkKey))
}

func isStreetLamp(tags osm.Tags) bool {
	return tags.Find(highwayKey) == streetLamp
}

func isBuilding(tags osm.Tags) bool {
	return !slices.Contains(absentValues, tags.Find(buildingKey))
}
