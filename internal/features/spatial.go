package features

import (
	"math"

	"github.com/curbwatch/prediction-engine/internal/spatial"
)

// SpatialInputs are the spatial index lookups ComputeSpatial needs; the
// engine resolves these separately for each candidate spot.
type SpatialInputs struct {
	NearestMeterDistanceM float64
	MeterCount200M        int
	MeterCount400M        int
	NearestGarageDistM    float64
	NeighborhoodID        int
	ZoneTypeID            int
	ElevationProxy        float64 // unused placeholder kept at 0 when no DEM is loaded
}

// ComputeSpatial returns the 8 spatial features for a candidate spot.
func ComputeSpatial(in SpatialInputs) map[string]float64 {
	garageDist := in.NearestGarageDistM
	if math.IsNaN(garageDist) {
		garageDist = -1 // sentinel: "no garages in catalogue"
	}

	return map[string]float64{
		"nearest_meter_dist_m":   in.NearestMeterDistanceM,
		"meter_count_200m":       float64(in.MeterCount200M),
		"meter_count_400m":       float64(in.MeterCount400M),
		"nearest_garage_dist_m":  garageDist,
		"neighborhood_id":        float64(in.NeighborhoodID),
		"zone_type_id":           float64(in.ZoneTypeID),
		"meter_density_ratio":    densityRatio(in.MeterCount200M, in.MeterCount400M),
		"has_garage_nearby":      hasGarageNearby(garageDist),
	}
}

func densityRatio(count200, count400 int) float64 {
	if count400 == 0 {
		return 0
	}
	return float64(count200) / float64(count400)
}

func hasGarageNearby(distM float64) float64 {
	if distM >= 0 && distM <= 400 {
		return 1
	}
	return 0
}

// ClassifyNeighborhood is a thin re-export so callers only need to import
// the features package when assembling spatial inputs.
func ClassifyNeighborhood(lat, lng float64, regions []spatial.NamedRegion) (string, int) {
	return spatial.ClassifyNeighborhood(lat, lng, regions)
}
