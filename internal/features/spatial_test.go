package features

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeSpatial_NoGarageSentinel(t *testing.T) {
	feat := ComputeSpatial(SpatialInputs{NearestGarageDistM: math.NaN()})
	assert.Equal(t, -1.0, feat["nearest_garage_dist_m"])
	assert.Equal(t, 0.0, feat["has_garage_nearby"])
}

func TestComputeSpatial_GarageWithin400MFlagsNearby(t *testing.T) {
	feat := ComputeSpatial(SpatialInputs{NearestGarageDistM: 350})
	assert.Equal(t, 1.0, feat["has_garage_nearby"])
}

func TestComputeSpatial_GarageBeyond400MNotNearby(t *testing.T) {
	feat := ComputeSpatial(SpatialInputs{NearestGarageDistM: 500})
	assert.Equal(t, 0.0, feat["has_garage_nearby"])
}

func TestDensityRatio_ZeroCount400IsZero(t *testing.T) {
	feat := ComputeSpatial(SpatialInputs{MeterCount200M: 5, MeterCount400M: 0})
	assert.Equal(t, 0.0, feat["meter_density_ratio"])
}

func TestDensityRatio_NonZero(t *testing.T) {
	feat := ComputeSpatial(SpatialInputs{MeterCount200M: 5, MeterCount400M: 10})
	assert.Equal(t, 0.5, feat["meter_density_ratio"])
}
