package spatial

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHaversineMeters_SamePoint(t *testing.T) {
	d := HaversineMeters(37.7749, -122.4194, 37.7749, -122.4194)
	assert.Equal(t, 0.0, d)
}

func TestHaversineMeters_KnownDistance(t *testing.T) {
	// Civic Center to Ferry Building, San Francisco, roughly 2.9km apart.
	d := HaversineMeters(37.7793, -122.4193, 37.7955, -122.3937)
	assert.InDelta(t, 2900, d, 400)
}

func TestEquirectangularApproxMeters_CloseToHaversineAtSmallRadius(t *testing.T) {
	exact := HaversineMeters(37.7749, -122.4194, 37.7755, -122.4200)
	approx := EquirectangularApproxMeters(37.7749, -122.4194, 37.7755, -122.4200)
	assert.InDelta(t, exact, approx, 1.0)
}

func TestMetersToDegreesLat(t *testing.T) {
	assert.InDelta(t, 0.0009, MetersToDegreesLat(100), 0.0001)
}

func TestMetersToDegreesLng_NarrowsWithLatitude(t *testing.T) {
	equator := MetersToDegreesLng(1000, 0)
	highLat := MetersToDegreesLng(1000, 60)
	assert.Greater(t, highLat, equator)
}

func TestMetersToDegreesLng_NearPoleIsLarge(t *testing.T) {
	assert.Greater(t, MetersToDegreesLng(1000, 89.9999), 100.0)
}
