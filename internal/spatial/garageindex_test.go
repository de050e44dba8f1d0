package spatial

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/curbwatch/prediction-engine/internal/models"
)

type fakeGarageStore struct {
	garages []models.Garage
}

func (f *fakeGarageStore) LoadAllGarages(ctx context.Context) ([]models.Garage, error) {
	return f.garages, nil
}

func TestGarageIndex_NearestDistance_EmptyIsNaN(t *testing.T) {
	idx := NewGarageIndex()
	assert.True(t, math.IsNaN(idx.NearestDistance(37.77, -122.41)))
}

func TestGarageIndex_NearestDistance(t *testing.T) {
	store := &fakeGarageStore{garages: []models.Garage{
		{ID: "g1", Latitude: 37.7749, Longitude: -122.4194},
		{ID: "g2", Latitude: 37.9000, Longitude: -122.4194},
	}}
	idx := NewGarageIndex()
	require.NoError(t, idx.Load(context.Background(), store))

	d := idx.NearestDistance(37.7749, -122.4194)
	assert.Less(t, d, 10.0)
}

func TestGarageIndex_Nearby_FiltersAndLimits(t *testing.T) {
	store := &fakeGarageStore{garages: []models.Garage{
		{ID: "near", Latitude: 37.7749, Longitude: -122.4194},
		{ID: "far", Latitude: 38.5, Longitude: -122.4194},
	}}
	idx := NewGarageIndex()
	require.NoError(t, idx.Load(context.Background(), store))

	hits := idx.Nearby(37.7749, -122.4194, 1000, 10)
	require.Len(t, hits, 1)
	assert.Equal(t, "near", hits[0].Garage.ID)
}
