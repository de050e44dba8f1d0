package spatial

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/curbwatch/prediction-engine/internal/models"
)

type fakeMeterStore struct {
	meters []models.Meter
	locs   map[string][2]float64
}

func (f *fakeMeterStore) LoadAllMeters(ctx context.Context) ([]models.Meter, error) {
	return f.meters, nil
}

func (f *fakeMeterStore) LoadMeterLocations(ctx context.Context) (map[string][2]float64, error) {
	return f.locs, nil
}

func TestMeterIndex_Nearest_EmptyReturnsFalse(t *testing.T) {
	idx := NewMeterIndex()
	_, _, ok := idx.Nearest(37.77, -122.41)
	assert.False(t, ok)
}

func TestMeterIndex_Nearest(t *testing.T) {
	store := &fakeMeterStore{
		meters: []models.Meter{{ID: "m1"}, {ID: "m2"}},
		locs: map[string][2]float64{
			"m1": {37.7749, -122.4194},
			"m2": {37.9000, -122.4194},
		},
	}
	idx := NewMeterIndex()
	require.NoError(t, idx.Load(context.Background(), store))

	id, dist, ok := idx.Nearest(37.7749, -122.4194)
	assert.True(t, ok)
	assert.Equal(t, "m1", id)
	assert.Less(t, dist, 10.0)
}

func TestMeterIndex_CountWithin(t *testing.T) {
	store := &fakeMeterStore{
		locs: map[string][2]float64{
			"m1": {37.7749, -122.4194},
			"m2": {37.7750, -122.4194},
			"m3": {38.5, -122.4194},
		},
	}
	idx := NewMeterIndex()
	require.NoError(t, idx.Load(context.Background(), store))

	assert.Equal(t, 2, idx.CountWithin(37.7749, -122.4194, 200))
	assert.Equal(t, 3, idx.CountWithin(37.7749, -122.4194, 1e6))
}
