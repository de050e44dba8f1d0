package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/curbwatch/prediction-engine/internal/cache"
	"github.com/curbwatch/prediction-engine/internal/config"
	"github.com/curbwatch/prediction-engine/internal/model"
	"github.com/curbwatch/prediction-engine/internal/models"
	"github.com/curbwatch/prediction-engine/internal/spatial"
)

type fakeSpotStore struct{ spots []models.Spot }

func (f *fakeSpotStore) LoadAllSpots(ctx context.Context) ([]models.Spot, error) { return f.spots, nil }

type fakeGarageStore struct{ garages []models.Garage }

func (f *fakeGarageStore) LoadAllGarages(ctx context.Context) ([]models.Garage, error) {
	return f.garages, nil
}

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

type fakeSignalReader struct{}

func (fakeSignalReader) LatestSignal(ctx context.Context, signalType string, now time.Time) (models.RealTimeSignal, bool) {
	return models.RealTimeSignal{}, false
}

type fakeSignRuleReader struct{}

func (fakeSignRuleReader) NearbySignCounts(ctx context.Context, lat, lng, radiusM float64, isNoParking, isTimeLimit func(string) bool) (int, int, error) {
	return 0, 0, nil
}

func newTestEngine(t *testing.T) *Engine {
	spotIdx := spatial.NewSpotIndex()
	require.NoError(t, spotIdx.Load(context.Background(), &fakeSpotStore{spots: []models.Spot{
		{ID: "s1", Street: "Main St", Neighborhood: "downtown", Latitude: 37.7749, Longitude: -122.4194},
		{ID: "s2", Street: "Main St", Neighborhood: "downtown", Latitude: 37.7751, Longitude: -122.4194},
		{ID: "s3", Street: "Elm St", Neighborhood: "soma", Latitude: 37.9000, Longitude: -122.4194},
	}}))

	garageIdx := spatial.NewGarageIndex()
	require.NoError(t, garageIdx.Load(context.Background(), &fakeGarageStore{garages: []models.Garage{
		{ID: "g1", Name: "Civic Center Garage", Latitude: 37.7750, Longitude: -122.4194},
	}}))

	meterIdx := spatial.NewMeterIndex()
	require.NoError(t, meterIdx.Load(context.Background(), &fakeMeterStore{locs: map[string][2]float64{}}))

	zones := spatial.NewZoneClassifier(nil, map[string]string{"downtown": "downtown", "soma": "commercial"})

	bundle := &model.Bundle{
		Occupancy:   &model.OccupancyModel{},
		Calibration: &model.CalibrationModel{},
		Turnover:    &model.TurnoverModel{},
		Version:     "test",
	}

	cfg := &config.Config{
		Confidence: config.ConfidenceConfig{
			WeightMeter: 0.25, WeightSpatial: 0.25, WeightRealtime: 0.25, WeightModel: 0.25,
			FreshSeconds: 60, StaleSeconds: 300, ProThreshold: 0.8, FreeThreshold: 0.6,
		},
	}

	predCache := cache.NewPredictionCache(time.Minute, 100)

	return New(cfg, spotIdx, garageIdx, meterIdx, zones, nil, fakeSignalReader{}, fakeSignRuleReader{}, bundle, predCache)
}

func TestEngine_Predict_ReturnsNearbySpotsAndGarages(t *testing.T) {
	eng := newTestEngine(t)
	resp, cacheHit := eng.Predict(context.Background(), models.PredictRequest{
		Latitude: 37.7749, Longitude: -122.4194, RadiusM: 500, Limit: 10, Tier: "free",
	})

	assert.False(t, cacheHit)
	assert.Len(t, resp.Spots, 2) // s1, s2 within radius; s3 is far away
	assert.Len(t, resp.Garages, 1)
	assert.Equal(t, "test", resp.Meta.ModelVersion)
}

func TestEngine_Predict_SecondCallIsCacheHit(t *testing.T) {
	eng := newTestEngine(t)
	req := models.PredictRequest{Latitude: 37.7749, Longitude: -122.4194, RadiusM: 500, Limit: 10, Tier: "free"}

	_, firstHit := eng.Predict(context.Background(), req)
	_, secondHit := eng.Predict(context.Background(), req)

	assert.False(t, firstHit)
	assert.True(t, secondHit)
}

func TestEngine_Predict_DefaultsRadiusAndLimit(t *testing.T) {
	eng := newTestEngine(t)
	resp, _ := eng.Predict(context.Background(), models.PredictRequest{Latitude: 37.7749, Longitude: -122.4194})
	assert.NotNil(t, resp.Spots)
}

func TestEngine_SpotByID_DelegatesToIndex(t *testing.T) {
	eng := newTestEngine(t)
	spot, ok := eng.SpotByID("s1")
	assert.True(t, ok)
	assert.Equal(t, "Main St", spot.Street)

	_, ok = eng.SpotByID("does-not-exist")
	assert.False(t, ok)
}

func TestEngine_NeighborhoodIDFor_IsStableAndDistinct(t *testing.T) {
	eng := newTestEngine(t)
	a := eng.neighborhoodIDFor("downtown")
	b := eng.neighborhoodIDFor("soma")
	aAgain := eng.neighborhoodIDFor("downtown")

	assert.NotEqual(t, a, b)
	assert.Equal(t, a, aAgain)
}

func TestExtractFloat_ValidPayload(t *testing.T) {
	v := extractFloat(`{"speed_ratio": 0.42}`, "speed_ratio", 1.0)
	assert.Equal(t, 0.42, v)
}

func TestExtractFloat_MissingKeyFallsBack(t *testing.T) {
	v := extractFloat(`{"other_key": 1}`, "speed_ratio", 0.75)
	assert.Equal(t, 0.75, v)
}

func TestExtractFloat_MalformedPayloadFallsBack(t *testing.T) {
	v := extractFloat(`not-json`, "speed_ratio", 0.9)
	assert.Equal(t, 0.9, v)
}
