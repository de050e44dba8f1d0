package model

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOccupancyModel_UnloadedReturnsUninformativePrior(t *testing.T) {
	m := &OccupancyModel{}
	assert.False(t, m.IsLoaded())
	assert.Equal(t, 0.5, m.Predict(map[string]float64{"foo": 1}))
}

func TestOccupancyModel_NilReceiverIsUnloaded(t *testing.T) {
	var m *OccupancyModel
	assert.False(t, m.IsLoaded())
}

func TestOccupancyModel_Predict_AppliesWeightsAndIntercept(t *testing.T) {
	m := &OccupancyModel{artifact: &OccupancyArtifact{
		FeatureCols: []string{"a", "b"},
		Weights:     map[string]float64{"a": 2.0, "b": -1.0},
		Intercept:   0.0,
	}}
	assert.True(t, m.IsLoaded())

	// a=0, b=0 -> z=0 -> sigmoid(0)=0.5
	assert.InDelta(t, 0.5, m.Predict(map[string]float64{"a": 0, "b": 0}), 0.0001)

	// large positive z saturates toward 1
	assert.Greater(t, m.Predict(map[string]float64{"a": 10, "b": 0}), 0.99)
}

func TestOccupancyModel_Predict_IgnoresMissingAndNaNFeatures(t *testing.T) {
	m := &OccupancyModel{artifact: &OccupancyArtifact{
		Weights:   map[string]float64{"a": 5.0, "b": 5.0},
		Intercept: 0.0,
	}}
	withoutB := m.Predict(map[string]float64{"a": 0})
	withNaNB := m.Predict(map[string]float64{"a": 0, "b": math.NaN()})
	assert.InDelta(t, withoutB, withNaNB, 0.0001)
}

func TestOccupancyModel_FeatureColumns(t *testing.T) {
	m := &OccupancyModel{artifact: &OccupancyArtifact{FeatureCols: []string{"x", "y"}}}
	assert.Equal(t, []string{"x", "y"}, m.FeatureColumns())

	unloaded := &OccupancyModel{}
	assert.Nil(t, unloaded.FeatureColumns())
}
