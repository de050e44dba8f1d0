package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTurnoverModel_UnloadedUsesZoneBaseChurn(t *testing.T) {
	m := &TurnoverModel{}
	assert.False(t, m.IsLoaded())
	assert.Equal(t, 0.8, m.Predict(nil, 0.8))
}

func TestTurnoverModel_UnloadedStillFloors(t *testing.T) {
	m := &TurnoverModel{}
	assert.Equal(t, turnoverFloor, m.Predict(nil, 0.0))
}

func TestTurnoverModel_LoadedAppliesWeights(t *testing.T) {
	m := &TurnoverModel{artifact: &TurnoverArtifact{
		Weights:   map[string]float64{"x": 1.0},
		Intercept: 1.0,
	}}
	assert.InDelta(t, 3.0, m.Predict(map[string]float64{"x": 2.0}, 0.5), 0.0001)
}

func TestTurnoverModel_FloorsLowPrediction(t *testing.T) {
	m := &TurnoverModel{artifact: &TurnoverArtifact{
		Weights:   map[string]float64{"x": 0.0},
		Intercept: 0.0,
	}}
	assert.Equal(t, turnoverFloor, m.Predict(map[string]float64{"x": 2.0}, 0.5))
}
