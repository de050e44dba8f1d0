package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBundle_IsLoaded_RequiresOccupancy(t *testing.T) {
	loaded := &Bundle{Occupancy: &OccupancyModel{artifact: &OccupancyArtifact{}}}
	assert.True(t, loaded.IsLoaded())

	unloaded := &Bundle{Occupancy: &OccupancyModel{}}
	assert.False(t, unloaded.IsLoaded())
}

func TestBundle_PredictSpot_DegradesGracefullyWithNoArtifacts(t *testing.T) {
	b := &Bundle{
		Occupancy:   &OccupancyModel{},
		Calibration: &CalibrationModel{},
		Turnover:    &TurnoverModel{},
		Version:     "test",
	}
	pred := b.PredictSpot(ScoreInputs{
		FeatureVec:         map[string]float64{},
		Zone:               "residential",
		TransferMultiplier: 1.2,
		ZoneBaseChurn:      0.5,
		FreshSeconds:       60,
		StaleSeconds:       300,
		Tier:               "free",
		ProThreshold:       0.8,
		FreeThreshold:      0.6,
		Weights:            ConfidenceWeights{Meter: 1, Spatial: 1, Realtime: 1, Model: 1},
	})

	// raw occupancy defaults to 0.5 -> p_free 0.5, unchanged by identity
	// calibration, then shifted by the transfer multiplier.
	assert.Greater(t, pred.PFree, 0.5)
	assert.Equal(t, 0.5, pred.TurnoverRate) // unloaded turnover falls back to ZoneBaseChurn
	assert.NotEmpty(t, pred.GuaranteeLevel)
	assert.Len(t, pred.FutureConfidence, 4)
}

func TestBundle_PredictSpot_HigherMeterSamplesRaiseConfidence(t *testing.T) {
	b := &Bundle{
		Occupancy:   &OccupancyModel{},
		Calibration: &CalibrationModel{},
		Turnover:    &TurnoverModel{},
	}
	base := ScoreInputs{
		FeatureVec:         map[string]float64{},
		TransferMultiplier: 1.0,
		ZoneBaseChurn:      0.5,
		FreshSeconds:       60,
		StaleSeconds:       300,
		FreeThreshold:      0.6,
		Weights:            ConfidenceWeights{Meter: 1},
	}
	low := base
	low.MeterSampleCount = 0
	high := base
	high.MeterSampleCount = 200

	lowPred := b.PredictSpot(low)
	highPred := b.PredictSpot(high)
	assert.Greater(t, highPred.Confidence, lowPred.Confidence)
}
