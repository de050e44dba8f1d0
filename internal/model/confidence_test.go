package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMeterDataQuality_SaturatesAt200Samples(t *testing.T) {
	assert.Equal(t, 0.0, MeterDataQuality(0))
	assert.InDelta(t, 0.5, MeterDataQuality(100), 0.001)
	assert.Equal(t, 1.0, MeterDataQuality(200))
	assert.Equal(t, 1.0, MeterDataQuality(500))
}

func TestSpatialDataQuality_AllComponents(t *testing.T) {
	assert.Equal(t, 0.0, SpatialDataQuality(false, false, false))
	assert.InDelta(t, 1.0, SpatialDataQuality(true, true, true), 0.0001)
	assert.InDelta(t, 0.4, SpatialDataQuality(true, false, false), 0.0001)
}

func TestRealtimeFreshness_NoSignalIsZero(t *testing.T) {
	assert.Equal(t, 0.0, RealtimeFreshness(10, 60, 300, false))
}

func TestRealtimeFreshness_FreshIsOne(t *testing.T) {
	assert.Equal(t, 1.0, RealtimeFreshness(30, 60, 300, true))
}

func TestRealtimeFreshness_StaleIsZero(t *testing.T) {
	assert.Equal(t, 0.0, RealtimeFreshness(600, 60, 300, true))
}

func TestRealtimeFreshness_InterpolatesBetween(t *testing.T) {
	v := RealtimeFreshness(180, 60, 300, true)
	assert.Greater(t, v, 0.0)
	assert.Less(t, v, 1.0)
}

func TestModelCertainty_IsInvertedByDesign(t *testing.T) {
	// At p=0.5 (maximally uncertain) the usual formula would be 0; inverted
	// here it's 1.
	assert.InDelta(t, 1.0, ModelCertainty(0.5), 0.0001)
	// At p=0 or p=1 (maximally certain) the usual formula would be 1;
	// inverted here it's 0.
	assert.InDelta(t, 0.0, ModelCertainty(1.0), 0.0001)
	assert.InDelta(t, 0.0, ModelCertainty(0.0), 0.0001)
}

func TestComputeConfidence_WeightedAverage(t *testing.T) {
	w := ConfidenceWeights{Meter: 1, Spatial: 1, Realtime: 1, Model: 1}
	c := ComputeConfidence(1.0, 0.0, 1.0, 0.0, w)
	assert.InDelta(t, 0.5, c, 0.0001)
}

func TestComputeConfidence_ZeroWeightsIsZero(t *testing.T) {
	w := ConfidenceWeights{}
	assert.Equal(t, 0.0, ComputeConfidence(1, 1, 1, 1, w))
}

func TestGuaranteeLevel_Tiers(t *testing.T) {
	assert.Equal(t, "high", GuaranteeLevel(0.9, "free", 0.8, 0.6))
	assert.Equal(t, "medium", GuaranteeLevel(0.4, "free", 0.8, 0.6))
	assert.Equal(t, "low", GuaranteeLevel(0.1, "free", 0.8, 0.6))
	assert.Equal(t, "high", GuaranteeLevel(0.85, "pro", 0.8, 0.6))
}
