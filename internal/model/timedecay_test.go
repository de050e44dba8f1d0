package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHalfLifeMinutes_CapsAtSixHundredMinutes(t *testing.T) {
	assert.Equal(t, 600.0, HalfLifeMinutes(0))
	assert.Equal(t, 60.0, HalfLifeMinutes(1))
}

func TestDecayFactor_AtHalfLifeIsOneHalf(t *testing.T) {
	assert.InDelta(t, 0.5, DecayFactor(30, 30), 0.001)
}

func TestDecayFactor_AtZeroAgeIsOne(t *testing.T) {
	assert.InDelta(t, 1.0, DecayFactor(0, 30), 0.0001)
}

func TestApplyDecay_ConvergesTowardUninformativePrior(t *testing.T) {
	decayed := ApplyDecay(0.9, 1000, 10)
	assert.InDelta(t, 0.5, decayed, 0.01)
}

func TestApplyDecay_NoAgeIsUnchanged(t *testing.T) {
	assert.InDelta(t, 0.9, ApplyDecay(0.9, 0, 10), 0.0001)
}

func TestIsStale(t *testing.T) {
	assert.False(t, IsStale(10, 10))
	assert.True(t, IsStale(21, 10))
}

func TestFutureConfidence_HasAllHorizons(t *testing.T) {
	out := FutureConfidence(0, 30)
	assert.Len(t, out, 4)
	assert.Contains(t, out, "1min")
	assert.Contains(t, out, "10min")
	assert.Greater(t, out["1min"], out["10min"])
}
