package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAdjustForTransfer_MultiplierAboveOneIncreasesP(t *testing.T) {
	adjusted := AdjustForTransfer(0.5, 1.5)
	assert.Greater(t, adjusted, 0.5)
}

func TestAdjustForTransfer_MultiplierBelowOneDecreasesP(t *testing.T) {
	adjusted := AdjustForTransfer(0.5, 0.5)
	assert.Less(t, adjusted, 0.5)
}

func TestAdjustForTransfer_InvalidMultiplierFallsBackToDefault(t *testing.T) {
	withDefault := AdjustForTransfer(0.5, defaultTransferMultiplier)
	withInvalid := AdjustForTransfer(0.5, -1)
	assert.Equal(t, withDefault, withInvalid)
}

func TestAdjustForTransfer_ClampsToRange(t *testing.T) {
	high := AdjustForTransfer(0.999, 100)
	low := AdjustForTransfer(0.001, 0.001)
	assert.LessOrEqual(t, high, 0.99)
	assert.GreaterOrEqual(t, low, 0.01)
}
