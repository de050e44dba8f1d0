package model

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalibrationModel_UnloadedIsIdentity(t *testing.T) {
	c := &CalibrationModel{}
	assert.False(t, c.IsLoaded())
	assert.Equal(t, 0.73, c.Calibrate(0.73, "residential"))
}

func TestCalibrationModel_PerZoneTakesPriority(t *testing.T) {
	c := &CalibrationModel{artifact: &CalibrationArtifact{
		PerZone: map[string]plattParams{"downtown": {A: 1, B: 0}},
		Global:  plattParams{A: 2, B: 0},
	}}
	perZone := c.Calibrate(0.6, "downtown")
	global := c.Calibrate(0.6, "unknown-zone")
	assert.NotEqual(t, perZone, global)
}

func TestCalibrationModel_FallsBackToGlobalForUnknownZone(t *testing.T) {
	c := &CalibrationModel{artifact: &CalibrationArtifact{
		PerZone: map[string]plattParams{"downtown": {A: 1, B: 0}},
		Global:  plattParams{A: 1, B: 0},
	}}
	assert.Equal(t, c.Calibrate(0.6, "downtown"), c.Calibrate(0.6, "somewhere-else"))
}

func TestCalibrationModel_IdentityWhenNoGlobalOrZoneParams(t *testing.T) {
	c := &CalibrationModel{artifact: &CalibrationArtifact{}}
	assert.Equal(t, 0.6, c.Calibrate(0.6, "anywhere"))
}

func TestLogit_IsInverseOfSigmoid(t *testing.T) {
	p := 0.73
	l := logit(p)
	sigmoid := 1.0 / (1.0 + math.Exp(-l))
	assert.InDelta(t, p, sigmoid, 0.0001)
}
