package features

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeSignRules_UnknownCurbColorDefaultsToNone(t *testing.T) {
	feat := ComputeSignRules(SignRuleInputs{CurbColor: "purple"})
	assert.Equal(t, float64(CurbColorIDs["none"]), feat["curb_color_id"])
}

func TestComputeSignRules_KnownCurbColor(t *testing.T) {
	feat := ComputeSignRules(SignRuleInputs{CurbColor: "Red"})
	assert.Equal(t, float64(CurbColorIDs["red"]), feat["curb_color_id"])
}

func TestComputeSignRules_ParsesTimeLimitFromSignText(t *testing.T) {
	feat := ComputeSignRules(SignRuleInputs{PostedSignText: "2 HR PARKING 8AM-6PM"})
	assert.Equal(t, 120.0, feat["time_limit_minutes"])
}

func TestComputeSignRules_NoTimeLimitSentinel(t *testing.T) {
	feat := ComputeSignRules(SignRuleInputs{PostedSignText: "NO PARKING ANY TIME"})
	assert.Equal(t, -1.0, feat["time_limit_minutes"])
}

func TestComputeSignRules_CountsAndOverrideFlag(t *testing.T) {
	feat := ComputeSignRules(SignRuleInputs{
		NoParkingSignsNearby:  2,
		TimeLimitSignsNearby:  1,
		HasRegulationOverride: true,
	})
	assert.Equal(t, 2.0, feat["no_parking_signs_nearby"])
	assert.Equal(t, 1.0, feat["time_limit_signs_nearby"])
	assert.Equal(t, 1.0, feat["has_regulation_override"])
}

func TestIsNoParkingSignType(t *testing.T) {
	assert.True(t, IsNoParkingSignType("tow_away"))
	assert.True(t, IsNoParkingSignType("STREET_CLEANING"))
	assert.False(t, IsNoParkingSignType("2hr_limit"))
}

func TestIsTimeLimitSignType(t *testing.T) {
	assert.True(t, IsTimeLimitSignType("2hr_limit"))
	assert.False(t, IsTimeLimitSignType("tow_away"))
}
