package features

import (
	"time"

	"github.com/curbwatch/prediction-engine/internal/models"
)

// PatternLookup resolves hourly occupancy patterns for a meter; the
// repository implements this against the meter_occupancy_hourly table.
type PatternLookup interface {
	OccupancyAt(meterID string, month, dayOfWeekMon0, hour int) (float64, int, bool)
}

func getOccupancy(lookup PatternLookup, meterID string, t time.Time) (float64, int, bool) {
	dow := models.GoToMonWeekday(t.Weekday())
	if ratio, samples, ok := lookup.OccupancyAt(meterID, int(t.Month()), dow, t.Hour()); ok {
		return ratio, samples, true
	}
	// all-month aggregate fallback (month=0 sentinel)
	return lookup.OccupancyAt(meterID, 0, dow, t.Hour())
}

func getPriorHourOccupancy(lookup PatternLookup, meterID string, t time.Time) (float64, bool) {
	priorHour := t.Hour() - 1
	priorTime := t
	if priorHour < 0 {
		priorHour = 23
		priorTime = time.Date(t.Year(), t.Month(), t.Day()-1, priorHour, 0, 0, 0, t.Location())
	} else {
		priorTime = time.Date(t.Year(), t.Month(), t.Day(), priorHour, 0, 0, 0, t.Location())
	}
	ratio, _, ok := getOccupancy(lookup, meterID, priorTime)
	return ratio, ok
}

// ComputeMeterPatterns returns the 7 meter-pattern features for the meter
// nearest the candidate spot, evaluated at time t. When meterID is empty
// (no meter within range) all features are zero-valued with the
// has_meter_data flag cleared.
func ComputeMeterPatterns(lookup PatternLookup, meterID string, t time.Time) map[string]float64 {
	if meterID == "" {
		return map[string]float64{
			"meter_occupancy_current":   0,
			"meter_occupancy_prior":     0,
			"meter_sample_count":        0,
			"meter_occupancy_trend":     0,
			"meter_occupancy_weekend":   0,
			"meter_occupancy_volatility": 0,
			"has_meter_data":            0,
		}
	}

	current, samples, hasCurrent := getOccupancy(lookup, meterID, t)
	prior, hasPrior := getPriorHourOccupancy(lookup, meterID, t)

	trend := 0.0
	if hasCurrent && hasPrior {
		trend = current - prior
	}

	weekendDow := models.GoToMonWeekday(time.Saturday)
	weekendRatio, _, hasWeekend := lookup.OccupancyAt(meterID, int(t.Month()), weekendDow, t.Hour())
	if !hasWeekend {
		weekendRatio = current
	}

	volatility := 0.0
	if hasCurrent {
		volatility = abs(current - 0.5)
	}

	hasData := 0.0
	if hasCurrent {
		hasData = 1
	}

	return map[string]float64{
		"meter_occupancy_current":    current,
		"meter_occupancy_prior":      prior,
		"meter_sample_count":         float64(samples),
		"meter_occupancy_trend":      trend,
		"meter_occupancy_weekend":    weekendRatio,
		"meter_occupancy_volatility": volatility,
		"has_meter_data":             hasData,
	}
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
