package model

import "math"

// ConfidenceWeights mirrors the config-driven weighted sum used to combine
// the four confidence components into an overall score.
type ConfidenceWeights struct {
	Meter    float64
	Spatial  float64
	Realtime float64
	Model    float64
}

// MeterDataQuality scores how much historical occupancy evidence backs a
// prediction, saturating once a meter has accumulated a healthy sample size.
func MeterDataQuality(sampleCount int) float64 {
	const saturationSamples = 200.0
	return math.Min(float64(sampleCount)/saturationSamples, 1.0)
}

// SpatialDataQuality weights three independent spatial-completeness signals:
// whether a meter was found nearby, whether a neighborhood classification
// succeeded, and whether a zone type was resolved (vs. the "mixed" default).
func SpatialDataQuality(hasMeter, hasNeighborhood, hasZone bool) float64 {
	score := 0.0
	if hasMeter {
		score += 0.4
	}
	if hasNeighborhood {
		score += 0.3
	}
	if hasZone {
		score += 0.3
	}
	return score
}

// RealtimeFreshness linearly interpolates between "fully fresh" (age <=
// freshSeconds) and "fully stale" (age >= staleSeconds) real-time signal
// age, returning 0 when no real-time signal exists at all.
func RealtimeFreshness(ageSeconds, freshSeconds, staleSeconds float64, hasSignal bool) float64 {
	if !hasSignal {
		return 0
	}
	if ageSeconds <= freshSeconds {
		return 1
	}
	if ageSeconds >= staleSeconds {
		return 0
	}
	span := staleSeconds - freshSeconds
	if span <= 0 {
		return 0
	}
	return 1 - (ageSeconds-freshSeconds)/span
}

// ModelCertainty is intentionally the inverse of the usual
// distance-from-uninformative-prior formula (2*|p-0.5| would normally
// express "certainty"; this returns its complement).
func ModelCertainty(p float64) float64 {
	return 1 - 2*math.Abs(p-0.5)
}

// ComputeConfidence combines the four components into a single weighted
// score in [0, 1], normalizing by the configured weight sum so
// misconfigured weights (not summing to 1) don't silently bias the result.
func ComputeConfidence(meterQ, spatialQ, realtimeQ, modelCertainty float64, w ConfidenceWeights) float64 {
	sum := w.Meter + w.Spatial + w.Realtime + w.Model
	if sum <= 0 {
		return 0
	}
	weighted := w.Meter*meterQ + w.Spatial*spatialQ + w.Realtime*realtimeQ + w.Model*modelCertainty
	return weighted / sum
}

// GuaranteeLevel maps an overall confidence score and account tier to a
// human-facing reliability tier.
func GuaranteeLevel(confidence float64, tier string, proThreshold, freeThreshold float64) string {
	threshold := freeThreshold
	if tier == "pro" {
		threshold = proThreshold
	}
	switch {
	case confidence >= threshold:
		return "high"
	case confidence >= threshold*0.5:
		return "medium"
	default:
		return "low"
	}
}
