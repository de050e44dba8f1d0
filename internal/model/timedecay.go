package model

import "math"

// ln2 is used repeatedly when converting between half-life and decay rate.
const ln2 = 0.693147

// HalfLifeMinutes returns the exponential half-life, in minutes, implied by
// a turnover rate: faster-churning zones have shorter half-lives.
func HalfLifeMinutes(turnoverRate float64) float64 {
	return 60.0 / math.Max(0.1, turnoverRate)
}

// DecayFactor returns the fraction of a prediction's informativeness
// remaining after ageMinutes have elapsed, given its half-life.
func DecayFactor(ageMinutes, halfLifeMinutes float64) float64 {
	return math.Exp(-ln2 * ageMinutes / halfLifeMinutes)
}

// ApplyDecay exponentially decays a stale prediction toward the
// uninformative prior (0.5) as it ages.
func ApplyDecay(p, ageMinutes, halfLifeMinutes float64) float64 {
	factor := DecayFactor(ageMinutes, halfLifeMinutes)
	return 0.5 + (p-0.5)*factor
}

// IsStale reports whether a prediction's age exceeds two half-lives, the
// point past which it carries less than 25% of its original signal.
func IsStale(ageMinutes, halfLifeMinutes float64) bool {
	return ageMinutes > 2*halfLifeMinutes
}

// FutureConfidence projects the decay factor at several near-future
// horizons, so callers can show "how long will this still be reliable".
func FutureConfidence(currentAgeMinutes, halfLifeMinutes float64) map[string]float64 {
	horizons := map[string]float64{
		"1min":  1,
		"3min":  3,
		"5min":  5,
		"10min": 10,
	}
	out := make(map[string]float64, len(horizons))
	for label, h := range horizons {
		out[label] = DecayFactor(currentAgeMinutes+h, halfLifeMinutes)
	}
	return out
}
