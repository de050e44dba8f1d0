package model

import "math"

// defaultTransferMultiplier is used for zones with no configured multiplier.
const defaultTransferMultiplier = 1.20

// AdjustForTransfer shifts a calibrated probability in logit space by
// ln(multiplier), accounting for domain shift between the training
// population and a zone the occupancy model wasn't trained on. The result
// is clamped to [0.01, 0.99] to keep downstream logit operations finite.
func AdjustForTransfer(p, multiplier float64) float64 {
	if multiplier <= 0 {
		multiplier = defaultTransferMultiplier
	}
	clipped := math.Min(math.Max(p, 0.001), 0.999)
	shifted := logit(clipped) + math.Log(multiplier)
	adjusted := 1.0 / (1.0 + math.Exp(-shifted))
	return math.Min(math.Max(adjusted, 0.01), 0.99)
}
