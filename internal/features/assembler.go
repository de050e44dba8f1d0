package features

import "time"

// AssembleInputs bundles everything the six feature families need to score
// a single candidate spot at a point in time.
type AssembleInputs struct {
	Now            time.Time
	Spatial        SpatialInputs
	MeterID        string
	PatternLookup  PatternLookup
	SweepingSchedule string
	SignRules      SignRuleInputs
	Realtime       RealtimeInputs
}

// Assemble merges the six feature families into a single feature vector,
// keyed by feature name. NaN-valued inputs are tolerated by each family's
// Compute function rather than rejected here, so a partially-available
// candidate (no meter, no nearby signs, stale signals) still yields a
// complete, scoreable vector.
func Assemble(in AssembleInputs) map[string]float64 {
	out := make(map[string]float64, 48)

	merge(out, ComputeTemporal(in.Now))
	merge(out, ComputeSpatial(in.Spatial))
	merge(out, ComputeMeterPatterns(in.PatternLookup, in.MeterID, in.Now))
	merge(out, ComputeSweeping(in.SweepingSchedule, in.Now))
	merge(out, ComputeSignRules(in.SignRules))
	merge(out, ComputeRealtime(in.Realtime))

	return out
}

func merge(dst, src map[string]float64) {
	for k, v := range src {
		dst[k] = v
	}
}
