package model

import (
	"github.com/curbwatch/prediction-engine/internal/features"
)

// Bundle groups the three loadable model artifacts and the model version
// string reported in responses.
type Bundle struct {
	Occupancy   *OccupancyModel
	Calibration *CalibrationModel
	Turnover    *TurnoverModel
	Version     string
}

// IsLoaded reports whether the occupancy classifier — the one component
// with no reasonable runtime fallback — has been loaded. Calibration and
// turnover both degrade gracefully (identity transform, zone base churn).
func (b *Bundle) IsLoaded() bool {
	return b != nil && b.Occupancy.IsLoaded()
}

// Prediction is the full result of scoring one candidate spot, carrying
// every intermediate value the confidence and time-decay detail responses
// need.
type Prediction struct {
	PFree             float64
	RawOccupancy      float64
	Calibrated        float64
	TransferAdjusted  float64
	TurnoverRate      float64
	HalfLifeMinutes   float64
	DecayFactor       float64
	IsStale           bool
	FutureConfidence  map[string]float64
	Confidence        float64
	ConfidenceDetail  ConfidenceWeights
	MeterQuality      float64
	SpatialQuality    float64
	RealtimeQuality   float64
	ModelCertainty    float64
	GuaranteeLevel    string
}

// ScoreInputs bundles everything PredictSpot needs for one candidate.
type ScoreInputs struct {
	FeatureVec          map[string]float64
	Zone                string
	TransferMultiplier  float64
	ZoneBaseChurn       float64
	SignalAgeSeconds    float64
	HasRealtimeSignal   bool
	MeterSampleCount    int
	HasMeter            bool
	HasNeighborhood     bool
	HasZone             bool
	FreshSeconds        float64
	StaleSeconds        float64
	Tier                string
	ProThreshold        float64
	FreeThreshold       float64
	PredictionAgeMinutes float64
	Weights             ConfidenceWeights
}

// PredictSpot runs the full chain: occupancy classifier -> Platt
// calibration -> transfer adjustment -> turnover regressor -> time decay ->
// multi-source confidence scoring. Every stage degrades independently when
// its backing artifact hasn't been loaded, so the ensemble always returns a
// usable, if lower-confidence, prediction.
func (b *Bundle) PredictSpot(in ScoreInputs) Prediction {
	rawOccupancy := b.Occupancy.Predict(in.FeatureVec)
	rawPFree := 1 - rawOccupancy

	calibrated := b.Calibration.Calibrate(rawPFree, in.Zone)
	transferAdjusted := AdjustForTransfer(calibrated, in.TransferMultiplier)

	turnoverRate := b.Turnover.Predict(in.FeatureVec, in.ZoneBaseChurn)
	halfLife := HalfLifeMinutes(turnoverRate)
	decayed := ApplyDecay(transferAdjusted, in.PredictionAgeMinutes, halfLife)
	decayFactor := DecayFactor(in.PredictionAgeMinutes, halfLife)
	stale := IsStale(in.PredictionAgeMinutes, halfLife)
	future := FutureConfidence(in.PredictionAgeMinutes, halfLife)

	meterQ := MeterDataQuality(in.MeterSampleCount)
	spatialQ := SpatialDataQuality(in.HasMeter, in.HasNeighborhood, in.HasZone)
	realtimeQ := RealtimeFreshness(in.SignalAgeSeconds, in.FreshSeconds, in.StaleSeconds, in.HasRealtimeSignal)
	certainty := ModelCertainty(decayed)

	overall := ComputeConfidence(meterQ, spatialQ, realtimeQ, certainty, in.Weights)
	guarantee := GuaranteeLevel(overall, in.Tier, in.ProThreshold, in.FreeThreshold)

	return Prediction{
		PFree:            decayed,
		RawOccupancy:     rawOccupancy,
		Calibrated:       calibrated,
		TransferAdjusted: transferAdjusted,
		TurnoverRate:     turnoverRate,
		HalfLifeMinutes:  halfLife,
		DecayFactor:      decayFactor,
		IsStale:          stale,
		FutureConfidence: future,
		Confidence:       overall,
		ConfidenceDetail: in.Weights,
		MeterQuality:     meterQ,
		SpatialQuality:   spatialQ,
		RealtimeQuality:  realtimeQ,
		ModelCertainty:   certainty,
		GuaranteeLevel:   guarantee,
	}
}

// ComputeFeatures is a convenience wrapper so callers can build a feature
// vector and immediately score it without importing the features package
// directly in every call site.
func ComputeFeatures(in features.AssembleInputs) map[string]float64 {
	return features.Assemble(in)
}
