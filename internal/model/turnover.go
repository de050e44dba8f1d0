package model

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
)

// turnoverFloor is the minimum turnover rate the regressor will report,
// preventing a near-zero value from producing an unrealistically long
// time-decay half-life.
const turnoverFloor = 0.1

// TurnoverArtifact is the on-disk weight vector for the turnover regressor,
// predicting spots-per-hour churn.
type TurnoverArtifact struct {
	FeatureCols []string           `json:"feature_cols"`
	Weights     map[string]float64 `json:"weights"`
	Intercept   float64            `json:"intercept"`
}

// TurnoverModel predicts how quickly a spot's occupancy state churns.
type TurnoverModel struct {
	artifact *TurnoverArtifact
}

// LoadTurnoverModel reads the turnover artifact from path.
func LoadTurnoverModel(path string) (*TurnoverModel, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("turnoverModel: read %s: %w", path, err)
	}
	var artifact TurnoverArtifact
	if err := json.Unmarshal(raw, &artifact); err != nil {
		return nil, fmt.Errorf("turnoverModel: decode %s: %w", path, err)
	}
	return &TurnoverModel{artifact: &artifact}, nil
}

// IsLoaded reports whether a usable turnover model is present.
func (t *TurnoverModel) IsLoaded() bool {
	return t != nil && t.artifact != nil
}

// Predict estimates a zone's churn rate, falling back to the zone's base
// churn constant when no regressor has been loaded, and flooring the result
// at turnoverFloor either way.
func (t *TurnoverModel) Predict(featureVec map[string]float64, zoneBaseChurn float64) float64 {
	var raw float64
	if t.IsLoaded() {
		raw = t.artifact.Intercept
		for name, weight := range t.artifact.Weights {
			v, ok := featureVec[name]
			if !ok || math.IsNaN(v) {
				continue
			}
			raw += weight * v
		}
	} else {
		raw = zoneBaseChurn
	}
	return math.Max(raw, turnoverFloor)
}
