package model

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
)

// OccupancyArtifact is the on-disk representation of the occupancy
// classifier: a logistic-regression weight vector over named features plus
// an intercept. The engine treats this purely as an opaque scoring
// function — it never retrains or introspects the weights beyond applying
// them.
type OccupancyArtifact struct {
	FeatureCols []string           `json:"feature_cols"`
	Weights     map[string]float64 `json:"weights"`
	Intercept   float64            `json:"intercept"`
}

// OccupancyModel scores the probability a spot is occupied.
type OccupancyModel struct {
	artifact *OccupancyArtifact
}

// LoadOccupancyModel reads the artifact bundle from path. A missing or
// undecodable file is returned as an error; callers substitute an unloaded
// model and the ensemble falls back accordingly.
func LoadOccupancyModel(path string) (*OccupancyModel, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("occupancyModel: read %s: %w", path, err)
	}
	var artifact OccupancyArtifact
	if err := json.Unmarshal(raw, &artifact); err != nil {
		return nil, fmt.Errorf("occupancyModel: decode %s: %w", path, err)
	}
	return &OccupancyModel{artifact: &artifact}, nil
}

// IsLoaded reports whether a usable model is present.
func (m *OccupancyModel) IsLoaded() bool {
	return m != nil && m.artifact != nil
}

// FeatureColumns returns the ordered feature names the model expects.
func (m *OccupancyModel) FeatureColumns() []string {
	if !m.IsLoaded() {
		return nil
	}
	return m.artifact.FeatureCols
}

// Predict scores the probability of occupancy (1 - p_free) for a single
// feature vector. Missing or NaN feature values are treated as zero
// contribution, keeping scoring tolerant of partially-available features.
func (m *OccupancyModel) Predict(featureVec map[string]float64) float64 {
	if !m.IsLoaded() {
		return 0.5
	}
	z := m.artifact.Intercept
	for name, weight := range m.artifact.Weights {
		v, ok := featureVec[name]
		if !ok || math.IsNaN(v) {
			continue
		}
		z += weight * v
	}
	return 1.0 / (1.0 + math.Exp(-z))
}
