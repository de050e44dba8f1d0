package model

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
)

// plattParams is a single Platt-scaling pair (a, b) such that
// p' = 1 / (1 + exp(a*logit(p) + b)).
type plattParams struct {
	A float64 `json:"a"`
	B float64 `json:"b"`
}

// CalibrationArtifact holds per-zone Platt parameters plus a global
// fallback, matching the original joblib bundle's {per_zone, global} shape.
type CalibrationArtifact struct {
	PerZone map[string]plattParams `json:"per_zone"`
	Global  plattParams            `json:"global"`
}

// CalibrationModel applies Platt scaling to raw occupancy scores.
type CalibrationModel struct {
	artifact *CalibrationArtifact
}

// LoadCalibrationModel reads the calibration artifact from path.
func LoadCalibrationModel(path string) (*CalibrationModel, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("calibrationModel: read %s: %w", path, err)
	}
	var artifact CalibrationArtifact
	if err := json.Unmarshal(raw, &artifact); err != nil {
		return nil, fmt.Errorf("calibrationModel: decode %s: %w", path, err)
	}
	return &CalibrationModel{artifact: &artifact}, nil
}

// IsLoaded reports whether calibration parameters are available.
func (c *CalibrationModel) IsLoaded() bool {
	return c != nil && c.artifact != nil
}

func logit(p float64) float64 {
	return math.Log(p / (1 - p))
}

func plattTransform(p float64, params plattParams) float64 {
	clipped := math.Min(math.Max(p, 0.001), 0.999)
	return 1.0 / (1.0 + math.Exp(params.A*logit(clipped)+params.B))
}

// Calibrate applies per-zone calibration if available, falling back to the
// global parameters, then to the identity transform if calibration was
// never loaded.
func (c *CalibrationModel) Calibrate(rawP float64, zone string) float64 {
	if !c.IsLoaded() {
		return rawP
	}
	if params, ok := c.artifact.PerZone[zone]; ok {
		return plattTransform(rawP, params)
	}
	if c.artifact.Global != (plattParams{}) {
		return plattTransform(rawP, c.artifact.Global)
	}
	return rawP
}
