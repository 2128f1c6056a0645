package feature

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
)

// TargetScaler is the fit-once transform/inverse-transform pair that
// normalizes the risk score for model training and de-normalizes
// predictions back to the original [0,1] scale.
type TargetScaler struct {
	Mean float64 `json:"mean"`
	Std  float64 `json:"std"`
}

// FitTargetScaler learns the score distribution from the corpus.
func FitTargetScaler(scores []float64) (*TargetScaler, error) {
	if len(scores) == 0 {
		return nil, fmt.Errorf("cannot fit target scaler on an empty corpus")
	}

	n := float64(len(scores))
	var sum float64
	for _, s := range scores {
		sum += s
	}
	mean := sum / n

	var sqSum float64
	for _, s := range scores {
		d := s - mean
		sqSum += d * d
	}
	std := math.Sqrt(sqSum / n)
	if std == 0 {
		std = 1
	}

	return &TargetScaler{Mean: mean, Std: std}, nil
}

// Transform normalizes a raw score.
func (s *TargetScaler) Transform(score float64) float64 {
	return (score - s.Mean) / s.Std
}

// Inverse maps a normalized model output back to the original scale.
func (s *TargetScaler) Inverse(scaled float64) float64 {
	return scaled*s.Std + s.Mean
}

// Save writes the fitted state to disk as JSON.
func (s *TargetScaler) Save(path string) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal target scaler: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write target scaler: %w", err)
	}
	return nil
}

// LoadTargetScaler reads a fitted target scaler asset from disk.
func LoadTargetScaler(path string) (*TargetScaler, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read target scaler: %w", err)
	}
	var s TargetScaler
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse target scaler %s: %w", path, err)
	}
	if s.Std == 0 {
		return nil, fmt.Errorf("target scaler %s: zero scale", path)
	}
	return &s, nil
}
