package feature

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"sort"
)

// Encoder is the fitted columnar feature transformer: standardized
// numerical columns followed by one-hot encoded categorical columns.
// The output dimension is fixed once fitted and identical across every
// transform call. Read-only after fitting, safe for concurrent use.
type Encoder struct {
	NumericalFeatures   []string `json:"numerical_features"`
	CategoricalFeatures []string `json:"categorical_features"`

	// Means and Stds are aligned with NumericalFeatures. Zero-variance
	// columns store a scale of 1 so they pass through centered.
	Means []float64 `json:"means"`
	Stds  []float64 `json:"stds"`

	// Categories holds the fitted vocabulary per categorical feature,
	// sorted, one output column per value.
	Categories map[string][]string `json:"categories"`
}

// Fit learns column statistics and categorical vocabularies from a
// representative corpus. Invoked once, offline.
func Fit(rows []Row, numerical, categorical []string) (*Encoder, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("cannot fit encoder on an empty corpus")
	}

	e := &Encoder{
		NumericalFeatures:   append([]string(nil), numerical...),
		CategoricalFeatures: append([]string(nil), categorical...),
		Means:               make([]float64, len(numerical)),
		Stds:                make([]float64, len(numerical)),
		Categories:          make(map[string][]string, len(categorical)),
	}

	n := float64(len(rows))
	for i, name := range numerical {
		var sum float64
		for _, row := range rows {
			v, ok := row.Numerical[name]
			if !ok {
				return nil, fmt.Errorf("numerical column %q missing from fit corpus", name)
			}
			sum += v
		}
		mean := sum / n

		var sqSum float64
		for _, row := range rows {
			d := row.Numerical[name] - mean
			sqSum += d * d
		}
		std := math.Sqrt(sqSum / n)
		if std == 0 {
			std = 1
		}
		e.Means[i] = mean
		e.Stds[i] = std
	}

	for _, name := range categorical {
		seen := make(map[string]struct{})
		for _, row := range rows {
			v, ok := row.Categorical[name]
			if !ok {
				return nil, fmt.Errorf("categorical column %q missing from fit corpus", name)
			}
			seen[v] = struct{}{}
		}
		values := make([]string, 0, len(seen))
		for v := range seen {
			values = append(values, v)
		}
		sort.Strings(values)
		e.Categories[name] = values
	}

	return e, nil
}

// Dim returns the fixed output dimension D.
func (e *Encoder) Dim() int {
	dim := len(e.NumericalFeatures)
	for _, name := range e.CategoricalFeatures {
		dim += len(e.Categories[name])
	}
	return dim
}

// Transform maps rows onto an R x D matrix using the fitted state.
func (e *Encoder) Transform(rows []Row) ([][]float64, error) {
	out := make([][]float64, len(rows))
	for i, row := range rows {
		vec, err := e.TransformOne(row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		out[i] = vec
	}
	return out, nil
}

// TransformOne encodes a single row. A missing column is an alignment
// error; an unseen categorical value is not — it encodes as all zeros
// for that feature's columns so serving never fails on novel values.
func (e *Encoder) TransformOne(row Row) ([]float64, error) {
	vec := make([]float64, 0, e.Dim())

	for i, name := range e.NumericalFeatures {
		v, ok := row.Numerical[name]
		if !ok {
			return nil, fmt.Errorf("numerical column %q missing", name)
		}
		vec = append(vec, (v-e.Means[i])/e.Stds[i])
	}

	for _, name := range e.CategoricalFeatures {
		v, ok := row.Categorical[name]
		if !ok {
			return nil, fmt.Errorf("categorical column %q missing", name)
		}
		values := e.Categories[name]
		oneHot := make([]float64, len(values))
		for j, known := range values {
			if v == known {
				oneHot[j] = 1
				break
			}
		}
		vec = append(vec, oneHot...)
	}

	return vec, nil
}

// Save writes the fitted state to disk as JSON.
func (e *Encoder) Save(path string) error {
	data, err := json.MarshalIndent(e, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal encoder: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write encoder: %w", err)
	}
	return nil
}

// LoadEncoder reads a fitted encoder asset from disk.
func LoadEncoder(path string) (*Encoder, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read encoder: %w", err)
	}
	var e Encoder
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("failed to parse encoder %s: %w", path, err)
	}
	if len(e.Means) != len(e.NumericalFeatures) || len(e.Stds) != len(e.NumericalFeatures) {
		return nil, fmt.Errorf("encoder %s: numerical statistics misaligned", path)
	}
	for _, name := range e.CategoricalFeatures {
		if _, ok := e.Categories[name]; !ok {
			return nil, fmt.Errorf("encoder %s: no fitted vocabulary for %q", path, name)
		}
	}
	return &e, nil
}
