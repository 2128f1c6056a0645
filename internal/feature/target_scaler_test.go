package feature

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFitTargetScaler(t *testing.T) {
	scaler, err := FitTargetScaler([]float64{0.0, 0.2, 0.4})
	require.NoError(t, err)

	assert.InDelta(t, 0.2, scaler.Mean, 1e-12)
	assert.InDelta(t, math.Sqrt(0.08/3.0), scaler.Std, 1e-12)
}

func TestFitTargetScalerEmpty(t *testing.T) {
	_, err := FitTargetScaler(nil)
	assert.Error(t, err)
}

func TestFitTargetScalerZeroVariance(t *testing.T) {
	scaler, err := FitTargetScaler([]float64{0.3, 0.3, 0.3})
	require.NoError(t, err)
	assert.Equal(t, 1.0, scaler.Std)
	assert.InDelta(t, 0.0, scaler.Transform(0.3), 1e-12)
}

func TestTransformInverseRoundTrip(t *testing.T) {
	scaler, err := FitTargetScaler([]float64{0.0, 0.25, 0.5, 0.75, 1.0})
	require.NoError(t, err)

	for _, score := range []float64{0.0, 0.1, 0.35, 0.6, 1.0} {
		assert.InDelta(t, score, scaler.Inverse(scaler.Transform(score)), 1e-12)
	}
}

func TestTargetScalerSaveLoad(t *testing.T) {
	scaler := &TargetScaler{Mean: 0.18, Std: 0.07}
	path := filepath.Join(t.TempDir(), "target_scaler.json")
	require.NoError(t, scaler.Save(path))

	loaded, err := LoadTargetScaler(path)
	require.NoError(t, err)
	assert.Equal(t, scaler, loaded)
}

func TestLoadTargetScalerRejectsZeroScale(t *testing.T) {
	path := filepath.Join(t.TempDir(), "target_scaler.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"mean":0.2,"std":0}`), 0o644))

	_, err := LoadTargetScaler(path)
	assert.Error(t, err)
}
