package assets_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"access-risk-service/internal/assets"
	"access-risk-service/internal/config"
	"access-risk-service/internal/corpus"
	"access-risk-service/internal/feature"
)

func buildTestAssets(t *testing.T) string {
	t.Helper()

	cfg := &config.Config{
		Risk: config.RiskConfig{
			SequenceLength: 5,
			Weights:        config.DefaultRiskWeights,
		},
		Enums: config.EnumConfig{
			MFAMethods:   []string{"SMS_OTP", "Email_OTP", "App_Auth"},
			Applications: []string{"AppA", "AppB"},
			Browsers:     []string{"Chrome", "Firefox"},
			OSes:         []string{"Windows", "macOS"},
			Units:        []string{"HR", "Engineering"},
			Titles:       []string{"Manager", "Analyst"},
		},
	}

	dir := t.TempDir()
	opts := corpus.Options{Users: 5, EntriesPerUser: 10, RiskRate: 0.15, Seed: 42}
	g := corpus.NewGenerator(cfg, opts, zap.NewNop())
	profiles, events := g.Generate()
	events = corpus.Enrich(events, profiles, cfg.Risk.Weights, zap.NewNop())
	require.NoError(t, corpus.BuildAssets(dir, profiles, events, zap.NewNop()))
	return dir
}

func TestLoadRoundTrip(t *testing.T) {
	dir := buildTestAssets(t)

	b, err := assets.Load(dir, zap.NewNop())
	require.NoError(t, err)

	assert.Equal(t, 5, b.Profiles.Len())
	assert.Len(t, b.Corpus, 50)
	assert.Equal(t, feature.NumericalColumns(), b.NumericalFeatures)
	assert.Equal(t, feature.CategoricalColumns(), b.CategoricalFeatures)
	assert.Greater(t, b.Encoder.Dim(), len(b.NumericalFeatures))
	assert.NotZero(t, b.TargetScaler.Std)

	// Loaded corpus events still carry their derived fields.
	for _, ev := range b.Corpus {
		assert.NotEmpty(t, ev.EventID)
		assert.NotEmpty(t, ev.UserID)
	}
}

func TestLoadMissingAssetFails(t *testing.T) {
	dir := buildTestAssets(t)
	require.NoError(t, os.Remove(filepath.Join(dir, assets.EncoderFile)))

	_, err := assets.Load(dir, zap.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), assets.EncoderFile)
}

func TestLoadEmptyDirFails(t *testing.T) {
	_, err := assets.Load(t.TempDir(), zap.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required asset")
}
