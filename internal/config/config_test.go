package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, 5, cfg.Risk.SequenceLength)
	assert.Equal(t, 0.50, cfg.Risk.HighRiskThreshold)
	assert.Equal(t, DefaultRiskWeights, cfg.Risk.Weights)
	assert.Equal(t, "output", cfg.Assets.Dir)
	assert.Equal(t, ":8080", cfg.GetServerAddress())
	assert.True(t, cfg.IsDevelopment())
	assert.False(t, cfg.IsProduction())

	assert.Len(t, cfg.Enums.MFAMethods, 4)
	assert.Len(t, cfg.Enums.OSes, 5)
	assert.Equal(t, 10*time.Second, cfg.Model.Timeout)
}

func TestDefaultRiskWeightsSumToOne(t *testing.T) {
	var sum float64
	for _, w := range DefaultRiskWeights {
		sum += w
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			Risk: RiskConfig{
				SequenceLength: 5,
				Weights:        copyWeights(DefaultRiskWeights),
			},
		}
	}

	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, base().Validate())
	})

	t.Run("sequence length below one", func(t *testing.T) {
		cfg := base()
		cfg.Risk.SequenceLength = 0
		assert.Error(t, cfg.Validate())
	})

	t.Run("weights not summing to one", func(t *testing.T) {
		cfg := base()
		cfg.Risk.Weights["ip_change"] = 0.50
		assert.Error(t, cfg.Validate())
	})

	t.Run("negative weight", func(t *testing.T) {
		cfg := base()
		cfg.Risk.Weights["ip_change"] = -0.35
		cfg.Risk.Weights["time_anomaly"] = 0.95
		assert.Error(t, cfg.Validate())
	})
}

func TestParseWeights(t *testing.T) {
	t.Run("empty spec falls back to defaults", func(t *testing.T) {
		assert.Equal(t, DefaultRiskWeights, parseWeights(""))
	})

	t.Run("explicit spec parsed", func(t *testing.T) {
		got := parseWeights("ip_change=0.5,time_anomaly=0.5")
		assert.Equal(t, map[string]float64{"ip_change": 0.5, "time_anomaly": 0.5}, got)
	})

	t.Run("malformed spec falls back to defaults", func(t *testing.T) {
		assert.Equal(t, DefaultRiskWeights, parseWeights("ip_change=abc"))
		assert.Equal(t, DefaultRiskWeights, parseWeights("ip_change"))
	})

	t.Run("defaults are copied not shared", func(t *testing.T) {
		got := parseWeights("")
		got["ip_change"] = 0.99
		assert.Equal(t, 0.35, DefaultRiskWeights["ip_change"])
	})
}
