package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"access-risk-service/internal/config"
	"access-risk-service/internal/model"
)

func TestScore(t *testing.T) {
	tests := []struct {
		name    string
		flags   model.RiskFlags
		weights map[string]float64
		want    float64
	}{
		{
			name:    "no flags scores zero",
			flags:   model.RiskFlags{},
			weights: config.DefaultRiskWeights,
			want:    0.0,
		},
		{
			name:    "ip change plus time anomaly",
			flags:   model.RiskFlags{IPChange: 1, TimeAnomaly: 1},
			weights: config.DefaultRiskWeights,
			want:    0.60,
		},
		{
			name: "all flags sum to one",
			flags: model.RiskFlags{
				IPChange: 1, TimeAnomaly: 1, MFAChange: 1, BrowserOSChange: 1,
				ApplicationChange: 1, UnitChange: 1, TitleMismatch: 1,
			},
			weights: config.DefaultRiskWeights,
			want:    1.0,
		},
		{
			name:    "flag without weight entry contributes zero",
			flags:   model.RiskFlags{IPChange: 1, UnitChange: 1},
			weights: map[string]float64{"ip_change": 0.35},
			want:    0.35,
		},
		{
			name:  "weight entries without flags are ignored",
			flags: model.RiskFlags{MFAChange: 1},
			weights: map[string]float64{
				"mfa_change":     0.15,
				"unknown_signal": 0.50,
			},
			want: 0.15,
		},
		{
			name:    "empty weight table scores zero",
			flags:   model.RiskFlags{IPChange: 1, TimeAnomaly: 1},
			weights: map[string]float64{},
			want:    0.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Score(tt.flags, tt.weights), 1e-12)
		})
	}
}
