package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIPBlock(t *testing.T) {
	tests := []struct {
		ip   string
		want string
	}{
		{"203.0.113.42", "203.0.113."},
		{"203.0.113.1", "203.0.113."},
		{"10.0.0.255", "10.0.0."},
		{"1.2", "1."},
		{"localhost", "localhost"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equalf(t, tt.want, IPBlock(tt.ip), "ip %q", tt.ip)
	}
}

func TestRiskFlagsValueSetRoundTrip(t *testing.T) {
	var flags RiskFlags
	for _, name := range FlagNames {
		assert.Equal(t, 0, flags.Value(name))
		flags.Set(name, 1)
		assert.Equalf(t, 1, flags.Value(name), "flag %s", name)
	}

	// Unknown names are ignored on both paths.
	flags.Set("not_a_flag", 1)
	assert.Equal(t, 0, flags.Value("not_a_flag"))
}

func TestSequenceWindowShape(t *testing.T) {
	w := SequenceWindow{
		Rows: [][]float64{
			make([]float64, 12),
			make([]float64, 12),
			make([]float64, 12),
		},
		Populated: 2,
	}
	assert.Equal(t, 3, w.Len())
	assert.Equal(t, 12, w.Dim())

	var empty SequenceWindow
	assert.Equal(t, 0, empty.Len())
	assert.Equal(t, 0, empty.Dim())
}
