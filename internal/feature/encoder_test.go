package feature

import (
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"access-risk-service/internal/model"
)

func fitRows() []Row {
	return []Row{
		{
			Numerical:   map[string]float64{"hour": 10, "score": 0.2},
			Categorical: map[string]string{"browser": "Chrome"},
		},
		{
			Numerical:   map[string]float64{"hour": 14, "score": 0.2},
			Categorical: map[string]string{"browser": "Firefox"},
		},
		{
			Numerical:   map[string]float64{"hour": 18, "score": 0.2},
			Categorical: map[string]string{"browser": "Chrome"},
		},
	}
}

func TestFitStatistics(t *testing.T) {
	enc, err := Fit(fitRows(), []string{"hour", "score"}, []string{"browser"})
	require.NoError(t, err)

	// Population statistics for 10, 14, 18.
	assert.InDelta(t, 14.0, enc.Means[0], 1e-12)
	assert.InDelta(t, math.Sqrt(32.0/3.0), enc.Stds[0], 1e-12)

	// Zero-variance column gets scale 1.
	assert.InDelta(t, 0.2, enc.Means[1], 1e-12)
	assert.InDelta(t, 1.0, enc.Stds[1], 1e-12)

	// Vocabulary sorted.
	assert.Equal(t, []string{"Chrome", "Firefox"}, enc.Categories["browser"])
	assert.Equal(t, 4, enc.Dim())
}

func TestFitErrors(t *testing.T) {
	_, err := Fit(nil, []string{"hour"}, nil)
	assert.Error(t, err, "empty corpus")

	_, err = Fit(fitRows(), []string{"missing"}, nil)
	assert.Error(t, err, "missing numerical column")

	_, err = Fit(fitRows(), nil, []string{"missing"})
	assert.Error(t, err, "missing categorical column")
}

func TestTransformOne(t *testing.T) {
	enc, err := Fit(fitRows(), []string{"hour", "score"}, []string{"browser"})
	require.NoError(t, err)

	vec, err := enc.TransformOne(Row{
		Numerical:   map[string]float64{"hour": 14, "score": 0.2},
		Categorical: map[string]string{"browser": "Firefox"},
	})
	require.NoError(t, err)
	require.Len(t, vec, enc.Dim())

	assert.InDelta(t, 0.0, vec[0], 1e-12)
	assert.InDelta(t, 0.0, vec[1], 1e-12)
	assert.Equal(t, []float64{0, 1}, vec[2:])
}

func TestTransformOneUnknownCategoryEncodesZeros(t *testing.T) {
	enc, err := Fit(fitRows(), []string{"hour", "score"}, []string{"browser"})
	require.NoError(t, err)

	vec, err := enc.TransformOne(Row{
		Numerical:   map[string]float64{"hour": 10, "score": 0.2},
		Categorical: map[string]string{"browser": "Netscape"},
	})
	require.NoError(t, err, "unknown categorical value must not error")
	assert.Equal(t, []float64{0, 0}, vec[2:])
}

func TestTransformOneMissingColumnIsError(t *testing.T) {
	enc, err := Fit(fitRows(), []string{"hour", "score"}, []string{"browser"})
	require.NoError(t, err)

	_, err = enc.TransformOne(Row{
		Numerical:   map[string]float64{"hour": 10},
		Categorical: map[string]string{"browser": "Chrome"},
	})
	assert.Error(t, err, "missing numerical column")

	_, err = enc.TransformOne(Row{
		Numerical:   map[string]float64{"hour": 10, "score": 0.2},
		Categorical: map[string]string{},
	})
	assert.Error(t, err, "missing categorical column")
}

func TestTransformDimensionIsStable(t *testing.T) {
	enc, err := Fit(fitRows(), []string{"hour", "score"}, []string{"browser"})
	require.NoError(t, err)

	out, err := enc.Transform(fitRows())
	require.NoError(t, err)
	for _, vec := range out {
		assert.Len(t, vec, enc.Dim())
	}
}

func TestEncoderSaveLoadRoundTrip(t *testing.T) {
	enc, err := Fit(fitRows(), []string{"hour", "score"}, []string{"browser"})
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "encoder.json")
	require.NoError(t, enc.Save(path))

	loaded, err := LoadEncoder(path)
	require.NoError(t, err)
	assert.Equal(t, enc, loaded)
}

func TestEventColumnsWeekdayConvention(t *testing.T) {
	// Monday 2025-03-03 09:15 must encode day_of_week 0.
	ev := model.AccessEvent{
		CreatedAt: time.Date(2025, time.March, 3, 9, 15, 0, 0, time.UTC),
		ClientIP:  "203.0.113.42",
		Flags:     model.RiskFlags{IPChange: 1},
	}
	row := EventColumns(ev)

	assert.Equal(t, 9.0, row.Numerical[ColCreatedHour])
	assert.Equal(t, 0.0, row.Numerical[ColCreatedDayOfWeek])
	assert.Equal(t, 3.0, row.Numerical[ColCreatedMonth])
	assert.Equal(t, 1.0, row.Numerical[model.FlagIPChange])
	assert.Equal(t, 0.0, row.Numerical[model.FlagMFAChange])
	assert.Equal(t, "203.0.113.", row.Categorical[ColClientIPBlock])

	// Sunday maps to 6.
	ev.CreatedAt = time.Date(2025, time.March, 9, 9, 15, 0, 0, time.UTC)
	assert.Equal(t, 6.0, EventColumns(ev).Numerical[ColCreatedDayOfWeek])
}

func TestNumericalColumnsOrder(t *testing.T) {
	cols := NumericalColumns()
	require.Len(t, cols, 3+len(model.FlagNames))
	assert.Equal(t, ColCreatedHour, cols[0])
	assert.Equal(t, ColCreatedDayOfWeek, cols[1])
	assert.Equal(t, ColCreatedMonth, cols[2])
	assert.Equal(t, model.FlagNames, cols[3:])
}
