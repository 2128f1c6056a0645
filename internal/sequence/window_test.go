package sequence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"access-risk-service/internal/feature"
	"access-risk-service/internal/model"
)

func testEncoder(t *testing.T) *feature.Encoder {
	t.Helper()

	events := []model.AccessEvent{
		eventAt(time.Date(2025, time.March, 3, 9, 0, 0, 0, time.UTC), "Chrome"),
		eventAt(time.Date(2025, time.March, 4, 14, 0, 0, 0, time.UTC), "Firefox"),
		eventAt(time.Date(2025, time.March, 5, 18, 0, 0, 0, time.UTC), "Chrome"),
	}
	rows := make([]feature.Row, len(events))
	for i, ev := range events {
		rows[i] = feature.EventColumns(ev)
	}

	enc, err := feature.Fit(rows, feature.NumericalColumns(), feature.CategoricalColumns())
	require.NoError(t, err)
	return enc
}

func eventAt(ts time.Time, browser string) model.AccessEvent {
	return model.AccessEvent{
		UserID:      "U10000",
		CreatedAt:   ts,
		ClientIP:    "203.0.113.42",
		MFAMethod:   "App_Auth",
		Application: "AppA",
		Browser:     browser,
		OS:          "Windows",
		Unit:        "Engineering",
		Title:       "Analyst",
	}
}

func TestBuildFullWindow(t *testing.T) {
	enc := testEncoder(t)
	b := NewBuilder(5, enc, zap.NewNop())

	history := make([]model.AccessEvent, 4)
	for i := range history {
		history[i] = eventAt(time.Date(2025, time.March, 3+i, 10, 0, 0, 0, time.UTC), "Chrome")
	}
	target := eventAt(time.Date(2025, time.March, 8, 10, 0, 0, 0, time.UTC), "Firefox")

	window, err := b.Build(history, target)
	require.NoError(t, err)

	assert.Equal(t, 5, window.Len())
	assert.Equal(t, enc.Dim(), window.Dim())
	assert.Equal(t, 5, window.Populated)

	// Target always occupies the last row.
	targetVec, err := enc.TransformOne(feature.EventColumns(target))
	require.NoError(t, err)
	assert.Equal(t, targetVec, window.Rows[4])
}

func TestBuildShortHistoryFrontPads(t *testing.T) {
	enc := testEncoder(t)
	b := NewBuilder(5, enc, zap.NewNop())

	history := []model.AccessEvent{
		eventAt(time.Date(2025, time.March, 3, 10, 0, 0, 0, time.UTC), "Chrome"),
		eventAt(time.Date(2025, time.March, 4, 10, 0, 0, 0, time.UTC), "Chrome"),
	}
	target := eventAt(time.Date(2025, time.March, 5, 10, 0, 0, 0, time.UTC), "Firefox")

	window, err := b.Build(history, target)
	require.NoError(t, err)

	assert.Equal(t, 5, window.Len())
	assert.Equal(t, 3, window.Populated)

	// Leading rows are zero padding.
	for i := 0; i < 2; i++ {
		assert.Equal(t, make([]float64, enc.Dim()), window.Rows[i])
	}

	// Real rows are right-aligned, target last.
	targetVec, err := enc.TransformOne(feature.EventColumns(target))
	require.NoError(t, err)
	assert.Equal(t, targetVec, window.Rows[4])
	assert.NotEqual(t, make([]float64, enc.Dim()), window.Rows[2])
}

func TestBuildEmptyHistory(t *testing.T) {
	enc := testEncoder(t)
	b := NewBuilder(5, enc, zap.NewNop())

	target := eventAt(time.Date(2025, time.March, 5, 10, 0, 0, 0, time.UTC), "Chrome")
	window, err := b.Build(nil, target)
	require.NoError(t, err)

	assert.Equal(t, 1, window.Populated)
	for i := 0; i < 4; i++ {
		assert.Equal(t, make([]float64, enc.Dim()), window.Rows[i])
	}
}

func TestBuildDropsOldestExcessHistory(t *testing.T) {
	enc := testEncoder(t)
	b := NewBuilder(3, enc, zap.NewNop())

	history := []model.AccessEvent{
		eventAt(time.Date(2025, time.March, 1, 10, 0, 0, 0, time.UTC), "Firefox"), // dropped
		eventAt(time.Date(2025, time.March, 2, 10, 0, 0, 0, time.UTC), "Chrome"),
		eventAt(time.Date(2025, time.March, 3, 10, 0, 0, 0, time.UTC), "Chrome"),
	}
	target := eventAt(time.Date(2025, time.March, 4, 10, 0, 0, 0, time.UTC), "Chrome")

	window, err := b.Build(history, target)
	require.NoError(t, err)
	assert.Equal(t, 3, window.Len())
	assert.Equal(t, 3, window.Populated)

	// The first kept row must be the second history event, not the first.
	keptVec, err := enc.TransformOne(feature.EventColumns(history[1]))
	require.NoError(t, err)
	assert.Equal(t, keptVec, window.Rows[0])
}
