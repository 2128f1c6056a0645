// Package feature implements the fit-once columnar encoder that maps
// enriched access events onto fixed-dimension numeric vectors, plus the
// target scaler used to de-normalize model predictions.
package feature

import (
	"access-risk-service/internal/model"
)

// Numerical feature column names.
const (
	ColCreatedHour      = "created_hour"
	ColCreatedDayOfWeek = "created_day_of_week"
	ColCreatedMonth     = "created_month"
)

// Categorical feature column names.
const (
	ColMFAMethod     = "mfa_method"
	ColApplication   = "application"
	ColBrowser       = "browser"
	ColOS            = "os"
	ColUnit          = "unit"
	ColTitle         = "title"
	ColClientIPBlock = "client_ip_block"
)

// NumericalColumns is the canonical ordered list of numerical feature
// names: the calendar columns followed by the seven risk flags. Fit and
// transform must always use the same order for column alignment.
func NumericalColumns() []string {
	cols := []string{ColCreatedHour, ColCreatedDayOfWeek, ColCreatedMonth}
	return append(cols, model.FlagNames...)
}

// CategoricalColumns is the canonical ordered list of categorical
// feature names.
func CategoricalColumns() []string {
	return []string{
		ColMFAMethod,
		ColApplication,
		ColBrowser,
		ColOS,
		ColUnit,
		ColTitle,
		ColClientIPBlock,
	}
}

// Row holds one event's raw feature columns keyed by name, the unit the
// encoder consumes.
type Row struct {
	Numerical   map[string]float64
	Categorical map[string]string
}

// EventColumns derives the feature columns from an enriched event.
// Deterministic: only the event's own fixed timestamp and attributes
// are read.
func EventColumns(ev model.AccessEvent) Row {
	num := map[string]float64{
		ColCreatedHour: float64(ev.CreatedAt.Hour()),
		// Monday=0 .. Sunday=6, matching the convention the corpus was
		// encoded with.
		ColCreatedDayOfWeek: float64((int(ev.CreatedAt.Weekday()) + 6) % 7),
		ColCreatedMonth:     float64(int(ev.CreatedAt.Month())),
	}
	for _, name := range model.FlagNames {
		num[name] = float64(ev.Flags.Value(name))
	}

	cat := map[string]string{
		ColMFAMethod:     ev.MFAMethod,
		ColApplication:   ev.Application,
		ColBrowser:       ev.Browser,
		ColOS:            ev.OS,
		ColUnit:          ev.Unit,
		ColTitle:         ev.Title,
		ColClientIPBlock: model.IPBlock(ev.ClientIP),
	}

	return Row{Numerical: num, Categorical: cat}
}
