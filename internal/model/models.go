package model

import (
	"strings"
	"time"
)

// -------------------- RISK FLAGS --------------------

// Flag names, also the keys of the risk weight table.
const (
	FlagIPChange          = "ip_change"
	FlagTimeAnomaly       = "time_anomaly"
	FlagMFAChange         = "mfa_change"
	FlagBrowserOSChange   = "browser_os_change"
	FlagApplicationChange = "application_change"
	FlagUnitChange        = "unit_change"
	FlagTitleMismatch     = "title_mismatch"
)

// FlagNames lists all seven flags in their canonical order. Feature
// columns and the weight table iterate in this order.
var FlagNames = []string{
	FlagIPChange,
	FlagTimeAnomaly,
	FlagMFAChange,
	FlagBrowserOSChange,
	FlagApplicationChange,
	FlagUnitChange,
	FlagTitleMismatch,
}

// RiskFlags holds the seven binary deviation indicators derived from an
// (event, profile) pair. Each value is 0 or 1.
type RiskFlags struct {
	IPChange          int `json:"ip_change"`
	TimeAnomaly       int `json:"time_anomaly"`
	MFAChange         int `json:"mfa_change"`
	BrowserOSChange   int `json:"browser_os_change"`
	ApplicationChange int `json:"application_change"`
	UnitChange        int `json:"unit_change"`
	TitleMismatch     int `json:"title_mismatch"`
}

// Value returns the flag value for a canonical flag name, 0 for names
// that are not known.
func (f RiskFlags) Value(name string) int {
	switch name {
	case FlagIPChange:
		return f.IPChange
	case FlagTimeAnomaly:
		return f.TimeAnomaly
	case FlagMFAChange:
		return f.MFAChange
	case FlagBrowserOSChange:
		return f.BrowserOSChange
	case FlagApplicationChange:
		return f.ApplicationChange
	case FlagUnitChange:
		return f.UnitChange
	case FlagTitleMismatch:
		return f.TitleMismatch
	}
	return 0
}

// Set assigns the flag value for a canonical flag name. Unknown names
// are ignored.
func (f *RiskFlags) Set(name string, value int) {
	switch name {
	case FlagIPChange:
		f.IPChange = value
	case FlagTimeAnomaly:
		f.TimeAnomaly = value
	case FlagMFAChange:
		f.MFAChange = value
	case FlagBrowserOSChange:
		f.BrowserOSChange = value
	case FlagApplicationChange:
		f.ApplicationChange = value
	case FlagUnitChange:
		f.UnitChange = value
	case FlagTitleMismatch:
		f.TitleMismatch = value
	}
}

// -------------------- USER PROFILE --------------------

// UserProfile is a user's baseline behavioral profile. Immutable once
// loaded for a serving session; rebuilt wholesale during retraining.
type UserProfile struct {
	UserID string `json:"user_id"`
	// BaseIP is the baseline network prefix with its final octet
	// removed, trailing dot kept (e.g. "203.0.113.").
	BaseIP           string `json:"base_ip"`
	PreferredMFA     string `json:"preferred_mfa"`
	PreferredApp     string `json:"preferred_app"`
	PreferredBrowser string `json:"preferred_browser"`
	PreferredOS      string `json:"preferred_os"`
	Unit             string `json:"unit"`
	Title            string `json:"title"`
	// AvgEntryHour is carried for completeness; the time-anomaly rule
	// is calendar-based and does not consult it.
	AvgEntryHour int `json:"avg_entry_hour"`
}

// -------------------- ACCESS EVENT --------------------

// AccessEvent is a single authentication/access event, immutable after
// feature derivation.
type AccessEvent struct {
	EventID     string    `json:"event_id"`
	UserID      string    `json:"user_id"`
	CreatedAt   time.Time `json:"created_at"`
	ClientIP    string    `json:"client_ip"`
	MFAMethod   string    `json:"mfa_method"`
	Application string    `json:"application"`
	Browser     string    `json:"browser"`
	OS          string    `json:"os"`
	Unit        string    `json:"unit"`
	Title       string    `json:"title"`

	Flags     RiskFlags `json:"flags"`
	RiskScore float64   `json:"risk_score"`

	// SyntheticRisk marks rows the corpus generator injected a risk
	// scenario into. Generation bookkeeping only; scoring ignores it.
	SyntheticRisk int `json:"synthetic_risk"`
}

// IPBlock returns the client IP with its final dotted octet removed and
// the trailing dot kept, the coarse network-locality identifier used by
// the ip_change rule and the categorical feature columns.
func IPBlock(ip string) string {
	parts := strings.Split(ip, ".")
	if len(parts) < 2 {
		return ip
	}
	return strings.Join(parts[:len(parts)-1], ".") + "."
}

// -------------------- SEQUENCE WINDOW --------------------

// SequenceWindow is a fixed-length, chronologically ordered, front
// zero-padded matrix of feature vectors ending at a target event.
// Constructed fresh per prediction or training sample, never mutated.
type SequenceWindow struct {
	// Rows is the N x D matrix, most recent event last.
	Rows [][]float64
	// Populated is the number of trailing rows backed by real events.
	Populated int
}

// Len returns the window length N.
func (w SequenceWindow) Len() int { return len(w.Rows) }

// Dim returns the feature dimension D, 0 for an empty window.
func (w SequenceWindow) Dim() int {
	if len(w.Rows) == 0 {
		return 0
	}
	return len(w.Rows[0])
}

// -------------------- SERVING DTOs --------------------

// Risk verdict labels.
const (
	VerdictHighRisk = "high risk"
	VerdictLowRisk  = "low risk"
)

// PredictRequest is the serving-path input. All fields are required.
type PredictRequest struct {
	UserID      string `json:"user_id"`
	ClientIP    string `json:"client_ip"`
	MFAMethod   string `json:"mfa_method"`
	Application string `json:"application"`
	Browser     string `json:"browser"`
	OS          string `json:"os"`
	Unit        string `json:"unit"`
	Title       string `json:"title"`
}

// PredictResponse carries both the rule-based and the model-predicted
// risk scores as 0-100 percentages rounded to 2 decimal places.
type PredictResponse struct {
	UserID             string  `json:"userId"`
	ActualRiskScore    float64 `json:"actualRiskScore"`
	PredictedRiskScore float64 `json:"predictedRiskScore"`
	IsRisky            string  `json:"isRisky"`
}
