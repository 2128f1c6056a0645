package repository

import (
	"context"

	"access-risk-service/internal/model"
)

// ProfileStore is a read-only lookup of baseline behavioral profiles,
// loaded once at startup and shared by all requests.
//
// Callers apply different miss policies and both are intentional:
// the feature extractor treats a miss as "assume not risky" (all flags
// zero), while the serving path rejects the request outright.
type ProfileStore interface {
	// Lookup returns the profile for a user, ok=false on miss.
	Lookup(userID string) (model.UserProfile, bool)
	// Len returns the number of stored profiles.
	Len() int
}

// HistoryStore is the per-user access-event log consumed by the
// sequence window builder.
type HistoryStore interface {
	// RecentByUser returns up to limit most recent events for a user,
	// ordered ascending by timestamp.
	RecentByUser(ctx context.Context, userID string, limit int) ([]model.AccessEvent, error)
	// Append records a fully enriched event. The log is append-only.
	Append(ctx context.Context, event model.AccessEvent) error
}
