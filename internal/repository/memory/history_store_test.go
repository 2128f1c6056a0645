package memory

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"access-risk-service/internal/model"
)

func eventFor(userID string, ts time.Time) model.AccessEvent {
	return model.AccessEvent{
		EventID:   userID + "-" + ts.Format(time.RFC3339),
		UserID:    userID,
		CreatedAt: ts,
		ClientIP:  "203.0.113.42",
	}
}

func TestHistoryStoreRecentByUser(t *testing.T) {
	base := time.Date(2025, time.March, 1, 10, 0, 0, 0, time.UTC)
	store := NewHistoryStoreFromEvents([]model.AccessEvent{
		// Deliberately out of order; the constructor sorts.
		eventFor("U10000", base.Add(2*time.Hour)),
		eventFor("U10000", base),
		eventFor("U10000", base.Add(1*time.Hour)),
		eventFor("U10001", base),
	})

	events, err := store.RecentByUser(context.Background(), "U10000", 10)
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.True(t, events[0].CreatedAt.Before(events[1].CreatedAt))
	assert.True(t, events[1].CreatedAt.Before(events[2].CreatedAt))

	// Limit keeps the most recent events, still ascending.
	events, err = store.RecentByUser(context.Background(), "U10000", 2)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, base.Add(1*time.Hour), events[0].CreatedAt)
	assert.Equal(t, base.Add(2*time.Hour), events[1].CreatedAt)

	// Unknown user yields an empty slice, not an error.
	events, err = store.RecentByUser(context.Background(), "U99999", 5)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestHistoryStoreAppend(t *testing.T) {
	base := time.Date(2025, time.March, 1, 10, 0, 0, 0, time.UTC)
	store := NewHistoryStore()

	require.NoError(t, store.Append(context.Background(), eventFor("U10000", base)))
	require.NoError(t, store.Append(context.Background(), eventFor("U10000", base.Add(time.Hour))))

	// Out-of-order append gets re-sorted into place.
	require.NoError(t, store.Append(context.Background(), eventFor("U10000", base.Add(30*time.Minute))))

	events, err := store.RecentByUser(context.Background(), "U10000", 10)
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, base, events[0].CreatedAt)
	assert.Equal(t, base.Add(30*time.Minute), events[1].CreatedAt)
	assert.Equal(t, base.Add(time.Hour), events[2].CreatedAt)
}

func TestLoadCorpus(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corpus.jsonl")
	lines := `{"event_id":"e1","user_id":"U10000","created_at":"2025-03-01T10:00:00Z","client_ip":"203.0.113.42","mfa_method":"App_Auth","application":"AppA","browser":"Chrome","os":"Windows","unit":"Engineering","title":"Analyst","flags":{"ip_change":0,"time_anomaly":0,"mfa_change":0,"browser_os_change":0,"application_change":0,"unit_change":0,"title_mismatch":0},"risk_score":0,"synthetic_risk":0}
{"event_id":"e2","user_id":"U10000","created_at":"2025-03-01T11:00:00Z","client_ip":"198.51.100.7","mfa_method":"App_Auth","application":"AppA","browser":"Chrome","os":"Windows","unit":"Engineering","title":"Analyst","flags":{"ip_change":1,"time_anomaly":0,"mfa_change":0,"browser_os_change":0,"application_change":0,"unit_change":0,"title_mismatch":0},"risk_score":0.35,"synthetic_risk":1}
`
	require.NoError(t, os.WriteFile(path, []byte(lines), 0o644))

	events, err := LoadCorpus(path)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "e1", events[0].EventID)
	assert.Equal(t, 1, events[1].Flags.IPChange)
	assert.Equal(t, 0.35, events[1].RiskScore)
}

func TestLoadCorpusMalformedLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corpus.jsonl")
	require.NoError(t, os.WriteFile(path, []byte("{not json}\n"), 0o644))

	_, err := LoadCorpus(path)
	assert.Error(t, err)
}

func TestProfileStoreLookup(t *testing.T) {
	store := NewProfileStore(map[string]model.UserProfile{
		"U10000": {UserID: "U10000", BaseIP: "203.0.113."},
	})

	p, ok := store.Lookup("U10000")
	require.True(t, ok)
	assert.Equal(t, "203.0.113.", p.BaseIP)

	_, ok = store.Lookup("U99999")
	assert.False(t, ok)
	assert.Equal(t, 1, store.Len())
}

func TestLoadProfileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "user_profiles.json")
	data := `{"U10000":{"user_id":"U10000","base_ip":"203.0.113.","preferred_mfa":"App_Auth","preferred_app":"AppA","preferred_browser":"Chrome","preferred_os":"Windows","unit":"Engineering","title":"Analyst","avg_entry_hour":10}}`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	store, err := LoadProfileStore(path)
	require.NoError(t, err)
	require.Equal(t, 1, store.Len())

	p, ok := store.Lookup("U10000")
	require.True(t, ok)
	assert.Equal(t, "U10000", p.UserID)
	assert.Equal(t, 10, p.AvgEntryHour)
}
