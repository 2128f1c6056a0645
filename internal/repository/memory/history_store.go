package memory

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"

	"access-risk-service/internal/model"
)

// HistoryStore keeps per-user event logs in memory, seeded from the
// historical corpus asset. Used when no ClickHouse backend is
// configured, and as the backing store in tests.
type HistoryStore struct {
	mu     sync.RWMutex
	byUser map[string][]model.AccessEvent
}

// NewHistoryStore builds an empty in-memory event log.
func NewHistoryStore() *HistoryStore {
	return &HistoryStore{byUser: make(map[string][]model.AccessEvent)}
}

// NewHistoryStoreFromEvents seeds the log with an existing corpus.
// Events are grouped per user and sorted ascending by timestamp.
func NewHistoryStoreFromEvents(events []model.AccessEvent) *HistoryStore {
	s := NewHistoryStore()
	for _, ev := range events {
		s.byUser[ev.UserID] = append(s.byUser[ev.UserID], ev)
	}
	for _, evs := range s.byUser {
		sort.SliceStable(evs, func(i, j int) bool {
			return evs[i].CreatedAt.Before(evs[j].CreatedAt)
		})
	}
	return s
}

// LoadCorpus reads a JSON-lines corpus asset into memory.
func LoadCorpus(path string) ([]model.AccessEvent, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open corpus: %w", err)
	}
	defer f.Close()

	var events []model.AccessEvent
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}
		var ev model.AccessEvent
		if err := json.Unmarshal(raw, &ev); err != nil {
			return nil, fmt.Errorf("corpus line %d: %w", line, err)
		}
		events = append(events, ev)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan corpus: %w", err)
	}
	return events, nil
}

// RecentByUser returns up to limit most recent events, ascending.
func (s *HistoryStore) RecentByUser(_ context.Context, userID string, limit int) ([]model.AccessEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	events := s.byUser[userID]
	if limit > 0 && len(events) > limit {
		events = events[len(events)-limit:]
	}
	out := make([]model.AccessEvent, len(events))
	copy(out, events)
	return out, nil
}

// Append records an enriched event, keeping the per-user order.
func (s *HistoryStore) Append(_ context.Context, event model.AccessEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	events := s.byUser[event.UserID]
	// Serving appends are monotonically timestamped; only re-sort when
	// a backfilled event arrives out of order.
	if n := len(events); n > 0 && event.CreatedAt.Before(events[n-1].CreatedAt) {
		events = append(events, event)
		sort.SliceStable(events, func(i, j int) bool {
			return events[i].CreatedAt.Before(events[j].CreatedAt)
		})
		s.byUser[event.UserID] = events
		return nil
	}
	s.byUser[event.UserID] = append(events, event)
	return nil
}
