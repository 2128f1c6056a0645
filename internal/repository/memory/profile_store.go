package memory

import (
	"encoding/json"
	"fmt"
	"os"

	"access-risk-service/internal/model"
)

// ProfileStore is an immutable in-memory profile snapshot. The map is
// never written after construction, so concurrent reads need no lock.
type ProfileStore struct {
	profiles map[string]model.UserProfile
}

// NewProfileStore builds a store from a profile set keyed by user ID.
func NewProfileStore(profiles map[string]model.UserProfile) *ProfileStore {
	copied := make(map[string]model.UserProfile, len(profiles))
	for id, p := range profiles {
		copied[id] = p
	}
	return &ProfileStore{profiles: copied}
}

// LoadProfileStore reads the profile snapshot asset from disk.
func LoadProfileStore(path string) (*ProfileStore, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read profile snapshot: %w", err)
	}
	var profiles map[string]model.UserProfile
	if err := json.Unmarshal(data, &profiles); err != nil {
		return nil, fmt.Errorf("failed to parse profile snapshot %s: %w", path, err)
	}
	for id, p := range profiles {
		// The snapshot is keyed by user ID; keep the struct consistent.
		p.UserID = id
		profiles[id] = p
	}
	return NewProfileStore(profiles), nil
}

func (s *ProfileStore) Lookup(userID string) (model.UserProfile, bool) {
	p, ok := s.profiles[userID]
	return p, ok
}

func (s *ProfileStore) Len() int {
	return len(s.profiles)
}
