package memory

import (
	"context"
	"sync"

	"github.com/artpar/metergate/domain/entitlement"
	"github.com/artpar/metergate/ports"
)

// ProfileStore is an in-memory implementation of ports.ProfileStore.
type ProfileStore struct {
	mu       sync.RWMutex
	profiles map[string]entitlement.Profile
}

// NewProfileStore creates a new in-memory profile store.
func NewProfileStore() *ProfileStore {
	return &ProfileStore{
		profiles: make(map[string]entitlement.Profile),
	}
}

// Get retrieves a profile by user ID.
func (s *ProfileStore) Get(ctx context.Context, userID string) (entitlement.Profile, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.profiles[userID]
	return p, ok, nil
}

// Put stores a profile, overwriting any existing record.
func (s *ProfileStore) Put(ctx context.Context, p entitlement.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.profiles[p.UserID] = p
	return nil
}

// Ensure interface compliance.
var _ ports.ProfileStore = (*ProfileStore)(nil)
