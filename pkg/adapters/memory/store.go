package memory

import (
	"context"
	"sync"

	"github.com/aretw0/quill/pkg/domain"
)

// Store implements ports.SessionStore in memory.
// Safe for concurrent use.
type Store struct {
	data map[string]domain.Settings
	mu   sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[string]domain.Settings),
	}
}

// Save keeps a copy of settings so later caller mutations do not leak in.
func (s *Store) Save(ctx context.Context, sessionID string, settings *domain.Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[sessionID] = *settings
	return nil
}

// Load returns a copy of the stored settings.
func (s *Store) Load(ctx context.Context, sessionID string) (*domain.Settings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	settings, ok := s.data[sessionID]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return &settings, nil
}

func (s *Store) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, sessionID)
	return nil
}

// List returns stored session IDs.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := make([]string, 0, len(s.data))
	for id := range s.data {
		sessions = append(sessions, id)
	}
	return sessions, nil
}
