package middleware_test

import (
	"context"

	"github.com/aretw0/quill/pkg/domain"
	"github.com/aretw0/quill/pkg/ports"
)

// MockStore is a simple map-based store for testing middleware.
type MockStore struct {
	data map[string]domain.Settings
}

func NewMockStore() *MockStore {
	return &MockStore{data: make(map[string]domain.Settings)}
}

func (s *MockStore) Save(ctx context.Context, sessionID string, settings *domain.Settings) error {
	s.data[sessionID] = *settings
	return nil
}

func (s *MockStore) Load(ctx context.Context, sessionID string) (*domain.Settings, error) {
	settings, ok := s.data[sessionID]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return &settings, nil
}

func (s *MockStore) Delete(ctx context.Context, sessionID string) error {
	delete(s.data, sessionID)
	return nil
}

func (s *MockStore) List(ctx context.Context) ([]string, error) {
	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	return keys, nil
}

var _ ports.SessionStore = (*MockStore)(nil)
