package ports

import (
	"context"

	"github.com/aretw0/quill/pkg/domain"
)

// SessionStore persists session settings between runs.
type SessionStore interface {
	// Save persists the settings for a given session ID.
	Save(ctx context.Context, sessionID string, settings *domain.Settings) error

	// Load retrieves the settings for a given session ID.
	// Returns domain.ErrSessionNotFound if the session does not exist.
	Load(ctx context.Context, sessionID string) (*domain.Settings, error)

	// Delete removes the settings for a given session ID.
	Delete(ctx context.Context, sessionID string) error

	// List returns the IDs of all stored sessions.
	List(ctx context.Context) ([]string, error)
}
