package session

import (
	"context"
	"errors"
	"sync"

	"github.com/aretw0/quill/pkg/domain"
	"github.com/aretw0/quill/pkg/ports"
)

// ErrSessionBusy is returned by Open when another process owns the session.
var ErrSessionBusy = errors.New("session is owned by another process")

// ErrSessionClosed is returned by operations on a closed Session.
var ErrSessionClosed = errors.New("session closed")

// Session is an opened, exclusively owned session. It must be closed.
type Session struct {
	id string
	m  *Manager

	mu       sync.Mutex
	settings domain.Settings
	unlock   ports.UnlockFunc
	closed   bool
}

func ownerKey(sessionID string) string {
	return "owner:" + sessionID
}

// Open claims sessionID and loads its settings, creating them with init when
// absent. Without a locker the claim is local to this Manager's process.
func (m *Manager) Open(ctx context.Context, sessionID string, init func(*domain.Settings)) (*Session, error) {
	var unlock ports.UnlockFunc
	if m.locker != nil {
		u, ok, err := m.locker.TryLock(ctx, ownerKey(sessionID), m.ttl)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrSessionBusy
		}
		unlock = u
	} else {
		u, ok := m.claimLocal(sessionID)
		if !ok {
			return nil, ErrSessionBusy
		}
		unlock = u
	}

	settings, err := m.LoadOrCreate(ctx, sessionID, init)
	if err != nil {
		if unlock != nil {
			_ = unlock(ctx)
		}
		return nil, err
	}
	m.logger.Debug("session opened", "session_id", sessionID)
	return &Session{id: sessionID, m: m, settings: *settings, unlock: unlock}, nil
}

// claimLocal records sessionID as owned by this Manager.
func (m *Manager) claimLocal(sessionID string) (ports.UnlockFunc, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, held := m.owners[sessionID]; held {
		return nil, false
	}
	m.owners[sessionID] = struct{}{}
	return func(context.Context) error {
		m.mu.Lock()
		delete(m.owners, sessionID)
		m.mu.Unlock()
		return nil
	}, true
}

func (s *Session) ID() string { return s.id }

// Settings returns a snapshot of the session's settings.
func (s *Session) Settings() domain.Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings
}

// Update changes the settings and persists them.
func (s *Session) Update(ctx context.Context, fn func(*domain.Settings) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}
	settings, err := s.m.Update(ctx, s.id, fn)
	if err != nil {
		return err
	}
	s.settings = *settings
	return nil
}

// Close releases ownership. Closing twice is harmless.
func (s *Session) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	if s.unlock == nil {
		return nil
	}
	if err := s.unlock(ctx); err != nil {
		s.m.logger.Warn("failed to release session ownership", "session_id", s.id, "error", err)
		return err
	}
	return nil
}
