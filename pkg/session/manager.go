package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/quill/internal/logging"
	"github.com/aretw0/quill/pkg/domain"
	"github.com/aretw0/quill/pkg/ports"
)

// DefaultLockTTL bounds how long a crashed holder keeps a session.
const DefaultLockTTL = 30 * time.Second

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager orchestrates session access. Lock entries are reference counted and
// dropped once unused.
type Manager struct {
	store ports.SessionStore

	mu     sync.Mutex
	locks  map[string]*lockEntry
	owners map[string]struct{}

	locker ports.DistributedLocker
	ttl    time.Duration
	logger *slog.Logger
	now    func() time.Time
}

type Option func(*Manager)

// WithLocker enables cross-process locking and ownership claims.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) { m.locker = locker }
}

// WithLockTTL sets the lease of distributed locks and ownership claims.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) { m.ttl = ttl }
}

func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) { m.logger = logger }
}

func NewManager(store ports.SessionStore, opts ...Option) *Manager {
	m := &Manager{
		store:  store,
		locks:  make(map[string]*lockEntry),
		owners: make(map[string]struct{}),
		ttl:    DefaultLockTTL,
		logger: logging.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// acquire gets or creates the entry for sessionID and takes a reference.
// The caller locks entry.mu and calls release after unlocking it.
func (m *Manager) acquire(sessionID string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.locks[sessionID]
	if !ok {
		entry = &lockEntry{}
		m.locks[sessionID] = entry
	}
	entry.refs++
	return entry
}

func (m *Manager) release(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.locks[sessionID]
	if !ok {
		return
	}
	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, sessionID)
	}
}

// WithLock runs fn while holding the session's lock.
func (m *Manager) WithLock(ctx context.Context, sessionID string, fn func(context.Context) error) error {
	entry := m.acquire(sessionID)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(sessionID)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, sessionID, m.ttl)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(ctx); err != nil {
				m.logger.Warn("failed to release distributed lock (will expire via TTL)",
					"session_id", sessionID,
					"error", err,
				)
			}
		}()
	}
	return fn(ctx)
}

func (m *Manager) Load(ctx context.Context, sessionID string) (*domain.Settings, error) {
	var settings *domain.Settings
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		var err error
		settings, err = m.store.Load(ctx, sessionID)
		return err
	})
	return settings, err
}

// LoadOrCreate returns the stored settings or persists fresh ones built by init.
func (m *Manager) LoadOrCreate(ctx context.Context, sessionID string, init func(*domain.Settings)) (*domain.Settings, error) {
	var settings *domain.Settings
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		var err error
		settings, err = m.store.Load(ctx, sessionID)
		if err == nil {
			return nil
		}
		if !errors.Is(err, domain.ErrSessionNotFound) {
			return fmt.Errorf("failed to check session existence: %w", err)
		}

		settings = domain.NewSettings(sessionID)
		if init != nil {
			init(settings)
		}
		if err := m.store.Save(ctx, sessionID, settings); err != nil {
			return fmt.Errorf("failed to initialize session: %w", err)
		}
		m.logger.Info("session created", "session_id", sessionID, "channel", settings.Channel)
		return nil
	})
	return settings, err
}

func (m *Manager) Save(ctx context.Context, sessionID string, settings *domain.Settings) error {
	return m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		return m.store.Save(ctx, sessionID, settings)
	})
}

// Update applies fn to the stored settings and saves them back atomically.
func (m *Manager) Update(ctx context.Context, sessionID string, fn func(*domain.Settings) error) (*domain.Settings, error) {
	var settings *domain.Settings
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		var err error
		settings, err = m.store.Load(ctx, sessionID)
		if err != nil {
			return err
		}
		if err := fn(settings); err != nil {
			return err
		}
		settings.UpdatedAt = m.now()
		return m.store.Save(ctx, sessionID, settings)
	})
	return settings, err
}

func (m *Manager) Delete(ctx context.Context, sessionID string) error {
	return m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		return m.store.Delete(ctx, sessionID)
	})
}

func (m *Manager) List(ctx context.Context) ([]string, error) {
	return m.store.List(ctx)
}

// Store returns the underlying store.
func (m *Manager) Store() ports.SessionStore {
	return m.store
}
