// Package fonts simulates the host's asynchronous font loading. Loads are
// idempotent, cached per family::style key, and concurrent requests for the
// same face share a single load.
package fonts

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/quill/pkg/domain"
	"golang.org/x/sync/singleflight"
)

// Cache loads fonts from a fixed catalog of available faces.
// Successful loads are remembered; failures are not, so a face that becomes
// available later can still be loaded.
type Cache struct {
	mu        sync.RWMutex
	available map[string]bool
	loaded    map[string]bool
	group     singleflight.Group
	latency   time.Duration
	logger    *slog.Logger
}

// Option configures a Cache.
type Option func(*Cache)

// WithLatency delays each real load, standing in for a network fetch.
func WithLatency(d time.Duration) Option {
	return func(c *Cache) { c.latency = d }
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Cache) { c.logger = l }
}

// NewCache creates a cache whose catalog holds the given faces.
func NewCache(available []domain.FontName, opts ...Option) *Cache {
	c := &Cache{
		available: make(map[string]bool, len(available)),
		loaded:    make(map[string]bool),
		logger:    slog.Default(),
	}
	for _, f := range available {
		c.available[f.Key()] = true
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Install adds a face to the catalog.
func (c *Cache) Install(f domain.FontName) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.available[f.Key()] = true
}

// IsLoaded implements ports.FontRegistry.
func (c *Cache) IsLoaded(f domain.FontName) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loaded[f.Key()]
}

// LoadFont implements ports.FontLoader. Unknown faces fail with a resource_load error.
func (c *Cache) LoadFont(ctx context.Context, f domain.FontName) error {
	key := f.Key()
	if c.IsLoaded(f) {
		return nil
	}

	ch := c.group.DoChan(key, func() (any, error) {
		return nil, c.load(context.WithoutCancel(ctx), f)
	})
	select {
	case <-ctx.Done():
		return ctx.Err()
	case res := <-ch:
		return res.Err
	}
}

func (c *Cache) load(ctx context.Context, f domain.FontName) error {
	if c.latency > 0 {
		t := time.NewTimer(c.latency)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if f.IsZero() || !c.available[f.Key()] {
		return domain.Errorf(domain.KindResourceLoad, "font %s is not available", f)
	}
	c.loaded[f.Key()] = true
	c.logger.Debug("font loaded", "font", f.String())
	return nil
}

// Loaded lists the loaded faces.
func (c *Cache) Loaded() []domain.FontName {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]domain.FontName, 0, len(c.loaded))
	for k := range c.loaded {
		out = append(out, domain.ParseFontKey(k))
	}
	return out
}
