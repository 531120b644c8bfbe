package memory

import (
	"context"
	"sync"
	"time"

	"github.com/aretw0/quill/pkg/ports"
)

type lease struct {
	token   uint64
	expires time.Time
}

// Locker implements ports.DistributedLocker inside one process. Leases expire
// after their TTL like the Redis locker's keys do.
type Locker struct {
	mu     sync.Mutex
	leases map[string]lease
	seq    uint64
	poll   time.Duration
	now    func() time.Time
}

func NewLocker() *Locker {
	return &Locker{
		leases: make(map[string]lease),
		poll:   10 * time.Millisecond,
		now:    time.Now,
	}
}

func (l *Locker) TryLock(ctx context.Context, key string, ttl time.Duration) (ports.UnlockFunc, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if cur, held := l.leases[key]; held && cur.expires.After(now) {
		return nil, false, nil
	}
	l.seq++
	token := l.seq
	exp := now.Add(ttl)
	if ttl <= 0 {
		exp = now.Add(100 * 365 * 24 * time.Hour)
	}
	l.leases[key] = lease{token: token, expires: exp}

	return func(context.Context) error {
		l.mu.Lock()
		defer l.mu.Unlock()
		if cur, ok := l.leases[key]; ok && cur.token == token {
			delete(l.leases, key)
		}
		return nil
	}, true, nil
}

func (l *Locker) Lock(ctx context.Context, key string, ttl time.Duration) (ports.UnlockFunc, error) {
	for {
		unlock, ok, err := l.TryLock(ctx, key, ttl)
		if err != nil || ok {
			return unlock, err
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(l.poll):
		}
	}
}
