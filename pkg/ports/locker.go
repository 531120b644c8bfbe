package ports

import (
	"context"
	"time"
)

// UnlockFunc releases a lock obtained from a DistributedLocker.
type UnlockFunc func(ctx context.Context) error

// DistributedLocker gives one process at a time exclusive ownership of a key.
// Sessions use it so two agents never drive the same channel settings concurrently.
type DistributedLocker interface {
	// Lock blocks until the key is held or ctx is done. The lock expires after ttl
	// if the holder disappears. The returned UnlockFunc MUST be called to release it.
	Lock(ctx context.Context, key string, ttl time.Duration) (UnlockFunc, error)

	// TryLock acquires the key without waiting. ok is false when another holder has it.
	TryLock(ctx context.Context, key string, ttl time.Duration) (unlock UnlockFunc, ok bool, err error)
}
