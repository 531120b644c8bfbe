package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocker_Exclusive(t *testing.T) {
	l := NewLocker()
	ctx := context.Background()

	unlock, ok, err := l.TryLock(ctx, "k", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	_, ok, _ = l.TryLock(ctx, "k", time.Minute)
	assert.False(t, ok)

	short, cancel := context.WithTimeout(ctx, 30*time.Millisecond)
	defer cancel()
	_, err = l.Lock(short, "k", time.Minute)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	require.NoError(t, unlock(ctx))
	_, ok, _ = l.TryLock(ctx, "k", time.Minute)
	assert.True(t, ok)
}

func TestLocker_ExpiredLeaseIsTaken(t *testing.T) {
	now := time.Unix(1000, 0)
	l := NewLocker()
	l.now = func() time.Time { return now }
	ctx := context.Background()

	stale, ok, _ := l.TryLock(ctx, "k", time.Second)
	require.True(t, ok)

	now = now.Add(2 * time.Second)
	fresh, ok, _ := l.TryLock(ctx, "k", time.Second)
	require.True(t, ok)

	require.NoError(t, stale(ctx))
	_, ok, _ = l.TryLock(ctx, "k", time.Second)
	assert.False(t, ok, "stale unlock must not release the new lease")
	require.NoError(t, fresh(ctx))
}
