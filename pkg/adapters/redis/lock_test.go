package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLocker(t *testing.T) (*Locker, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	l := NewLocker(client, "test:")
	l.poll = 5 * time.Millisecond
	return l, mr
}

func TestLocker_LockUnlock(t *testing.T) {
	l, mr := newTestLocker(t)
	ctx := context.Background()

	unlock, err := l.Lock(ctx, "default/orders", time.Minute)
	require.NoError(t, err)
	assert.True(t, mr.Exists("test:lock:default/orders"))

	require.NoError(t, unlock(ctx))
	assert.False(t, mr.Exists("test:lock:default/orders"))
}

func TestLocker_Contention(t *testing.T) {
	l, _ := newTestLocker(t)
	ctx := context.Background()

	unlock, err := l.Lock(ctx, "orders", time.Minute)
	require.NoError(t, err)

	short, cancel := context.WithTimeout(ctx, 30*time.Millisecond)
	defer cancel()
	_, err = l.Lock(short, "orders", time.Minute)
	assert.ErrorIs(t, err, ErrLockAcquire)

	require.NoError(t, unlock(ctx))
	unlock2, err := l.Lock(ctx, "orders", time.Minute)
	require.NoError(t, err)
	require.NoError(t, unlock2(ctx))
}

func TestLocker_UnlockKeepsForeignLock(t *testing.T) {
	l, mr := newTestLocker(t)
	ctx := context.Background()

	unlock, err := l.Lock(ctx, "orders", time.Minute)
	require.NoError(t, err)

	// Lock expired and was taken by another holder.
	require.NoError(t, mr.Set("test:lock:orders", "someone-else"))
	require.NoError(t, unlock(ctx))

	v, err := mr.Get("test:lock:orders")
	require.NoError(t, err)
	assert.Equal(t, "someone-else", v)
}
