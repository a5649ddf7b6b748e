package distlock

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	return redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func TestRedisLock_AcquireRelease(t *testing.T) {
	client := newTestRedis(t)
	ctx := context.Background()

	l1 := NewRedisLock(client, "resend-scheduler", time.Minute)
	ok, err := l1.Acquire(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	// Second holder cannot acquire while l1 holds the lock.
	l2 := NewRedisLock(client, "resend-scheduler", time.Minute)
	ok, err = l2.Acquire(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, l1.Release(ctx))

	ok, err = l2.Acquire(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedisLock_ReleaseOnlyIfOwned(t *testing.T) {
	client := newTestRedis(t)
	ctx := context.Background()

	l1 := NewRedisLock(client, "resend-scheduler", time.Minute)
	ok, err := l1.Acquire(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	// A different instance releasing must not drop l1's lock.
	other := NewRedisLock(client, "resend-scheduler", time.Minute)
	require.NoError(t, other.Release(ctx))

	ok, err = other.Acquire(ctx)
	require.NoError(t, err)
	assert.False(t, ok, "l1 should still hold the lock")
}

func TestRedisLock_Extend(t *testing.T) {
	client := newTestRedis(t)
	ctx := context.Background()

	l1 := NewRedisLock(client, "resend-scheduler", time.Minute)
	ok, err := l1.Acquire(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	assert.NoError(t, l1.Extend(ctx, 2*time.Minute))
}
