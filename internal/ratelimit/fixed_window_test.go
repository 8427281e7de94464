package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLimiter(t *testing.T, limit int) (*FixedWindowLimiter, *miniredis.Miniredis) {
	t.Helper()
	redis := miniredis.RunT(t)
	limiter, err := NewRedisFixedWindowLimiter("redis://"+redis.Addr(), "test:ratelimit", limit, time.Minute)
	require.NoError(t, err)
	t.Cleanup(func() { _ = limiter.Close() })
	return limiter, redis
}

func TestFixedWindowLimiterRedis(t *testing.T) {
	limiter, _ := newTestLimiter(t, 2)
	ctx := context.Background()

	assert.True(t, limiter.Allow(ctx, "user-1"), "first request should pass")
	assert.True(t, limiter.Allow(ctx, "user-1"), "second request should pass")
	assert.False(t, limiter.Allow(ctx, "user-1"), "third request should be blocked")
	assert.True(t, limiter.Allow(ctx, "user-2"), "other keys have their own quota")
}

func TestFixedWindowLimiterNextWindow(t *testing.T) {
	limiter, _ := newTestLimiter(t, 1)
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }

	assert.True(t, limiter.Allow(ctx, "user-1"))
	assert.False(t, limiter.Allow(ctx, "user-1"))

	now = now.Add(limiter.Window())
	assert.True(t, limiter.Allow(ctx, "user-1"))
}

func TestFixedWindowLimiterSetsExpiry(t *testing.T) {
	limiter, redis := newTestLimiter(t, 5)
	require.True(t, limiter.Allow(context.Background(), "user-1"))

	keys := redis.Keys()
	require.Len(t, keys, 1)
	assert.Equal(t, time.Minute, redis.TTL(keys[0]))
}

func TestFixedWindowLimiterRedisFailClosed(t *testing.T) {
	limiter, redis := newTestLimiter(t, 1)
	redis.Close()
	assert.False(t, limiter.Allow(context.Background(), "user-1"), "limiter should fail closed on redis errors")
}

func TestFixedWindowLimiterValidation(t *testing.T) {
	_, err := NewRedisFixedWindowLimiter("", "p", 1, time.Second)
	assert.Error(t, err)

	_, err = NewRedisFixedWindowLimiter("redis://localhost:6379", "p", 0, time.Second)
	assert.Error(t, err)

	_, err = NewRedisFixedWindowLimiter("not a url", "p", 1, time.Second)
	assert.Error(t, err)
}
