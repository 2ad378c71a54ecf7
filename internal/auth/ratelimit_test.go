package auth

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimitConfig_Defaults(t *testing.T) {
	cfg := RateLimitConfig{}.withDefaults()
	assert.Equal(t, 5, cfg.MaxAttempts)
	assert.Equal(t, 15*time.Minute, cfg.WindowDuration)
	assert.Equal(t, 30*time.Minute, cfg.LockoutDuration)
}

func TestMemoryRateLimiter(t *testing.T) {
	rl := NewMemoryRateLimiter(RateLimitConfig{MaxAttempts: 3, WindowDuration: time.Minute, LockoutDuration: 5 * time.Minute})
	now := time.Now()
	rl.now = func() time.Time { return now }
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		allowed, _ := rl.Allow(ctx, "10.0.0.1", "alice")
		require.True(t, allowed, "attempt %d", i+1)
		rl.RecordFailure(ctx, "10.0.0.1", "alice")
	}

	allowed, retry := rl.Allow(ctx, "10.0.0.1", "ALICE")
	assert.False(t, allowed, "login names are case-insensitive")
	assert.Equal(t, 5*time.Minute, retry)

	allowed, _ = rl.Allow(ctx, "10.0.0.2", "alice")
	assert.True(t, allowed, "other clients are not blocked")

	now = now.Add(6 * time.Minute)
	allowed, _ = rl.Allow(ctx, "10.0.0.1", "alice")
	assert.True(t, allowed, "lockout expires")
}

func TestMemoryRateLimiter_WindowResets(t *testing.T) {
	rl := NewMemoryRateLimiter(RateLimitConfig{MaxAttempts: 2, WindowDuration: time.Minute, LockoutDuration: time.Hour})
	now := time.Now()
	rl.now = func() time.Time { return now }
	ctx := context.Background()

	rl.RecordFailure(ctx, "ip", "bob")
	now = now.Add(2 * time.Minute)
	rl.RecordFailure(ctx, "ip", "bob")

	allowed, _ := rl.Allow(ctx, "ip", "bob")
	assert.True(t, allowed, "failures in different windows do not add up")
}

func TestMemoryRateLimiter_SuccessClears(t *testing.T) {
	rl := NewMemoryRateLimiter(RateLimitConfig{MaxAttempts: 2})
	ctx := context.Background()

	rl.RecordFailure(ctx, "ip", "bob")
	rl.RecordFailure(ctx, "ip", "bob")
	allowed, _ := rl.Allow(ctx, "ip", "bob")
	require.False(t, allowed)

	rl.RecordSuccess(ctx, "ip", "bob")
	allowed, _ = rl.Allow(ctx, "ip", "bob")
	assert.True(t, allowed)
}

func TestRedisRateLimiter(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	rl := NewRedisRateLimiter(client, RateLimitConfig{MaxAttempts: 2, WindowDuration: time.Minute, LockoutDuration: 10 * time.Minute})
	ctx := context.Background()

	allowed, _ := rl.Allow(ctx, "ip", "carol")
	require.True(t, allowed)

	rl.RecordFailure(ctx, "ip", "carol")
	allowed, _ = rl.Allow(ctx, "ip", "carol")
	require.True(t, allowed)

	rl.RecordFailure(ctx, "ip", "carol")
	allowed, retry := rl.Allow(ctx, "ip", "carol")
	assert.False(t, allowed)
	assert.InDelta(t, (10 * time.Minute).Seconds(), retry.Seconds(), 1)

	countKey, lockKey := rl.keys("ip", "carol")
	assert.Equal(t, time.Minute, mr.TTL(countKey))

	mr.FastForward(11 * time.Minute)
	allowed, _ = rl.Allow(ctx, "ip", "carol")
	assert.True(t, allowed, "lock key expires")

	rl.RecordFailure(ctx, "ip", "carol")
	rl.RecordSuccess(ctx, "ip", "carol")
	assert.False(t, mr.Exists(countKey))
	assert.False(t, mr.Exists(lockKey))
}

func TestRedisRateLimiter_FailsOpen(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	rl := NewRedisRateLimiter(client, RateLimitConfig{MaxAttempts: 1})
	mr.Close()

	allowed, _ := rl.Allow(context.Background(), "ip", "dave")
	assert.True(t, allowed)
}
