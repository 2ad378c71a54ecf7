package auth

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mrlokans/mylibrary/internal/logger"
)

// LoginLimiter throttles failed logins per client IP and login name.
type LoginLimiter interface {
	// Allow reports whether an attempt may proceed, and if not, for how long
	// the caller should wait.
	Allow(ctx context.Context, ip, login string) (bool, time.Duration)
	RecordFailure(ctx context.Context, ip, login string)
	RecordSuccess(ctx context.Context, ip, login string)
}

type RateLimitConfig struct {
	MaxAttempts     int           // Failures allowed inside one window (default: 5)
	WindowDuration  time.Duration // Counting window (default: 15m)
	LockoutDuration time.Duration // Block after the limit is hit (default: 30m)
}

func (cfg RateLimitConfig) withDefaults() RateLimitConfig {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 5
	}
	if cfg.WindowDuration <= 0 {
		cfg.WindowDuration = 15 * time.Minute
	}
	if cfg.LockoutDuration <= 0 {
		cfg.LockoutDuration = 30 * time.Minute
	}
	return cfg
}

func limiterKey(ip, login string) string {
	return ip + ":" + strings.ToLower(strings.TrimSpace(login))
}

// MemoryRateLimiter counts failures in-process. Expired records are swept on
// each write.
type MemoryRateLimiter struct {
	mu       sync.Mutex
	cfg      RateLimitConfig
	attempts map[string]*attemptRecord
	now      func() time.Time
}

type attemptRecord struct {
	count        int
	firstAttempt time.Time
	lockedUntil  time.Time
}

func NewMemoryRateLimiter(cfg RateLimitConfig) *MemoryRateLimiter {
	return &MemoryRateLimiter{
		cfg:      cfg.withDefaults(),
		attempts: make(map[string]*attemptRecord),
		now:      time.Now,
	}
}

func (rl *MemoryRateLimiter) Allow(_ context.Context, ip, login string) (bool, time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	record, ok := rl.attempts[limiterKey(ip, login)]
	if !ok {
		return true, 0
	}
	now := rl.now()
	if now.Before(record.lockedUntil) {
		return false, record.lockedUntil.Sub(now)
	}
	if now.Sub(record.firstAttempt) > rl.cfg.WindowDuration {
		return true, 0
	}
	if record.count < rl.cfg.MaxAttempts {
		return true, 0
	}
	return false, rl.cfg.LockoutDuration
}

func (rl *MemoryRateLimiter) RecordFailure(_ context.Context, ip, login string) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	rl.sweep(now)

	key := limiterKey(ip, login)
	record, ok := rl.attempts[key]
	if !ok || now.Sub(record.firstAttempt) > rl.cfg.WindowDuration {
		record = &attemptRecord{firstAttempt: now}
		rl.attempts[key] = record
	}
	record.count++
	if record.count >= rl.cfg.MaxAttempts {
		record.lockedUntil = now.Add(rl.cfg.LockoutDuration)
	}
}

func (rl *MemoryRateLimiter) RecordSuccess(_ context.Context, ip, login string) {
	rl.mu.Lock()
	delete(rl.attempts, limiterKey(ip, login))
	rl.mu.Unlock()
}

func (rl *MemoryRateLimiter) sweep(now time.Time) {
	expiry := rl.cfg.WindowDuration + rl.cfg.LockoutDuration
	for key, record := range rl.attempts {
		if now.Sub(record.firstAttempt) > expiry && !now.Before(record.lockedUntil) {
			delete(rl.attempts, key)
		}
	}
}

var failureWindowScript = redis.NewScript(`
local count = redis.call("INCR", KEYS[1])
if count == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
if count >= tonumber(ARGV[2]) then
  redis.call("SET", KEYS[2], "1", "PX", ARGV[3])
end
return count
`)

const rateLimitPrefix = "mylibrary:login:"

// RedisRateLimiter shares failure counters between instances. Counting uses
// a fixed window; reaching the limit sets a lock key with the lockout TTL.
// Redis errors fail open so an outage does not lock everybody out.
type RedisRateLimiter struct {
	client *redis.Client
	cfg    RateLimitConfig
}

func NewRedisRateLimiter(client *redis.Client, cfg RateLimitConfig) *RedisRateLimiter {
	return &RedisRateLimiter{client: client, cfg: cfg.withDefaults()}
}

func (rl *RedisRateLimiter) keys(ip, login string) (string, string) {
	key := limiterKey(ip, login)
	return rateLimitPrefix + "count:" + key, rateLimitPrefix + "lock:" + key
}

func (rl *RedisRateLimiter) Allow(ctx context.Context, ip, login string) (bool, time.Duration) {
	_, lockKey := rl.keys(ip, login)
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	ttl, err := rl.client.PTTL(ctx, lockKey).Result()
	if err != nil {
		logger.For(ctx).WithError(err).Warn("login limiter unavailable")
		return true, 0
	}
	if ttl > 0 {
		return false, ttl
	}
	return true, 0
}

func (rl *RedisRateLimiter) RecordFailure(ctx context.Context, ip, login string) {
	countKey, lockKey := rl.keys(ip, login)
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	err := failureWindowScript.Run(ctx, rl.client, []string{countKey, lockKey},
		rl.cfg.WindowDuration.Milliseconds(), rl.cfg.MaxAttempts, rl.cfg.LockoutDuration.Milliseconds()).Err()
	if err != nil {
		logger.For(ctx).WithError(err).Warn("failed to record login failure")
	}
}

func (rl *RedisRateLimiter) RecordSuccess(ctx context.Context, ip, login string) {
	countKey, lockKey := rl.keys(ip, login)
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := rl.client.Del(ctx, countKey, lockKey).Err(); err != nil {
		logger.For(ctx).WithError(err).Warn("failed to reset login failures")
	}
}
