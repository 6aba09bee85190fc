package ratelimit

import (
	"context"
	"os"
	"testing"
	"time"
)

func redisTestLimiter(t *testing.T, cfg *Config) *RedisLimiter {
	t.Helper()

	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		t.Skip("REDIS_TEST_ADDR not set, skipping Redis tests")
	}

	cfg.Backend = "redis"
	cfg.RedisAddr = addr
	cfg.RedisPassword = os.Getenv("REDIS_TEST_PASSWORD")

	limiter, err := NewRedisLimiter(cfg)
	if err != nil {
		t.Fatalf("NewRedisLimiter() error = %v", err)
	}
	t.Cleanup(func() { limiter.Close() })
	return limiter
}

func TestRedisLimiter_Allow(t *testing.T) {
	limiter := redisTestLimiter(t, &Config{
		Requests: 2,
		Window:   time.Minute,
		Strategy: "sliding_window",
	})

	ctx := context.Background()
	key := "transit-test-allow"

	limiter.Reset(ctx, key)
	defer limiter.Reset(ctx, key)

	for i := 0; i < 2; i++ {
		allowed, err := limiter.Allow(ctx, key)
		if err != nil {
			t.Fatalf("Allow() error = %v", err)
		}
		if !allowed {
			t.Errorf("request %d should be allowed", i+1)
		}
	}

	allowed, err := limiter.Allow(ctx, key)
	if err != nil {
		t.Fatalf("Allow() error = %v", err)
	}
	if allowed {
		t.Error("request over the limit should be denied")
	}
}

func TestRedisLimiter_GetInfo(t *testing.T) {
	limiter := redisTestLimiter(t, &Config{
		Requests: 5,
		Window:   time.Minute,
	})

	ctx := context.Background()
	key := "transit-test-info"

	limiter.Reset(ctx, key)
	defer limiter.Reset(ctx, key)

	limiter.Allow(ctx, key)
	limiter.Allow(ctx, key)

	info, err := limiter.GetInfo(ctx, key)
	if err != nil {
		t.Fatalf("GetInfo() error = %v", err)
	}

	if info.Limit != 5 {
		t.Errorf("Limit = %d, want 5", info.Limit)
	}
	if info.Remaining != 3 {
		t.Errorf("Remaining = %d, want 3", info.Remaining)
	}
}
