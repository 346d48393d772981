package engine

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func setupTestLimiter(t *testing.T) *RateLimiter {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	return NewRateLimiter(client, logger)
}

func TestRateLimiter_ZeroLimitIsUnlimited(t *testing.T) {
	rl := setupTestLimiter(t)
	ctx := context.Background()

	for i := 0; i < 100; i++ {
		if !rl.Allow(ctx, "t-1", 0) {
			t.Fatalf("call %d denied with no limit configured", i)
		}
	}
}

func TestRateLimiter_EnforcesLimit(t *testing.T) {
	rl := setupTestLimiter(t)
	ctx := context.Background()

	allowed := 0
	for i := 0; i < 10; i++ {
		if rl.Allow(ctx, "t-1", 5) {
			allowed++
		}
	}

	if allowed != 5 {
		t.Errorf("allowed %d sends in one window, want 5", allowed)
	}
}

func TestRateLimiter_TenantsAreIndependent(t *testing.T) {
	rl := setupTestLimiter(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		rl.Allow(ctx, "t-busy", 5)
	}

	if !rl.Allow(ctx, "t-quiet", 5) {
		t.Error("one tenant exhausting its budget must not affect another")
	}
}

func TestRateLimiter_FailsOpenOnRedisError(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	rl := NewRateLimiter(client, logger)

	mr.Close() // simulate a Redis outage

	if !rl.Allow(context.Background(), "t-1", 5) {
		t.Error("a Redis outage must not block forwarding")
	}
}
