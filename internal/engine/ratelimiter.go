package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// RateLimiter caps outbound provider calls per tenant with a sliding
// one-second window in Redis. Each window is a sorted set of request
// members scored by timestamp; a Lua script trims, counts and inserts
// atomically.
type RateLimiter struct {
	redisClient *redis.Client
	logger      *slog.Logger
	script      *redis.Script
}

var slidingWindowScript = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])
local member = ARGV[4]

-- Drop entries that fell out of the window
redis.call('ZREMRANGEBYSCORE', key, '-inf', now - window)

local count = redis.call('ZCARD', key)

if count < limit then
    redis.call('ZADD', key, now, member)
    redis.call('EXPIRE', key, window / 1000 + 1)
    return 1
else
    return 0
end
`)

func NewRateLimiter(redisClient *redis.Client, logger *slog.Logger) *RateLimiter {
	return &RateLimiter{
		redisClient: redisClient,
		logger:      logger,
		script:      slidingWindowScript,
	}
}

func limiterKey(tenantID string) string {
	return fmt.Sprintf("provider_rl:%s", tenantID)
}

// Allow reports whether this tenant is within its per-second provider
// budget. A limit of zero means unlimited. Redis errors fail open so a
// cache outage never blocks forwarding.
func (rl *RateLimiter) Allow(ctx context.Context, tenantID string, limit int) bool {
	if limit <= 0 {
		return true
	}

	now := time.Now().UnixMilli()
	window := int64(1000)
	member := fmt.Sprintf("%d:%d", now, time.Now().UnixNano()%10000)

	result, err := rl.script.Run(ctx, rl.redisClient, []string{limiterKey(tenantID)},
		now, window, limit, member,
	).Int64()
	if err != nil {
		rl.logger.Error("rate limiter script failed", "error", err, "tenant_id", tenantID)
		return true
	}

	if result == 0 {
		rl.logger.Debug("provider send rate limited", "tenant_id", tenantID, "limit", limit)
		return false
	}

	return true
}
