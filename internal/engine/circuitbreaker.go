// Package engine guards the outbound provider call: a per-tenant circuit
// breaker and a per-tenant rate limiter, both backed by Redis so state is
// shared across instances.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Circuit breaker states
const (
	StateClosed   = "closed"
	StateOpen     = "open"
	StateHalfOpen = "half-open"
)

// CircuitBreaker tracks provider failures per tenant in Redis.
// State transitions: closed → open → half-open → closed.
//
// - Closed: sends proceed, failures are counted.
// - Open: sends are blocked until the cooldown elapses.
// - Half-Open: one probe send is allowed. Success closes the circuit,
//   failure re-opens it.
type CircuitBreaker struct {
	redisClient      *redis.Client
	logger           *slog.Logger
	failureThreshold int
	cooldownPeriod   time.Duration
}

// BreakerState is the externally visible circuit state for one tenant.
type BreakerState struct {
	State        string `json:"state"`
	Failures     int    `json:"failures"`
	LastFailedAt string `json:"last_failed_at,omitempty"`
}

func NewCircuitBreaker(redisClient *redis.Client, logger *slog.Logger, failureThreshold int, cooldown time.Duration) *CircuitBreaker {
	if failureThreshold <= 0 {
		failureThreshold = 5
	}
	if cooldown <= 0 {
		cooldown = 30 * time.Second
	}
	return &CircuitBreaker{
		redisClient:      redisClient,
		logger:           logger,
		failureThreshold: failureThreshold,
		cooldownPeriod:   cooldown,
	}
}

func breakerKey(tenantID string) string {
	return fmt.Sprintf("provider_cb:%s", tenantID)
}

// Allow reports whether a send to the provider is permitted for this
// tenant, along with the current circuit state.
func (cb *CircuitBreaker) Allow(ctx context.Context, tenantID string) (string, bool) {
	key := breakerKey(tenantID)

	data, err := cb.redisClient.HGetAll(ctx, key).Result()
	if err != nil || len(data) == 0 {
		// No recorded state: the circuit is closed
		return StateClosed, true
	}

	switch data["state"] {
	case StateOpen:
		lastFailedAt, _ := strconv.ParseInt(data["last_failed_at"], 10, 64)
		if time.Now().Unix()-lastFailedAt >= int64(cb.cooldownPeriod.Seconds()) {
			// Cooldown over: allow one probe
			cb.redisClient.HSet(ctx, key, "state", StateHalfOpen)
			cb.logger.Info("provider circuit half-open", "tenant_id", tenantID)
			return StateHalfOpen, true
		}
		return StateOpen, false

	case StateHalfOpen:
		return StateHalfOpen, true

	default:
		return StateClosed, true
	}
}

// RecordSuccess resets the tenant's circuit to closed.
func (cb *CircuitBreaker) RecordSuccess(ctx context.Context, tenantID string) {
	key := breakerKey(tenantID)

	state, _ := cb.redisClient.HGet(ctx, key, "state").Result()

	cb.redisClient.HSet(ctx, key,
		"state", StateClosed,
		"failures", 0,
	)

	if state == StateHalfOpen {
		cb.logger.Info("provider circuit closed after probe", "tenant_id", tenantID)
	}
}

// RecordFailure counts a failed send and opens the circuit at the
// threshold. A failed half-open probe re-opens immediately.
func (cb *CircuitBreaker) RecordFailure(ctx context.Context, tenantID string) {
	key := breakerKey(tenantID)

	failures, err := cb.redisClient.HIncrBy(ctx, key, "failures", 1).Result()
	if err != nil {
		cb.logger.Error("recording provider failure failed", "error", err, "tenant_id", tenantID)
		return
	}

	cb.redisClient.HSet(ctx, key, "last_failed_at", time.Now().Unix())

	state, _ := cb.redisClient.HGet(ctx, key, "state").Result()

	switch {
	case state == StateHalfOpen:
		cb.redisClient.HSet(ctx, key, "state", StateOpen)
		cb.logger.Warn("provider circuit re-opened", "tenant_id", tenantID)
	case failures >= int64(cb.failureThreshold):
		cb.redisClient.HSet(ctx, key, "state", StateOpen)
		cb.logger.Warn("provider circuit opened",
			"tenant_id", tenantID,
			"failures", failures,
			"threshold", cb.failureThreshold,
		)
	case state == "":
		cb.redisClient.HSet(ctx, key, "state", StateClosed)
	}
}

// State returns the current circuit state for a tenant.
func (cb *CircuitBreaker) State(ctx context.Context, tenantID string) BreakerState {
	key := breakerKey(tenantID)

	data, err := cb.redisClient.HGetAll(ctx, key).Result()
	if err != nil || len(data) == 0 {
		return BreakerState{State: StateClosed}
	}

	failures, _ := strconv.Atoi(data["failures"])
	state := data["state"]
	if state == "" {
		state = StateClosed
	}

	if state == StateOpen {
		lastFailedAt, _ := strconv.ParseInt(data["last_failed_at"], 10, 64)
		if time.Now().Unix()-lastFailedAt >= int64(cb.cooldownPeriod.Seconds()) {
			state = StateHalfOpen
		}
	}

	result := BreakerState{State: state, Failures: failures}
	if ts, _ := strconv.ParseInt(data["last_failed_at"], 10, 64); ts > 0 {
		result.LastFailedAt = time.Unix(ts, 0).Format(time.RFC3339)
	}
	return result
}
