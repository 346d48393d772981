// Package pipeline sequences one inbound storefront event through tenant
// resolution, policy gating, transformation and forwarding, and records
// the outcome.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/craftpixel/event-relay/internal/domain"
	"github.com/craftpixel/event-relay/internal/engine"
	"github.com/craftpixel/event-relay/internal/klaviyo"
	"github.com/craftpixel/event-relay/internal/policy"
	"github.com/craftpixel/event-relay/internal/store"
	"github.com/google/uuid"
)

// Status is the terminal outcome of one pipeline run.
type Status int

const (
	StatusTenantNotFound Status = iota
	StatusEventDisabled
	StatusNoConsent
	StatusForwarded
	StatusSkippedNoKey
)

// Result is what the HTTP boundary turns into a response. Every run
// produces exactly one.
type Result struct {
	Status   Status
	Message  string
	RunID    string
	TenantID string
}

// Resolver maps a shop domain to its tenant, (nil, nil) when unknown.
type Resolver interface {
	Resolve(ctx context.Context, shopDomain string) (*domain.Tenant, error)
}

// Recorder persists failure records and debug logs. Implemented by
// store.PostgresStore.
type Recorder interface {
	InsertFailedEvent(ctx context.Context, rec store.FailedEventRecord) error
	InsertDebugLog(ctx context.Context, rec store.DebugLogRecord) error
}

// Sender performs the outbound provider call.
type Sender interface {
	Send(ctx context.Context, apiKey string, event klaviyo.Event) error
}

// Pipeline runs the intake steps strictly in sequence. Runs share no
// mutable state, so concurrent requests need no coordination here.
type Pipeline struct {
	resolver Resolver
	recorder Recorder
	sender   Sender
	breaker  *engine.CircuitBreaker
	limiter  *engine.RateLimiter
	logger   *slog.Logger
	now      func() time.Time
}

// New creates a pipeline. The breaker and limiter are optional; pass nil
// to forward without guarding.
func New(resolver Resolver, recorder Recorder, sender Sender, breaker *engine.CircuitBreaker, limiter *engine.RateLimiter, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		resolver: resolver,
		recorder: recorder,
		sender:   sender,
		breaker:  breaker,
		limiter:  limiter,
		logger:   logger,
		now:      time.Now,
	}
}

// Process runs one inbound event to a terminal state. raw is the original
// request body verbatim, kept aside for failure records.
//
// A forwarding failure does not fail the run: it is recorded and the run
// completes successfully. Only resolver errors and persistence failures
// surface as errors, and a persistence failure after a successful forward
// still becomes an error for the caller.
func (p *Pipeline) Process(ctx context.Context, req domain.TrackRequest, raw json.RawMessage) (Result, error) {
	runID := uuid.NewString()

	t, err := p.resolver.Resolve(ctx, req.ShopDomain)
	if err != nil {
		return Result{}, fmt.Errorf("resolving tenant: %w", err)
	}
	if t == nil {
		p.logger.Info("shop not found", "shop_domain", req.ShopDomain, "run_id", runID)
		return Result{Status: StatusTenantNotFound, RunID: runID}, nil
	}

	switch policy.Evaluate(t, req.Event) {
	case policy.EventDisabled:
		p.logger.Info("event tracking disabled",
			"tenant_id", t.ID, "event", req.Event, "run_id", runID)
		return Result{Status: StatusEventDisabled, Message: "Event tracking disabled", RunID: runID, TenantID: t.ID}, nil
	case policy.NoConsent:
		p.logger.Info("no marketing consent",
			"tenant_id", t.ID, "event", req.Event, "run_id", runID)
		return Result{Status: StatusNoConsent, Message: "No marketing consent", RunID: runID, TenantID: t.ID}, nil
	}

	enriched := domain.EnrichedEvent{
		Data:           req.Data,
		StoreDomain:    t.ShopDomain,
		EventTimestamp: req.Timestamp,
		ReceivedAt:     p.now(),
	}

	status := StatusSkippedNoKey
	if t.KlaviyoAPIKey != "" {
		status = StatusForwarded
		if ferr := p.forward(ctx, t, req.Event, enriched); ferr != nil {
			p.logger.Warn("forward to provider failed",
				"tenant_id", t.ID, "event", req.Event, "error", ferr, "run_id", runID)

			rec := store.FailedEventRecord{
				TenantID:  t.ID,
				EventType: req.Event,
				Payload:   raw,
				Error:     ferr.Error(),
			}
			if err := p.recorder.InsertFailedEvent(ctx, rec); err != nil {
				return Result{}, fmt.Errorf("recording failed event: %w", err)
			}
		}
	}

	if err := p.writeDebugLog(ctx, t.ID, req, runID); err != nil {
		return Result{}, err
	}

	return Result{Status: status, Message: "Event tracked successfully", RunID: runID, TenantID: t.ID}, nil
}

// forward sends one event through the guard. Guard rejections come back
// as errors so they leave the same failure record a provider rejection
// would.
func (p *Pipeline) forward(ctx context.Context, t *domain.Tenant, eventName string, enriched domain.EnrichedEvent) error {
	if p.breaker != nil {
		if state, allowed := p.breaker.Allow(ctx, t.ID); !allowed {
			return fmt.Errorf("provider circuit %s for tenant %s", state, t.ID)
		}
	}
	if p.limiter != nil && !p.limiter.Allow(ctx, t.ID, t.RateLimitPerSecond) {
		return fmt.Errorf("provider rate limit exceeded for tenant %s", t.ID)
	}

	event := klaviyo.BuildEvent(eventName, enriched)

	if err := p.sender.Send(ctx, t.KlaviyoAPIKey, event); err != nil {
		if p.breaker != nil {
			p.breaker.RecordFailure(ctx, t.ID)
		}
		return err
	}

	if p.breaker != nil {
		p.breaker.RecordSuccess(ctx, t.ID)
	}
	return nil
}

func (p *Pipeline) writeDebugLog(ctx context.Context, tenantID string, req domain.TrackRequest, runID string) error {
	meta, err := json.Marshal(map[string]string{
		"event":     req.Event,
		"timestamp": req.Timestamp,
		"run_id":    runID,
	})
	if err != nil {
		return fmt.Errorf("encoding debug log metadata: %w", err)
	}

	rec := store.DebugLogRecord{
		TenantID: tenantID,
		Level:    "info",
		Message:  fmt.Sprintf("Event processed: %s", req.Event),
		Metadata: meta,
	}
	if err := p.recorder.InsertDebugLog(ctx, rec); err != nil {
		return fmt.Errorf("writing debug log: %w", err)
	}
	return nil
}
