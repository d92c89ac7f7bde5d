// Package gojob bridges the refresh lifecycle to a go-job queue. The
// scheduler enqueues refresh work for connections nearing token expiry and
// the consumer drains deliveries back into the facade.
package gojob

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-integrations/core"

	job "github.com/goliatone/go-job"
	"github.com/goliatone/go-job/queue"
	"github.com/goliatone/go-job/queue/worker"
)

const JobIDRefresh = "integrations.refresh"

const (
	paramConnectionID  = "connection_id"
	paramIntegrationID = "integration_id"
)

const defaultRefreshLead = 10 * time.Minute

// RetryPolicy bounds queue retries for failed refresh deliveries.
type RetryPolicy struct {
	MaxAttempts     int
	RetryDelay      time.Duration
	MaxDelay        time.Duration
	DeadLetterOnMax bool
}

// RefreshNackOptions is the module-side nack decision. ToNackOptions maps
// it onto the go-job disposition model at the queue boundary.
type RefreshNackOptions struct {
	Delay      time.Duration
	Requeue    bool
	DeadLetter bool
	Reason     string
}

// NackOptions builds the nack for the given attempt, cutting over to
// dead-letter once the attempt budget is spent.
func (p RetryPolicy) NackOptions(attempt int, reason error) RefreshNackOptions {
	opts := RefreshNackOptions{
		Delay:   p.RetryDelay,
		Requeue: true,
	}
	if reason != nil {
		opts.Reason = reason.Error()
	}
	if opts.Delay < 0 {
		opts.Delay = 0
	}
	if p.MaxDelay > 0 && opts.Delay > p.MaxDelay {
		opts.Delay = p.MaxDelay
	}
	if p.MaxAttempts > 0 && attempt >= p.MaxAttempts {
		opts.Requeue = false
		opts.DeadLetter = p.DeadLetterOnMax
	}
	return opts
}

// ToNackOptions maps a module nack decision to go-job.
func ToNackOptions(opts RefreshNackOptions) queue.NackOptions {
	disposition := queue.NackDispositionRetry
	if !opts.Requeue {
		disposition = queue.NackDispositionFailed
		if opts.DeadLetter {
			disposition = queue.NackDispositionDeadLetter
		}
	}
	return queue.NackOptions{
		Disposition: disposition,
		Delay:       opts.Delay,
		Reason:      opts.Reason,
	}
}

// ToExecutionMessage maps a refresh job message to the go-job wire shape.
func ToExecutionMessage(msg *core.RefreshJobMessage) *job.ExecutionMessage {
	if msg == nil {
		return nil
	}
	params := copyAnyMap(msg.Parameters)
	params[paramConnectionID] = strings.TrimSpace(msg.ConnectionID)
	params[paramIntegrationID] = strings.TrimSpace(msg.IntegrationID)
	return &job.ExecutionMessage{
		JobID:          JobIDRefresh,
		Parameters:     params,
		IdempotencyKey: strings.TrimSpace(msg.IdempotencyKey),
	}
}

// FromExecutionMessage recovers the refresh job message from a go-job
// delivery. Messages for other job ids return nil.
func FromExecutionMessage(msg *job.ExecutionMessage) *core.RefreshJobMessage {
	if msg == nil || msg.JobID != JobIDRefresh {
		return nil
	}
	out := &core.RefreshJobMessage{
		IdempotencyKey: strings.TrimSpace(msg.IdempotencyKey),
		Parameters:     map[string]any{},
	}
	for key, value := range msg.Parameters {
		switch key {
		case paramConnectionID:
			out.ConnectionID, _ = value.(string)
		case paramIntegrationID:
			out.IntegrationID, _ = value.(string)
		default:
			out.Parameters[key] = value
		}
	}
	return out
}

// EnqueuerAdapter satisfies core.RefreshJobEnqueuer over a go-job queue.
type EnqueuerAdapter struct {
	enqueuer queue.Enqueuer
}

func NewEnqueuerAdapter(enqueuer queue.Enqueuer) *EnqueuerAdapter {
	return &EnqueuerAdapter{enqueuer: enqueuer}
}

func (a *EnqueuerAdapter) Enqueue(ctx context.Context, msg *core.RefreshJobMessage) error {
	if a == nil || a.enqueuer == nil {
		return fmt.Errorf("gojob: enqueuer is not configured")
	}
	if msg == nil || strings.TrimSpace(msg.ConnectionID) == "" {
		return fmt.Errorf("gojob: refresh message requires a connection id")
	}
	if _, err := a.enqueuer.Enqueue(ctx, ToExecutionMessage(msg)); err != nil {
		return err
	}
	return nil
}

// RefreshScheduler walks registered integrations and enqueues refresh work
// for connected connections whose tokens expire within the lead window.
type RefreshScheduler struct {
	Connections core.ConnectionStore
	Registry    *core.IntegrationRegistry
	Enqueuer    core.RefreshJobEnqueuer
	Lead        time.Duration
	Logger      core.Logger
	Now         func() time.Time
}

func NewRefreshScheduler(
	connections core.ConnectionStore,
	registry *core.IntegrationRegistry,
	enqueuer core.RefreshJobEnqueuer,
) *RefreshScheduler {
	return &RefreshScheduler{
		Connections: connections,
		Registry:    registry,
		Enqueuer:    enqueuer,
	}
}

// ScheduleDue enqueues one refresh message per due connection and returns
// the number scheduled. Enqueue failures stop the scan.
func (s *RefreshScheduler) ScheduleDue(ctx context.Context) (int, error) {
	if s == nil || s.Connections == nil || s.Registry == nil || s.Enqueuer == nil {
		return 0, fmt.Errorf("gojob: refresh scheduler requires connections, registry, and enqueuer")
	}

	lead := s.Lead
	if lead <= 0 {
		lead = defaultRefreshLead
	}
	deadline := s.now().Add(lead)

	scheduled := 0
	for _, integration := range s.Registry.List() {
		connections, err := s.Connections.ListByIntegration(ctx, integration.ID)
		if err != nil {
			return scheduled, fmt.Errorf("gojob: list %s connections: %w", integration.ID, err)
		}
		for _, connection := range connections {
			if !refreshDue(connection, deadline) {
				continue
			}
			msg := &core.RefreshJobMessage{
				ConnectionID:   connection.ID,
				IntegrationID:  connection.IntegrationID,
				IdempotencyKey: refreshIdempotencyKey(connection),
			}
			if err := s.Enqueuer.Enqueue(ctx, msg); err != nil {
				return scheduled, fmt.Errorf("gojob: enqueue refresh for %s: %w", connection.ID, err)
			}
			scheduled++
			if s.Logger != nil {
				s.Logger.Debug("scheduled token refresh",
					"connection_id", connection.ID,
					"integration_id", connection.IntegrationID,
					"expires_at", connection.ExpiresAt,
				)
			}
		}
	}
	return scheduled, nil
}

func (s *RefreshScheduler) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

func refreshDue(connection core.Connection, deadline time.Time) bool {
	if connection.Status != core.ConnectionStatusConnected {
		return false
	}
	if connection.ExpiresAt.IsZero() {
		return false
	}
	return !connection.ExpiresAt.After(deadline)
}

// refreshIdempotencyKey dedupes repeated scans of the same expiring token.
func refreshIdempotencyKey(connection core.Connection) string {
	return fmt.Sprintf("%s::%s::%d", JobIDRefresh, connection.ID, connection.ExpiresAt.Unix())
}

// RefreshService is the slice of the facade the consumer needs.
type RefreshService interface {
	Refresh(ctx context.Context, connectionID string) (core.Connection, error)
}

// RefreshConsumer drains refresh deliveries into the service, acking on
// success and nacking within the retry policy otherwise.
type RefreshConsumer struct {
	Service RefreshService
	Policy  RetryPolicy
	Logger  core.Logger
}

func NewRefreshConsumer(service RefreshService, policy RetryPolicy) *RefreshConsumer {
	return &RefreshConsumer{Service: service, Policy: policy}
}

// ConsumeOne dequeues and processes a single delivery.
func (c *RefreshConsumer) ConsumeOne(ctx context.Context, dequeuer queue.Dequeuer) error {
	if dequeuer == nil {
		return fmt.Errorf("gojob: dequeuer is required")
	}
	delivery, err := dequeuer.Dequeue(ctx)
	if err != nil {
		return err
	}
	return c.Process(ctx, delivery, 1)
}

// Process refreshes the connection named by the delivery. The attempt count
// feeds the retry policy so exhausted deliveries stop requeueing.
func (c *RefreshConsumer) Process(ctx context.Context, delivery queue.Delivery, attempt int) error {
	if c == nil || c.Service == nil {
		return fmt.Errorf("gojob: refresh consumer requires a service")
	}
	if delivery == nil {
		return fmt.Errorf("gojob: delivery is required")
	}

	msg := FromExecutionMessage(delivery.Message())
	if msg == nil || strings.TrimSpace(msg.ConnectionID) == "" {
		nackErr := delivery.Nack(ctx, ToNackOptions(RefreshNackOptions{
			DeadLetter: true,
			Reason:     "malformed refresh delivery",
		}))
		if nackErr != nil {
			return nackErr
		}
		return fmt.Errorf("gojob: delivery is not a refresh message")
	}

	if _, err := c.Service.Refresh(ctx, msg.ConnectionID); err != nil {
		if c.Logger != nil {
			c.Logger.Error("token refresh failed",
				"connection_id", msg.ConnectionID,
				"attempt", attempt,
				"error", err,
			)
		}
		if nackErr := delivery.Nack(ctx, ToNackOptions(c.Policy.NackOptions(attempt, err))); nackErr != nil {
			return nackErr
		}
		return err
	}
	return delivery.Ack(ctx)
}

// LoggingWorkerHook surfaces go-job worker lifecycle events through the
// module logger.
type LoggingWorkerHook struct {
	Logger core.Logger
}

func (h *LoggingWorkerHook) OnStart(_ context.Context, event worker.Event) {
	if h == nil || h.Logger == nil {
		return
	}
	h.Logger.Debug("refresh worker started", "connection_id", eventConnectionID(event))
}

func (h *LoggingWorkerHook) OnSuccess(_ context.Context, event worker.Event) {
	if h == nil || h.Logger == nil {
		return
	}
	h.Logger.Info("refresh worker succeeded",
		"connection_id", eventConnectionID(event),
		"duration", event.Duration,
	)
}

func (h *LoggingWorkerHook) OnFailure(_ context.Context, event worker.Event) {
	if h == nil || h.Logger == nil {
		return
	}
	h.Logger.Error("refresh worker failed",
		"connection_id", eventConnectionID(event),
		"attempt", event.Attempt,
		"error", event.Err,
	)
}

func (h *LoggingWorkerHook) OnRetry(_ context.Context, event worker.Event) {
	if h == nil || h.Logger == nil {
		return
	}
	h.Logger.Warn("refresh worker retrying",
		"connection_id", eventConnectionID(event),
		"attempt", event.Attempt,
		"delay", event.Delay,
	)
}

func eventConnectionID(event worker.Event) string {
	message := event.Message
	if message == nil && event.Delivery != nil {
		message = event.Delivery.Message()
	}
	if refresh := FromExecutionMessage(message); refresh != nil {
		return refresh.ConnectionID
	}
	return ""
}

func copyAnyMap(in map[string]any) map[string]any {
	out := make(map[string]any, len(in)+2)
	for key, value := range in {
		out[key] = value
	}
	return out
}

var (
	_ core.RefreshJobEnqueuer = (*EnqueuerAdapter)(nil)
	_ worker.Hook             = (*LoggingWorkerHook)(nil)
)
