package inbound

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-integrations/core"
)

// Delivery is a provider-originated webhook notification. Body carries the
// raw request payload for signature verification; Payload is the decoded
// event data handed to the registry.
type Delivery struct {
	WebhookID string
	Event     string
	Payload   map[string]any
	Body      []byte
	Headers   map[string]string
	Metadata  map[string]any
}

// Result reports how a delivery was handled. Deduped deliveries are
// accepted without being dispatched again.
type Result struct {
	Accepted bool
	Deduped  bool
}

// Verifier authenticates a delivery before it is dispatched.
type Verifier interface {
	Verify(ctx context.Context, delivery Delivery) error
}

// EventDispatcher routes an accepted delivery to its registered handler.
// *webhooks.Registry satisfies this.
type EventDispatcher interface {
	Dispatch(ctx context.Context, webhookID string, event string, payload map[string]any) error
}

// ClaimStore provides at-most-once processing per idempotency key. Claim
// returns accepted=false when another delivery already holds or completed
// the key. Fail releases the claim so a retry can reclaim it.
type ClaimStore interface {
	Claim(ctx context.Context, key string, lease time.Duration) (claimID string, accepted bool, err error)
	Complete(ctx context.Context, claimID string) error
	Fail(ctx context.Context, claimID string, cause error, retryAt time.Time) error
}

// KeyExtractor resolves the idempotency key for a delivery.
type KeyExtractor func(delivery Delivery) (string, error)

const defaultClaimLease = 10 * time.Minute

// Dispatcher verifies, dedupes, and routes inbound webhook deliveries.
type Dispatcher struct {
	Verifier   Verifier
	Claims     ClaimStore
	Events     EventDispatcher
	ExtractKey KeyExtractor
	ClaimLease time.Duration
}

func NewDispatcher(verifier Verifier, claims ClaimStore, events EventDispatcher) *Dispatcher {
	return &Dispatcher{
		Verifier:   verifier,
		Claims:     claims,
		Events:     events,
		ExtractKey: DefaultKeyExtractor,
		ClaimLease: defaultClaimLease,
	}
}

// Dispatch processes one delivery end to end. Duplicate deliveries return
// Result{Accepted: true, Deduped: true} without reaching the registry.
func (d *Dispatcher) Dispatch(ctx context.Context, delivery Delivery) (Result, error) {
	if d == nil || d.Events == nil {
		return Result{}, ingressInternal("inbound: dispatcher is not configured", nil)
	}
	delivery.WebhookID = strings.TrimSpace(delivery.WebhookID)
	delivery.Event = strings.TrimSpace(delivery.Event)
	if delivery.WebhookID == "" {
		return Result{}, ingressBadInput("inbound: webhook id is required", nil)
	}
	if delivery.Event == "" {
		return Result{}, ingressBadInput("inbound: event is required", map[string]any{
			"webhook_id": delivery.WebhookID,
		})
	}
	if d.Verifier != nil {
		if err := d.Verifier.Verify(ctx, delivery); err != nil {
			return Result{}, goerrors.Wrap(err, goerrors.CategoryAuth, "inbound: delivery verification failed").
				WithTextCode(core.IntegrationErrorBadInput).
				WithMetadata(map[string]any{
					"webhook_id": delivery.WebhookID,
					"event":      delivery.Event,
				})
		}
	}

	claimID := ""
	if d.Claims != nil {
		extractor := d.ExtractKey
		if extractor == nil {
			extractor = DefaultKeyExtractor
		}
		key, err := extractor(delivery)
		if err != nil {
			return Result{}, err
		}
		var accepted bool
		claimID, accepted, err = d.Claims.Claim(ctx, claimKey(delivery, key), d.claimLease())
		if err != nil {
			return Result{}, goerrors.Wrap(err, goerrors.CategoryOperation, "inbound: idempotency claim failed").
				WithTextCode(core.IntegrationErrorInternal).
				WithMetadata(map[string]any{
					"webhook_id":      delivery.WebhookID,
					"event":           delivery.Event,
					"idempotency_key": key,
				})
		}
		if !accepted {
			return Result{Accepted: true, Deduped: true}, nil
		}
	}

	if err := d.Events.Dispatch(ctx, delivery.WebhookID, delivery.Event, delivery.Payload); err != nil {
		dispatchErr := goerrors.Wrap(err, goerrors.CategoryOperation, "inbound: delivery dispatch failed").
			WithTextCode(core.IntegrationErrorInternal).
			WithMetadata(map[string]any{
				"webhook_id": delivery.WebhookID,
				"event":      delivery.Event,
			})
		if d.Claims != nil && claimID != "" {
			if failErr := d.Claims.Fail(ctx, claimID, err, time.Time{}); failErr != nil {
				return Result{}, errors.Join(dispatchErr, failErr)
			}
		}
		return Result{}, dispatchErr
	}
	if d.Claims != nil && claimID != "" {
		if err := d.Claims.Complete(ctx, claimID); err != nil {
			return Result{}, goerrors.Wrap(err, goerrors.CategoryOperation, "inbound: complete idempotency claim").
				WithTextCode(core.IntegrationErrorInternal).
				WithMetadata(map[string]any{
					"webhook_id": delivery.WebhookID,
					"claim_id":   claimID,
				})
		}
	}
	return Result{Accepted: true}, nil
}

func (d *Dispatcher) claimLease() time.Duration {
	if d != nil && d.ClaimLease > 0 {
		return d.ClaimLease
	}
	return defaultClaimLease
}

func claimKey(delivery Delivery, key string) string {
	return delivery.WebhookID + ":" + delivery.Event + ":" + key
}

// DefaultKeyExtractor prefers an explicit idempotency key, then the
// provider's delivery or message identifier, from metadata or headers.
func DefaultKeyExtractor(delivery Delivery) (string, error) {
	for _, field := range []string{"idempotency_key", "delivery_id", "message_id"} {
		if value := trimAny(delivery.Metadata[field]); value != "" {
			return value, nil
		}
	}
	for _, header := range []string{"Idempotency-Key", "X-Idempotency-Key", "X-Delivery-ID", "X-Message-ID"} {
		if value := headerValue(delivery.Headers, header); value != "" {
			return value, nil
		}
	}
	return "", ingressBadInput("inbound: idempotency key is required", map[string]any{
		"webhook_id": delivery.WebhookID,
		"event":      delivery.Event,
	})
}

func trimAny(value any) string {
	if value == nil {
		return ""
	}
	return strings.TrimSpace(fmt.Sprint(value))
}

func headerValue(headers map[string]string, key string) string {
	for name, value := range headers {
		if strings.EqualFold(strings.TrimSpace(name), key) {
			return strings.TrimSpace(value)
		}
	}
	return ""
}

func ingressBadInput(message string, metadata map[string]any) error {
	err := goerrors.New(message, goerrors.CategoryBadInput).
		WithTextCode(core.IntegrationErrorBadInput)
	if len(metadata) > 0 {
		err.WithMetadata(metadata)
	}
	return err
}

func ingressInternal(message string, metadata map[string]any) error {
	err := goerrors.New(message, goerrors.CategoryInternal).
		WithTextCode(core.IntegrationErrorInternal)
	if len(metadata) > 0 {
		err.WithMetadata(metadata)
	}
	return err
}
