// Package webhooks manages provider webhook subscriptions and dispatches
// inbound events to configured handlers.
package webhooks

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/goliatone/go-integrations/core"
	"github.com/google/uuid"
)

const defaultMaxFailures = 8

// TokenSource hands out the decrypted access token for a connection.
type TokenSource interface {
	AccessToken(ctx context.Context, connectionID string) (string, error)
}

// EventHandler consumes one inbound webhook event for the connection that
// owns the webhook.
type EventHandler func(ctx context.Context, connection core.Connection, webhook core.Webhook, event string, payload map[string]any) error

type Registry struct {
	Connections core.ConnectionStore
	Webhooks    core.WebhookStore
	Integration *core.IntegrationRegistry
	Tokens      TokenSource
	Logger      core.Logger
	// CallbackURL is the inbound delivery URL template. A {connectionId}
	// placeholder is substituted per registration.
	CallbackURL string
	// MaxFailures deactivates a webhook after that many consecutive
	// dispatch failures.
	MaxFailures int
	Now         func() time.Time

	mu       sync.RWMutex
	handlers map[string]EventHandler
}

func NewRegistry(
	connections core.ConnectionStore,
	webhookStore core.WebhookStore,
	integrations *core.IntegrationRegistry,
	tokens TokenSource,
) *Registry {
	return &Registry{
		Connections: connections,
		Webhooks:    webhookStore,
		Integration: integrations,
		Tokens:      tokens,
		MaxFailures: defaultMaxFailures,
		Now: func() time.Time {
			return time.Now().UTC()
		},
		handlers: map[string]EventHandler{},
	}
}

// Handle binds an event name to a handler. Dispatch rejects events without
// a binding.
func (r *Registry) Handle(event string, handler EventHandler) {
	if r == nil || handler == nil {
		return
	}
	event = strings.ToLower(strings.TrimSpace(event))
	if event == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.handlers == nil {
		r.handlers = map[string]EventHandler{}
	}
	r.handlers[event] = handler
}

// Register subscribes the connection to the given events with the provider
// and persists the webhook record. Only connected integrations may register.
func (r *Registry) Register(ctx context.Context, connectionID string, events []string) (core.Webhook, error) {
	if r == nil || r.Connections == nil || r.Webhooks == nil || r.Integration == nil {
		return core.Webhook{}, fmt.Errorf("webhooks: registry requires connection, webhook, and integration dependencies")
	}
	connection, err := r.Connections.Get(ctx, strings.TrimSpace(connectionID))
	if err != nil {
		return core.Webhook{}, err
	}
	if connection.Status != core.ConnectionStatusConnected {
		return core.Webhook{}, fmt.Errorf(
			"%w: webhook registration requires a connected integration, connection %s is %s",
			core.ErrNotConnected, connection.ID, connection.Status,
		)
	}
	if len(normalizeEvents(events)) == 0 {
		return core.Webhook{}, fmt.Errorf("webhooks: at least one event is required")
	}

	integration, ok := r.Integration.Get(connection.IntegrationID)
	if !ok {
		return core.Webhook{}, fmt.Errorf("%w: %s", core.ErrIntegrationNotFound, connection.IntegrationID)
	}
	adapter, ok := r.Integration.Adapter(connection.IntegrationID)
	if !ok {
		return core.Webhook{}, fmt.Errorf("%w: %s", core.ErrAdapterNotFound, connection.IntegrationID)
	}

	accessToken := ""
	if r.Tokens != nil {
		accessToken, err = r.Tokens.AccessToken(ctx, connection.ID)
		if err != nil {
			return core.Webhook{}, err
		}
	}

	webhook, err := adapter.RegisterWebhook(ctx, core.RegisterWebhookRequest{
		Integration: integration,
		Connection:  connection,
		AccessToken: accessToken,
		Events:      normalizeEvents(events),
		CallbackURL: r.callbackURL(connection),
	})
	if err != nil {
		return core.Webhook{}, err
	}

	now := r.now()
	if strings.TrimSpace(webhook.ID) == "" {
		webhook.ID = uuid.NewString()
	}
	if strings.TrimSpace(webhook.Secret) == "" {
		webhook.Secret = uuid.NewString()
	}
	webhook.ConnectionID = connection.ID
	webhook.IntegrationID = connection.IntegrationID
	if len(webhook.Events) == 0 {
		webhook.Events = normalizeEvents(events)
	}
	webhook.Active = true
	webhook.FailureCount = 0
	webhook.CreatedAt = now
	webhook.UpdatedAt = now
	return r.Webhooks.Save(ctx, webhook)
}

// Unregister confirms removal with the provider before deleting the record.
// An unconfirmed removal keeps the record so a later retry can finish it.
func (r *Registry) Unregister(ctx context.Context, webhookID string) error {
	if r == nil || r.Webhooks == nil || r.Integration == nil {
		return fmt.Errorf("webhooks: registry requires webhook and integration dependencies")
	}
	webhook, err := r.Webhooks.Get(ctx, strings.TrimSpace(webhookID))
	if err != nil {
		return err
	}

	integration, ok := r.Integration.Get(webhook.IntegrationID)
	if !ok {
		return fmt.Errorf("%w: %s", core.ErrIntegrationNotFound, webhook.IntegrationID)
	}
	adapter, ok := r.Integration.Adapter(webhook.IntegrationID)
	if !ok {
		return fmt.Errorf("%w: %s", core.ErrAdapterNotFound, webhook.IntegrationID)
	}

	connection := core.Connection{ID: webhook.ConnectionID, IntegrationID: webhook.IntegrationID}
	if r.Connections != nil {
		if loaded, loadErr := r.Connections.Get(ctx, webhook.ConnectionID); loadErr == nil {
			connection = loaded
		}
	}
	accessToken := ""
	if r.Tokens != nil {
		if token, tokenErr := r.Tokens.AccessToken(ctx, connection.ID); tokenErr == nil {
			accessToken = token
		}
	}

	confirmed, err := adapter.UnregisterWebhook(ctx, core.UnregisterWebhookRequest{
		Integration: integration,
		Connection:  connection,
		AccessToken: accessToken,
		Webhook:     webhook,
	})
	if err != nil {
		return err
	}
	if !confirmed {
		return fmt.Errorf("webhooks: provider did not confirm removal of webhook %s", webhook.ID)
	}
	return r.Webhooks.Delete(ctx, webhook.ID)
}

// Dispatch routes an inbound event to its handler. Consecutive failures are
// counted on the webhook and deactivate it past MaxFailures.
func (r *Registry) Dispatch(ctx context.Context, webhookID string, event string, payload map[string]any) error {
	if r == nil || r.Webhooks == nil {
		return fmt.Errorf("webhooks: registry requires a webhook store")
	}
	webhook, err := r.Webhooks.Get(ctx, strings.TrimSpace(webhookID))
	if err != nil {
		return err
	}
	event = strings.TrimSpace(event)
	if !webhook.Active {
		return fmt.Errorf("webhooks: webhook %s is inactive", webhook.ID)
	}
	if !webhook.Subscribes(event) {
		return fmt.Errorf("%w: webhook %s does not subscribe to %q", core.ErrEventNotConfigured, webhook.ID, event)
	}

	handler := r.handler(event)
	if handler == nil {
		return fmt.Errorf("%w: no handler bound for %q", core.ErrEventNotConfigured, event)
	}

	connection := core.Connection{ID: webhook.ConnectionID, IntegrationID: webhook.IntegrationID}
	if r.Connections != nil {
		if loaded, loadErr := r.Connections.Get(ctx, webhook.ConnectionID); loadErr == nil {
			connection = loaded
		}
	}

	now := r.now()
	if handlerErr := handler(ctx, connection, webhook, event, payload); handlerErr != nil {
		webhook.FailureCount++
		webhook.UpdatedAt = now
		if webhook.FailureCount >= r.maxFailures() {
			webhook.Active = false
		}
		if _, saveErr := r.Webhooks.Save(ctx, webhook); saveErr != nil {
			r.logError("webhooks: record dispatch failure", saveErr)
		}
		return handlerErr
	}

	webhook.FailureCount = 0
	webhook.LastTriggeredAt = &now
	webhook.UpdatedAt = now
	if _, saveErr := r.Webhooks.Save(ctx, webhook); saveErr != nil {
		r.logError("webhooks: record dispatch", saveErr)
	}
	return nil
}

func (r *Registry) handler(event string) EventHandler {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.handlers[strings.ToLower(strings.TrimSpace(event))]
}

func (r *Registry) callbackURL(connection core.Connection) string {
	template := strings.TrimSpace(r.CallbackURL)
	if template == "" {
		return ""
	}
	return strings.ReplaceAll(template, "{connectionId}", connection.ID)
}

func (r *Registry) maxFailures() int {
	if r != nil && r.MaxFailures > 0 {
		return r.MaxFailures
	}
	return defaultMaxFailures
}

func (r *Registry) now() time.Time {
	if r != nil && r.Now != nil {
		return r.Now().UTC()
	}
	return time.Now().UTC()
}

func (r *Registry) logError(msg string, err error) {
	if r == nil || r.Logger == nil {
		return
	}
	r.Logger.Error(msg, "error", err)
}

func normalizeEvents(events []string) []string {
	if len(events) == 0 {
		return nil
	}
	out := make([]string, 0, len(events))
	seen := map[string]struct{}{}
	for _, event := range events {
		event = strings.ToLower(strings.TrimSpace(event))
		if event == "" {
			continue
		}
		if _, ok := seen[event]; ok {
			continue
		}
		seen[event] = struct{}{}
		out = append(out, event)
	}
	return out
}
