package integrations

import (
	"context"
	"fmt"
	"strings"

	"github.com/goliatone/go-integrations/core"
	"github.com/goliatone/go-integrations/inbound"
	integrationsync "github.com/goliatone/go-integrations/sync"
	"github.com/goliatone/go-integrations/webhooks"
)

// WebhookEventHandler consumes one inbound webhook event.
type WebhookEventHandler = webhooks.EventHandler

// Facade composes the lifecycle service with the sync orchestrator and the
// webhook registry behind the IntegrationService surface.
type Facade struct {
	service  *core.Service
	sync     *integrationsync.Orchestrator
	webhooks *webhooks.Registry
}

type FacadeOption func(*facadeOptions)

type facadeOptions struct {
	webhookCallbackURL string
	webhookMaxFailures int
	syncOrchestrator   *integrationsync.Orchestrator
	webhookRegistry    *webhooks.Registry
}

// WithWebhookCallbackURL sets the inbound delivery URL template used when
// registering provider webhooks. A {connectionId} placeholder is substituted
// per registration.
func WithWebhookCallbackURL(url string) FacadeOption {
	return func(options *facadeOptions) {
		options.webhookCallbackURL = strings.TrimSpace(url)
	}
}

// WithWebhookMaxFailures deactivates a webhook after that many consecutive
// dispatch failures.
func WithWebhookMaxFailures(max int) FacadeOption {
	return func(options *facadeOptions) {
		options.webhookMaxFailures = max
	}
}

func WithSyncOrchestrator(orchestrator *integrationsync.Orchestrator) FacadeOption {
	return func(options *facadeOptions) {
		options.syncOrchestrator = orchestrator
	}
}

func WithWebhookRegistry(registry *webhooks.Registry) FacadeOption {
	return func(options *facadeOptions) {
		options.webhookRegistry = registry
	}
}

// NewFacade wires the sync orchestrator and webhook registry from the
// service's own dependencies so every component shares one set of stores.
func NewFacade(service *core.Service, opts ...FacadeOption) (*Facade, error) {
	if service == nil {
		return nil, fmt.Errorf("integrations: service is required")
	}
	cfg := facadeOptions{}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}

	deps := service.Dependencies()

	orchestrator := cfg.syncOrchestrator
	if orchestrator == nil {
		orchestrator = integrationsync.NewOrchestrator(
			deps.ConnectionStore,
			deps.SyncProgressStore,
			deps.Registry,
			service,
		)
		orchestrator.Logger = deps.Logger
	}

	registry := cfg.webhookRegistry
	if registry == nil {
		registry = webhooks.NewRegistry(
			deps.ConnectionStore,
			deps.WebhookStore,
			deps.Registry,
			service,
		)
		registry.Logger = deps.Logger
		if cfg.webhookCallbackURL != "" {
			registry.CallbackURL = cfg.webhookCallbackURL
		}
		if cfg.webhookMaxFailures > 0 {
			registry.MaxFailures = cfg.webhookMaxFailures
		}
	}

	return &Facade{
		service:  service,
		sync:     orchestrator,
		webhooks: registry,
	}, nil
}

// WebhookIngress builds an inbound delivery dispatcher that verifies
// provider signatures against stored webhook secrets, dedupes through the
// claim store, and routes to this facade's webhook registry. A nil claim
// store falls back to an in-process one.
func (f *Facade) WebhookIngress(claims inbound.ClaimStore) *inbound.Dispatcher {
	if f == nil || f.service == nil {
		return nil
	}
	if claims == nil {
		claims = inbound.NewMemoryClaimStore()
	}
	verifier := inbound.NewHMACVerifier(f.service.Dependencies().WebhookStore)
	return inbound.NewDispatcher(verifier, claims, f.webhooks)
}

func (f *Facade) Service() *core.Service {
	if f == nil {
		return nil
	}
	return f.service
}

// OnWebhookEvent binds an event name to a handler. Dispatching an event
// without a binding is rejected.
func (f *Facade) OnWebhookEvent(event string, handler WebhookEventHandler) {
	if f == nil || f.webhooks == nil {
		return
	}
	f.webhooks.Handle(event, handler)
}

func (f *Facade) RegisterIntegration(ctx context.Context, integration core.Integration, adapter core.ProviderAdapter) error {
	return f.service.RegisterIntegration(ctx, integration, adapter)
}

func (f *Facade) ListIntegrations(ctx context.Context) []core.Integration {
	return f.service.ListIntegrations(ctx)
}

func (f *Facade) GetIntegration(ctx context.Context, id string) (core.Integration, bool) {
	return f.service.GetIntegration(ctx, id)
}

func (f *Facade) Connect(ctx context.Context, integrationID string, userID string) (core.ConnectResult, error) {
	return f.service.Connect(ctx, integrationID, userID)
}

func (f *Facade) HandleCallback(ctx context.Context, req core.CallbackRequest) (core.Connection, error) {
	return f.service.HandleCallback(ctx, req)
}

func (f *Facade) Refresh(ctx context.Context, connectionID string) (core.Connection, error) {
	return f.service.Refresh(ctx, connectionID)
}

func (f *Facade) Disconnect(ctx context.Context, connectionID string) (core.Connection, error) {
	return f.service.Disconnect(ctx, connectionID)
}

func (f *Facade) GetConnection(ctx context.Context, connectionID string) (core.Connection, error) {
	return f.service.GetConnection(ctx, connectionID)
}

func (f *Facade) ListConnections(ctx context.Context, userID string) ([]core.Connection, error) {
	return f.service.ListConnections(ctx, userID)
}

func (f *Facade) ExecuteEndpoint(ctx context.Context, connectionID string, endpointID string, params map[string]any) (any, error) {
	return f.service.ExecuteEndpoint(ctx, connectionID, endpointID, params)
}

func (f *Facade) Sync(ctx context.Context, connectionID string, dataTypes []string) (core.SyncResult, error) {
	return f.sync.Run(ctx, connectionID, dataTypes)
}

func (f *Facade) SyncStatus(ctx context.Context, connectionID string) core.SyncProgress {
	return f.sync.Status(ctx, connectionID)
}

func (f *Facade) RegisterWebhook(ctx context.Context, connectionID string, events []string) (core.Webhook, error) {
	return f.webhooks.Register(ctx, connectionID, events)
}

func (f *Facade) UnregisterWebhook(ctx context.Context, webhookID string) error {
	return f.webhooks.Unregister(ctx, webhookID)
}

func (f *Facade) DispatchWebhook(ctx context.Context, webhookID string, event string, payload map[string]any) error {
	return f.webhooks.Dispatch(ctx, webhookID, event, payload)
}

var _ core.IntegrationService = (*Facade)(nil)
