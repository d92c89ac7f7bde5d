package integrations

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/goliatone/go-integrations/core"
	"github.com/goliatone/go-integrations/inbound"
)

func TestNewFacade_RequiresService(t *testing.T) {
	if _, err := NewFacade(nil); err == nil {
		t.Fatalf("expected nil service to be rejected")
	}
}

func TestFacade_ConnectionLifecycle(t *testing.T) {
	ctx := context.Background()
	facade, adapter := newTestFacade(t)

	result, err := facade.Connect(ctx, "google-calendar", "usr_1")
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	if result.AuthURL == "" || result.State == "" {
		t.Fatalf("expected auth url and state, got %+v", result)
	}
	if result.Connection.Status != core.ConnectionStatusPending {
		t.Fatalf("expected pending connection, got %s", result.Connection.Status)
	}

	connection, err := facade.HandleCallback(ctx, core.CallbackRequest{
		Code:   "auth-code",
		State:  result.State,
		UserID: "usr_1",
	})
	if err != nil {
		t.Fatalf("handle callback: %v", err)
	}
	if connection.Status != core.ConnectionStatusConnected {
		t.Fatalf("expected connected, got %s", connection.Status)
	}

	fetched, err := facade.GetConnection(ctx, connection.ID)
	if err != nil {
		t.Fatalf("get connection: %v", err)
	}
	if fetched.ID != connection.ID {
		t.Fatalf("expected connection %q, got %q", connection.ID, fetched.ID)
	}

	listed, err := facade.ListConnections(ctx, "usr_1")
	if err != nil {
		t.Fatalf("list connections: %v", err)
	}
	if len(listed) != 1 {
		t.Fatalf("expected 1 connection, got %d", len(listed))
	}

	refreshed, err := facade.Refresh(ctx, connection.ID)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if refreshed.LastRefreshedAt == nil {
		t.Fatalf("expected refresh timestamp")
	}
	if adapter.refreshCalls() != 1 {
		t.Fatalf("expected one adapter refresh, got %d", adapter.refreshCalls())
	}

	disconnected, err := facade.Disconnect(ctx, connection.ID)
	if err != nil {
		t.Fatalf("disconnect: %v", err)
	}
	if disconnected.Status != core.ConnectionStatusDisconnected {
		t.Fatalf("expected disconnected, got %s", disconnected.Status)
	}
}

func TestFacade_SyncRunsThroughSharedStores(t *testing.T) {
	ctx := context.Background()
	facade, adapter := newTestFacade(t)
	adapter.syncFn = func(req core.SyncRequest) (core.SyncResult, error) {
		return core.SyncResult{Status: core.SyncStatusCompleted, NewItems: 4}, nil
	}

	connection := facadeCallback(t, facade, "usr_sync")

	result, err := facade.Sync(ctx, connection.ID, []string{"calendar"})
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	if result.Status != core.SyncStatusCompleted {
		t.Fatalf("expected completed sync, got %s", result.Status)
	}
	if result.NewItems != 4 {
		t.Fatalf("expected 4 new items, got %d", result.NewItems)
	}

	progress := facade.SyncStatus(ctx, connection.ID)
	if progress.Status != core.SyncStatusCompleted {
		t.Fatalf("expected completed progress, got %s", progress.Status)
	}
	if progress.ConnectionID != connection.ID {
		t.Fatalf("expected progress for %q, got %q", connection.ID, progress.ConnectionID)
	}
}

func TestFacade_WebhookRegisterDispatchUnregister(t *testing.T) {
	ctx := context.Background()
	facade, _ := newTestFacade(t)

	connection := facadeCallback(t, facade, "usr_hooks")

	var (
		mu        sync.Mutex
		delivered []string
	)
	facade.OnWebhookEvent("calendar.updated", func(_ context.Context, conn core.Connection, _ core.Webhook, event string, payload map[string]any) error {
		mu.Lock()
		delivered = append(delivered, event)
		mu.Unlock()
		if conn.ID != connection.ID {
			return errors.New("unexpected connection")
		}
		if payload["calendar_id"] != "primary" {
			return errors.New("unexpected payload")
		}
		return nil
	})

	webhook, err := facade.RegisterWebhook(ctx, connection.ID, []string{"calendar.updated"})
	if err != nil {
		t.Fatalf("register webhook: %v", err)
	}
	if !webhook.Active {
		t.Fatalf("expected active webhook")
	}

	if err := facade.DispatchWebhook(ctx, webhook.ID, "calendar.updated", map[string]any{"calendar_id": "primary"}); err != nil {
		t.Fatalf("dispatch webhook: %v", err)
	}
	mu.Lock()
	count := len(delivered)
	mu.Unlock()
	if count != 1 {
		t.Fatalf("expected one delivery, got %d", count)
	}

	if err := facade.DispatchWebhook(ctx, webhook.ID, "calendar.deleted", nil); !errors.Is(err, core.ErrEventNotConfigured) {
		t.Fatalf("expected event-not-configured, got %v", err)
	}

	if err := facade.UnregisterWebhook(ctx, webhook.ID); err != nil {
		t.Fatalf("unregister webhook: %v", err)
	}
	if _, err := facade.RegisterWebhook(ctx, "missing-connection", []string{"calendar.updated"}); err == nil {
		t.Fatalf("expected unknown connection to be rejected")
	}
}

func TestFacade_WebhookIngressVerifiesAndDedupes(t *testing.T) {
	ctx := context.Background()
	facade, _ := newTestFacade(t)
	connection := facadeCallback(t, facade, "usr_ingress")

	var (
		mu        sync.Mutex
		delivered int
	)
	facade.OnWebhookEvent("calendar.updated", func(_ context.Context, _ core.Connection, _ core.Webhook, _ string, _ map[string]any) error {
		mu.Lock()
		delivered++
		mu.Unlock()
		return nil
	})

	webhook, err := facade.RegisterWebhook(ctx, connection.ID, []string{"calendar.updated"})
	if err != nil {
		t.Fatalf("register webhook: %v", err)
	}
	if webhook.Secret == "" {
		t.Fatalf("expected registered webhook to carry a signing secret")
	}

	ingress := facade.WebhookIngress(nil)
	body := []byte(`{"calendar_id":"primary"}`)
	delivery := inbound.Delivery{
		WebhookID: webhook.ID,
		Event:     "calendar.updated",
		Payload:   map[string]any{"calendar_id": "primary"},
		Body:      body,
		Headers: map[string]string{
			inbound.DefaultSignatureHeader: inbound.Sign(webhook.Secret, body),
			"X-Delivery-ID":                "delivery_42",
		},
	}

	result, err := ingress.Dispatch(ctx, delivery)
	if err != nil {
		t.Fatalf("ingress dispatch: %v", err)
	}
	if !result.Accepted || result.Deduped {
		t.Fatalf("expected fresh delivery, got %+v", result)
	}

	result, err = ingress.Dispatch(ctx, delivery)
	if err != nil {
		t.Fatalf("repeat ingress dispatch: %v", err)
	}
	if !result.Deduped {
		t.Fatalf("expected repeat delivery to dedupe, got %+v", result)
	}

	mu.Lock()
	count := delivered
	mu.Unlock()
	if count != 1 {
		t.Fatalf("expected one handled delivery, got %d", count)
	}

	delivery.Headers[inbound.DefaultSignatureHeader] = inbound.Sign("forged-secret", body)
	delivery.Headers["X-Delivery-ID"] = "delivery_43"
	if _, err := ingress.Dispatch(ctx, delivery); err == nil {
		t.Fatalf("expected forged signature to be rejected")
	}
}

type facadeTestAdapter struct {
	id string

	mu       sync.Mutex
	refreshs int

	syncFn func(core.SyncRequest) (core.SyncResult, error)
}

func (a *facadeTestAdapter) refreshCalls() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.refreshs
}

func (a *facadeTestAdapter) IntegrationID() string { return a.id }

func (a *facadeTestAdapter) BuildAuthURL(req core.AuthURLRequest) (string, error) {
	return req.Integration.AuthConfig.AuthURL + "?state=" + req.State, nil
}

func (a *facadeTestAdapter) ExchangeCallback(_ context.Context, req core.ExchangeCallbackRequest) (core.ExchangeCallbackResult, error) {
	expires := time.Now().UTC().Add(time.Hour)
	return core.ExchangeCallbackResult{
		Tokens: core.TokenSet{
			AccessToken:   "access-" + req.Code,
			RefreshToken:  "refresh-" + req.Code,
			TokenType:     "Bearer",
			GrantedScopes: append([]string(nil), req.Integration.AuthConfig.Scopes...),
			ExpiresAt:     &expires,
		},
		Profile: core.ProviderProfile{ID: "acct_1", Email: "user@example.com"},
	}, nil
}

func (a *facadeTestAdapter) RefreshToken(context.Context, core.RefreshTokenRequest) (core.TokenSet, error) {
	a.mu.Lock()
	a.refreshs++
	a.mu.Unlock()
	expires := time.Now().UTC().Add(time.Hour)
	return core.TokenSet{AccessToken: "access-refreshed", TokenType: "Bearer", ExpiresAt: &expires}, nil
}

func (a *facadeTestAdapter) FetchProfile(context.Context, core.Integration, string) (core.ProviderProfile, error) {
	return core.ProviderProfile{ID: "acct_1"}, nil
}

func (a *facadeTestAdapter) ExecuteEndpoint(_ context.Context, req core.EndpointRequest) (any, error) {
	return map[string]any{"endpoint": req.EndpointID}, nil
}

func (a *facadeTestAdapter) SyncData(_ context.Context, req core.SyncRequest) (core.SyncResult, error) {
	if a.syncFn != nil {
		return a.syncFn(req)
	}
	return core.SyncResult{Status: core.SyncStatusCompleted}, nil
}

func (a *facadeTestAdapter) RegisterWebhook(_ context.Context, req core.RegisterWebhookRequest) (core.Webhook, error) {
	return core.Webhook{URL: req.CallbackURL, Events: append([]string(nil), req.Events...), Active: true}, nil
}

func (a *facadeTestAdapter) UnregisterWebhook(context.Context, core.UnregisterWebhookRequest) (bool, error) {
	return true, nil
}

func facadeTestIntegration(id string) core.Integration {
	return core.Integration{
		ID:          id,
		Provider:    "google",
		DisplayName: "Google Calendar",
		Enabled:     true,
		AuthConfig: core.AuthConfig{
			ClientID:    "client-id",
			AuthURL:     "https://provider.example.com/auth",
			TokenURL:    "https://provider.example.com/token",
			RedirectURI: "https://app.example.com/callback",
			Scopes:      []string{"calendar.read"},
		},
		Permissions: []core.PermissionDefinition{
			{ID: "read_calendar", Scopes: []string{"calendar.read"}},
		},
		Endpoints: []core.EndpointDefinition{
			{
				ID:                  "list_events",
				Method:              "GET",
				URLTemplate:         "https://api.example.com/calendars/{calendarId}/events",
				RequiredPermissions: []string{"read_calendar"},
			},
		},
		DataTypes: []string{"calendar"},
	}
}

func newTestFacade(t *testing.T) (*Facade, *facadeTestAdapter) {
	t.Helper()
	service, err := NewService(Config{})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	adapter := &facadeTestAdapter{id: "google-calendar"}
	if err := service.RegisterIntegration(context.Background(), facadeTestIntegration("google-calendar"), adapter); err != nil {
		t.Fatalf("register integration: %v", err)
	}
	facade, err := NewFacade(service, WithWebhookCallbackURL("https://app.example.com/hooks/{connectionId}"))
	if err != nil {
		t.Fatalf("new facade: %v", err)
	}
	return facade, adapter
}

func facadeCallback(t *testing.T, facade *Facade, userID string) core.Connection {
	t.Helper()
	ctx := context.Background()
	result, err := facade.Connect(ctx, "google-calendar", userID)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	connection, err := facade.HandleCallback(ctx, core.CallbackRequest{
		Code:   "auth-code",
		State:  result.State,
		UserID: userID,
	})
	if err != nil {
		t.Fatalf("handle callback: %v", err)
	}
	return connection
}
