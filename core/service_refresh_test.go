package core

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestServiceRefresh_RotatesAccessToken(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService(t)
	connection := connectAndCallback(t, service, "user_1")

	refreshed, err := service.Refresh(ctx, connection.ID)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if refreshed.Status != ConnectionStatusConnected {
		t.Fatalf("expected connected after refresh, got %q", refreshed.Status)
	}
	if refreshed.LastRefreshedAt == nil {
		t.Fatalf("expected last_refreshed_at to be set")
	}

	access, err := service.AccessToken(ctx, connection.ID)
	if err != nil {
		t.Fatalf("access token: %v", err)
	}
	if access != "access-refreshed" {
		t.Fatalf("expected rotated token, got %q", access)
	}

	// provider did not rotate the refresh token, the old one survives
	refresh, err := service.vault.GetKey(ctx, refreshTokenVaultKey(connection.ID))
	if err != nil || refresh != "refresh-auth-code" {
		t.Fatalf("expected refresh token retained, got %q err %v", refresh, err)
	}
}

func TestServiceRefresh_ConcurrentCallsCoalesce(t *testing.T) {
	ctx := context.Background()
	service, adapter := newTestService(t)
	connection := connectAndCallback(t, service, "user_1")

	release := make(chan struct{})
	adapter.refreshFn = func(RefreshTokenRequest) (TokenSet, error) {
		<-release
		expires := time.Now().UTC().Add(time.Hour)
		return TokenSet{AccessToken: "access-coalesced", ExpiresAt: &expires}, nil
	}

	const callers = 8
	var wg sync.WaitGroup
	results := make([]error, callers)
	wg.Add(callers)
	for i := 0; i < callers; i++ {
		go func(idx int) {
			defer wg.Done()
			_, results[idx] = service.Refresh(ctx, connection.ID)
		}(i)
	}

	// give the goroutines time to pile onto the in-flight call
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	for idx, err := range results {
		if err != nil {
			t.Fatalf("caller %d failed: %v", idx, err)
		}
	}
	_, refreshes := adapter.stats()
	if refreshes != 1 {
		t.Fatalf("expected a single provider exchange, got %d", refreshes)
	}
}

func TestServiceRefresh_NoRefreshToken(t *testing.T) {
	ctx := context.Background()
	service, adapter := newTestService(t)
	adapter.exchangeFn = func(req ExchangeCallbackRequest) (ExchangeCallbackResult, error) {
		expires := time.Now().UTC().Add(time.Hour)
		return ExchangeCallbackResult{
			Tokens:  TokenSet{AccessToken: "short-lived", ExpiresAt: &expires},
			Profile: ProviderProfile{ID: "acct_1"},
		}, nil
	}
	connection := connectAndCallback(t, service, "user_1")

	_, err := service.Refresh(ctx, connection.ID)
	if !hasTextCode(err, IntegrationErrorNoRefreshToken) {
		t.Fatalf("expected no refresh token error, got: %v", err)
	}
}

func TestServiceRefresh_FailureMarksExpired(t *testing.T) {
	ctx := context.Background()
	audit := &recordingAuditLogger{}
	service, adapter := newTestService(t, WithAuditLogger(audit))
	connection := connectAndCallback(t, service, "user_1")

	adapter.refreshFn = func(RefreshTokenRequest) (TokenSet, error) {
		return TokenSet{}, fmt.Errorf("provider rejected the grant")
	}

	_, err := service.Refresh(ctx, connection.ID)
	if !hasTextCode(err, IntegrationErrorRefreshFailed) {
		t.Fatalf("expected refresh failure, got: %v", err)
	}

	current, err := service.GetConnection(ctx, connection.ID)
	if err != nil {
		t.Fatalf("get connection: %v", err)
	}
	if current.Status != ConnectionStatusExpired {
		t.Fatalf("expected expired status, got %q", current.Status)
	}
	if current.LastError == "" {
		t.Fatalf("expected last_error recorded")
	}
	if len(audit.byType("connection.refresh_failed")) != 1 {
		t.Fatalf("expected refresh failure audit event")
	}

	// expired connections can recover once the provider cooperates again
	adapter.refreshFn = nil
	recovered, err := service.Refresh(ctx, connection.ID)
	if err != nil {
		t.Fatalf("recovery refresh: %v", err)
	}
	if recovered.Status != ConnectionStatusConnected {
		t.Fatalf("expected reconnect after successful refresh, got %q", recovered.Status)
	}
}

func TestServiceRefresh_RejectsDisconnected(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService(t)
	connection := connectAndCallback(t, service, "user_1")

	if _, err := service.Disconnect(ctx, connection.ID); err != nil {
		t.Fatalf("disconnect: %v", err)
	}
	_, err := service.Refresh(ctx, connection.ID)
	if !hasTextCode(err, IntegrationErrorInvalidTransition) {
		t.Fatalf("expected invalid transition, got: %v", err)
	}
}

func TestServiceDisconnect_TerminalButRetained(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService(t)
	connection := connectAndCallback(t, service, "user_1")

	disconnected, err := service.Disconnect(ctx, connection.ID)
	if err != nil {
		t.Fatalf("disconnect: %v", err)
	}
	if disconnected.Status != ConnectionStatusDisconnected {
		t.Fatalf("expected disconnected status, got %q", disconnected.Status)
	}
	if disconnected.DisconnectedAt == nil {
		t.Fatalf("expected disconnected_at timestamp")
	}

	if _, err := service.AccessToken(ctx, connection.ID); err == nil {
		t.Fatalf("expected vault tokens purged on disconnect")
	}

	listed, err := service.ListConnections(ctx, "user_1")
	if err != nil {
		t.Fatalf("list connections: %v", err)
	}
	if len(listed) != 1 || listed[0].Status != ConnectionStatusDisconnected {
		t.Fatalf("disconnected record must stay listed, got %+v", listed)
	}
}

func TestServiceDisconnect_UnregistersWebhooksBestEffort(t *testing.T) {
	ctx := context.Background()
	service, adapter := newTestService(t)
	connection := connectAndCallback(t, service, "user_1")

	stubborn, err := service.webhookStore.Save(ctx, Webhook{
		ConnectionID:  connection.ID,
		IntegrationID: connection.IntegrationID,
		URL:           "https://app.example.com/hooks/a",
		Events:        []string{"calendar.updated"},
		Active:        true,
	})
	if err != nil {
		t.Fatalf("save webhook: %v", err)
	}
	removable, err := service.webhookStore.Save(ctx, Webhook{
		ConnectionID:  connection.ID,
		IntegrationID: connection.IntegrationID,
		URL:           "https://app.example.com/hooks/b",
		Events:        []string{"calendar.deleted"},
		Active:        true,
	})
	if err != nil {
		t.Fatalf("save webhook: %v", err)
	}

	adapter.unregisterFn = func(req UnregisterWebhookRequest) (bool, error) {
		if req.Webhook.ID == stubborn.ID {
			return false, fmt.Errorf("provider unavailable")
		}
		return true, nil
	}

	if _, err := service.Disconnect(ctx, connection.ID); err != nil {
		t.Fatalf("disconnect must succeed despite webhook failures: %v", err)
	}

	if _, err := service.webhookStore.Get(ctx, removable.ID); err == nil {
		t.Fatalf("expected confirmed unregistration to delete the webhook")
	}
	if _, err := service.webhookStore.Get(ctx, stubborn.ID); err != nil {
		t.Fatalf("failed unregistration must keep the record: %v", err)
	}
}

func TestServiceExecuteEndpoint_RefreshesExpiredConnection(t *testing.T) {
	ctx := context.Background()
	service, adapter := newTestService(t)
	connection := connectAndCallback(t, service, "user_1")

	stored, err := service.GetConnection(ctx, connection.ID)
	if err != nil {
		t.Fatalf("get connection: %v", err)
	}
	if err := stored.TransitionTo(ConnectionStatusExpired, "token expired", time.Now().UTC()); err != nil {
		t.Fatalf("transition: %v", err)
	}
	if _, err := service.UpdateConnection(ctx, stored); err != nil {
		t.Fatalf("update connection: %v", err)
	}

	result, err := service.ExecuteEndpoint(ctx, connection.ID, "list_events", map[string]any{"calendarId": "primary"})
	if err != nil {
		t.Fatalf("execute endpoint: %v", err)
	}
	if result == nil {
		t.Fatalf("expected adapter result")
	}
	_, refreshes := adapter.stats()
	if refreshes != 1 {
		t.Fatalf("expected one refresh before execution, got %d", refreshes)
	}
}

func TestServiceExecuteEndpoint_RejectsNotConnected(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService(t)
	connection := connectAndCallback(t, service, "user_1")

	if _, err := service.Disconnect(ctx, connection.ID); err != nil {
		t.Fatalf("disconnect: %v", err)
	}
	_, err := service.ExecuteEndpoint(ctx, connection.ID, "list_events", nil)
	if !hasTextCode(err, IntegrationErrorNotConnected) {
		t.Fatalf("expected not connected, got: %v", err)
	}
}
