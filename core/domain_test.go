package core

import (
	"errors"
	"testing"
	"time"
)

func TestConnectionTransitionTo_ValidAndInvalid(t *testing.T) {
	now := time.Now().UTC()
	conn := Connection{Status: ConnectionStatusConnected}

	if err := conn.TransitionTo(ConnectionStatusExpired, "token expired", now); err != nil {
		t.Fatalf("expected connected->expired to work: %v", err)
	}
	if conn.LastError == "" {
		t.Fatalf("expected last_error to be set")
	}

	if err := conn.TransitionTo(ConnectionStatusConnected, "", now); err != nil {
		t.Fatalf("expected expired->connected to work: %v", err)
	}
	if conn.LastError != "" {
		t.Fatalf("expected last_error to be cleared on reconnect, got %q", conn.LastError)
	}

	if err := conn.TransitionTo(ConnectionStatusDisconnected, "", now); err != nil {
		t.Fatalf("expected connected->disconnected to work: %v", err)
	}
	if conn.DisconnectedAt == nil {
		t.Fatalf("expected disconnected_at to be set")
	}

	err := conn.TransitionTo(ConnectionStatusConnected, "", now)
	if !errors.Is(err, ErrInvalidConnectionStatusTransition) {
		t.Fatalf("expected terminal status to reject transitions, got: %v", err)
	}
}

func TestConnectionTransitionTo_PendingOnlyConnects(t *testing.T) {
	now := time.Now().UTC()
	conn := Connection{Status: ConnectionStatusPending}

	err := conn.TransitionTo(ConnectionStatusExpired, "", now)
	if !errors.Is(err, ErrInvalidConnectionStatusTransition) {
		t.Fatalf("expected pending->expired to fail, got: %v", err)
	}
	if err := conn.TransitionTo(ConnectionStatusConnected, "", now); err != nil {
		t.Fatalf("expected pending->connected to work: %v", err)
	}
}

func TestIntegrationValidate(t *testing.T) {
	integration := testIntegration("google-calendar")
	if err := integration.Validate(); err != nil {
		t.Fatalf("expected valid integration: %v", err)
	}

	missingClient := testIntegration("google-calendar")
	missingClient.AuthConfig.ClientID = ""
	if err := missingClient.Validate(); !errors.Is(err, ErrInvalidIntegration) {
		t.Fatalf("expected missing client id to fail, got: %v", err)
	}

	noPermissions := testIntegration("google-calendar")
	noPermissions.Permissions = nil
	if err := noPermissions.Validate(); !errors.Is(err, ErrInvalidIntegration) {
		t.Fatalf("expected empty permissions to fail, got: %v", err)
	}

	danglingRef := testIntegration("google-calendar")
	danglingRef.Endpoints[0].RequiredPermissions = []string{"write_calendar"}
	if err := danglingRef.Validate(); !errors.Is(err, ErrInvalidIntegration) {
		t.Fatalf("expected undeclared permission reference to fail, got: %v", err)
	}
}

func TestIntegrationScopesForPermissions(t *testing.T) {
	integration := testIntegration("google-calendar")
	scopes := integration.ScopesForPermissions([]string{"read_calendar", "read_contacts", "read_calendar"})
	if len(scopes) != 2 {
		t.Fatalf("expected deduplicated scopes, got %v", scopes)
	}
}

func TestIntegrationEndpointLookup(t *testing.T) {
	integration := testIntegration("google-calendar")
	if _, ok := integration.Endpoint("list_events"); !ok {
		t.Fatalf("expected declared endpoint to resolve")
	}
	if _, ok := integration.Endpoint("nope"); ok {
		t.Fatalf("expected unknown endpoint to miss")
	}
}

func TestWebhookSubscribes(t *testing.T) {
	webhook := Webhook{Events: []string{"calendar.updated"}}
	if !webhook.Subscribes("calendar.updated") {
		t.Fatalf("expected subscribed event to match")
	}
	if webhook.Subscribes("calendar.deleted") {
		t.Fatalf("expected unsubscribed event to miss")
	}
}
