package google

import (
	"strings"
	"testing"
)

func TestNewCalendarIntegrationDefaults(t *testing.T) {
	integration, adapter, err := NewCalendarIntegration(Config{
		ClientID:     "client-123",
		ClientSecret: "secret-456",
		RedirectURI:  "https://app.example.com/callback",
	})
	if err != nil {
		t.Fatalf("build integration: %v", err)
	}

	if integration.ID != "google-calendar" {
		t.Fatalf("unexpected integration id %q", integration.ID)
	}
	if integration.Provider != Provider {
		t.Fatalf("unexpected provider %q", integration.Provider)
	}
	if adapter.IntegrationID() != "google-calendar" {
		t.Fatalf("adapter id mismatch: %q", adapter.IntegrationID())
	}
	if !integration.AuthConfig.PKCEEnabled {
		t.Fatal("expected PKCE enabled")
	}
	if integration.AuthConfig.AuthURL != "https://accounts.google.com/o/oauth2/v2/auth" {
		t.Fatalf("unexpected auth url %q", integration.AuthConfig.AuthURL)
	}
	if integration.AuthConfig.TokenURL != "https://oauth2.googleapis.com/token" {
		t.Fatalf("unexpected token url %q", integration.AuthConfig.TokenURL)
	}
	if got := integration.AuthConfig.ExtraParams["access_type"]; got != "offline" {
		t.Fatalf("expected offline access requested, got %q", got)
	}
}

func TestNewCalendarIntegrationRequestsIdentityScopesFirst(t *testing.T) {
	integration, _, err := NewCalendarIntegration(Config{
		ClientID:     "client-123",
		ClientSecret: "secret-456",
		RedirectURI:  "https://app.example.com/callback",
	})
	if err != nil {
		t.Fatalf("build integration: %v", err)
	}

	scopes := integration.AuthConfig.Scopes
	if len(scopes) < 3 {
		t.Fatalf("expected identity scopes present, got %v", scopes)
	}
	for i, expected := range []string{"openid", "email", "profile"} {
		if scopes[i] != expected {
			t.Fatalf("expected identity scope %q at %d, got %v", expected, i, scopes)
		}
	}
	joined := strings.Join(scopes, " ")
	if !strings.Contains(joined, "calendar.readonly") || !strings.Contains(joined, "contacts.readonly") {
		t.Fatalf("expected data scopes requested, got %v", scopes)
	}
}

func TestNewCalendarIntegrationEndpointPermissions(t *testing.T) {
	integration, _, err := NewCalendarIntegration(Config{
		ClientID:     "client-123",
		ClientSecret: "secret-456",
		RedirectURI:  "https://app.example.com/callback",
	})
	if err != nil {
		t.Fatalf("build integration: %v", err)
	}

	endpoint, ok := integration.Endpoint("create_event")
	if !ok {
		t.Fatal("expected create_event endpoint")
	}
	scopes := integration.ScopesForPermissions(endpoint.RequiredPermissions)
	if len(scopes) != 1 || scopes[0] != calendarWriteScope {
		t.Fatalf("unexpected required scopes %v", scopes)
	}
}

func TestNewCalendarIntegrationRejectsMissingClientID(t *testing.T) {
	_, _, err := NewCalendarIntegration(Config{
		ClientSecret: "secret-456",
		RedirectURI:  "https://app.example.com/callback",
	})
	if err == nil {
		t.Fatal("expected validation failure without client id")
	}
}
