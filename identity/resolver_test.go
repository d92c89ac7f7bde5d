package identity

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goliatone/go-integrations/core"
)

func encodeIDToken(t *testing.T, claims map[string]any) string {
	t.Helper()
	payload, err := json.Marshal(claims)
	if err != nil {
		t.Fatalf("marshal claims: %v", err)
	}
	segment := base64.RawURLEncoding.EncodeToString(payload)
	return "eyJhbGciOiJub25lIn0." + segment + ".sig"
}

func googleIntegration(metadata map[string]any) core.Integration {
	return core.Integration{
		ID:       "google-calendar",
		Provider: "google",
		Metadata: metadata,
	}
}

func TestResolvePrefersIDTokenPayload(t *testing.T) {
	resolver := NewResolver()
	idToken := encodeIDToken(t, map[string]any{
		"sub":   "subject-1",
		"email": "user@example.com",
		"name":  "Ada Lovelace",
	})

	profile, err := resolver.Resolve(context.Background(), googleIntegration(nil), "access-1", idToken)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if profile.ID != "subject-1" {
		t.Fatalf("unexpected id %q", profile.ID)
	}
	if profile.Email != "user@example.com" {
		t.Fatalf("unexpected email %q", profile.Email)
	}
	if profile.Name != "Ada Lovelace" {
		t.Fatalf("unexpected name %q", profile.Name)
	}
	if profile.Raw["sub"] != "subject-1" {
		t.Fatalf("expected raw claims preserved, got %v", profile.Raw)
	}
}

func TestResolveComposesNameFromGivenAndFamily(t *testing.T) {
	resolver := NewResolver()
	idToken := encodeIDToken(t, map[string]any{
		"sub":         "subject-2",
		"given_name":  "Grace",
		"family_name": "Hopper",
	})

	profile, err := resolver.Resolve(context.Background(), googleIntegration(nil), "access-1", idToken)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if profile.Name != "Grace Hopper" {
		t.Fatalf("unexpected composed name %q", profile.Name)
	}
}

func TestResolveFallsBackToUserInfoEndpoint(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer access-1" {
			t.Errorf("unexpected authorization header %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"sub":"subject-3","email":"remote@example.com"}`)
	}))
	defer server.Close()

	resolver := NewResolver()
	integration := googleIntegration(map[string]any{"userinfo_endpoint": server.URL})

	profile, err := resolver.Resolve(context.Background(), integration, "access-1", "")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if profile.ID != "subject-3" || profile.Email != "remote@example.com" {
		t.Fatalf("unexpected profile %+v", profile)
	}
}

func TestResolveUsesUserInfoWhenIDTokenLacksSubject(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"sub":"subject-4"}`)
	}))
	defer server.Close()

	resolver := NewResolver()
	integration := googleIntegration(map[string]any{"userinfo_endpoint": server.URL})
	idToken := encodeIDToken(t, map[string]any{"email": "no-subject@example.com"})

	profile, err := resolver.Resolve(context.Background(), integration, "access-1", idToken)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if profile.ID != "subject-4" {
		t.Fatalf("expected userinfo subject, got %q", profile.ID)
	}
}

func TestResolveNormalizesGitHubNumericID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"id":583231,"login":"octocat","email":"octocat@github.com"}`)
	}))
	defer server.Close()

	resolver := NewResolver()
	integration := core.Integration{
		ID:       "github-repos",
		Provider: "github",
		Metadata: map[string]any{"userinfo_endpoint": server.URL},
	}

	profile, err := resolver.Resolve(context.Background(), integration, "access-1", "")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if profile.ID != "583231" {
		t.Fatalf("expected numeric id coerced to string, got %q", profile.ID)
	}
	if profile.Name != "octocat" {
		t.Fatalf("expected login fallback, got %q", profile.Name)
	}
}

func TestResolveReportsProfileNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	resolver := NewResolver()
	integration := googleIntegration(map[string]any{"userinfo_endpoint": server.URL})

	_, err := resolver.Resolve(context.Background(), integration, "revoked-token", "")
	if !errors.Is(err, ErrProfileNotFound) {
		t.Fatalf("expected profile not found, got %v", err)
	}
}

func TestResolveFailsWithoutEndpointOrIDToken(t *testing.T) {
	resolver := NewResolver()
	integration := core.Integration{ID: "acme-crm", Provider: "acme"}

	_, err := resolver.Resolve(context.Background(), integration, "access-1", "")
	if !errors.Is(err, ErrProfileNotFound) {
		t.Fatalf("expected profile not found, got %v", err)
	}
}

func TestResolveRejectsMalformedIDTokenWithoutFallback(t *testing.T) {
	resolver := NewResolver()
	integration := core.Integration{ID: "acme-crm", Provider: "acme"}

	_, err := resolver.Resolve(context.Background(), integration, "", "not-a-jwt")
	if !errors.Is(err, ErrProfileNotFound) {
		t.Fatalf("expected profile not found, got %v", err)
	}
}
