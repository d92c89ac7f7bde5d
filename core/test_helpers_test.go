package core

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"sync"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

func hasTextCode(err error, code string) bool {
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		return false
	}
	return richErr.TextCode == code
}

type testAdapter struct {
	id string

	mu             sync.Mutex
	exchangeCalls  int
	refreshCalls   int
	lastAuthURLReq AuthURLRequest
	lastExchange   ExchangeCallbackRequest

	exchangeFn   func(ExchangeCallbackRequest) (ExchangeCallbackResult, error)
	refreshFn    func(RefreshTokenRequest) (TokenSet, error)
	executeFn    func(EndpointRequest) (any, error)
	syncFn       func(SyncRequest) (SyncResult, error)
	registerFn   func(RegisterWebhookRequest) (Webhook, error)
	unregisterFn func(UnregisterWebhookRequest) (bool, error)
}

func newTestAdapter(id string) *testAdapter {
	return &testAdapter{id: id}
}

func (a *testAdapter) IntegrationID() string { return a.id }

func (a *testAdapter) BuildAuthURL(req AuthURLRequest) (string, error) {
	a.mu.Lock()
	a.lastAuthURLReq = req
	a.mu.Unlock()
	url := req.Integration.AuthConfig.AuthURL + "?state=" + req.State
	if req.CodeChallenge != "" {
		url += "&code_challenge=" + req.CodeChallenge
	}
	return url, nil
}

func (a *testAdapter) ExchangeCallback(_ context.Context, req ExchangeCallbackRequest) (ExchangeCallbackResult, error) {
	a.mu.Lock()
	a.exchangeCalls++
	a.lastExchange = req
	fn := a.exchangeFn
	a.mu.Unlock()
	if fn != nil {
		return fn(req)
	}
	expires := time.Now().UTC().Add(time.Hour)
	return ExchangeCallbackResult{
		Tokens: TokenSet{
			AccessToken:   "access-" + req.Code,
			RefreshToken:  "refresh-" + req.Code,
			TokenType:     "Bearer",
			GrantedScopes: append([]string(nil), req.Integration.AuthConfig.Scopes...),
			ExpiresAt:     &expires,
		},
		Profile: ProviderProfile{ID: "acct_1", Email: "user@example.com", Name: "Test User"},
	}, nil
}

func (a *testAdapter) RefreshToken(_ context.Context, req RefreshTokenRequest) (TokenSet, error) {
	a.mu.Lock()
	a.refreshCalls++
	fn := a.refreshFn
	a.mu.Unlock()
	if fn != nil {
		return fn(req)
	}
	expires := time.Now().UTC().Add(time.Hour)
	return TokenSet{
		AccessToken: "access-refreshed",
		TokenType:   "Bearer",
		ExpiresAt:   &expires,
	}, nil
}

func (a *testAdapter) FetchProfile(context.Context, Integration, string) (ProviderProfile, error) {
	return ProviderProfile{ID: "acct_1", Email: "user@example.com"}, nil
}

func (a *testAdapter) ExecuteEndpoint(_ context.Context, req EndpointRequest) (any, error) {
	if a.executeFn != nil {
		return a.executeFn(req)
	}
	return map[string]any{"endpoint": req.EndpointID}, nil
}

func (a *testAdapter) SyncData(_ context.Context, req SyncRequest) (SyncResult, error) {
	if a.syncFn != nil {
		return a.syncFn(req)
	}
	return SyncResult{Status: SyncStatusCompleted}, nil
}

func (a *testAdapter) RegisterWebhook(_ context.Context, req RegisterWebhookRequest) (Webhook, error) {
	if a.registerFn != nil {
		return a.registerFn(req)
	}
	return Webhook{URL: req.CallbackURL, Events: append([]string(nil), req.Events...), Active: true}, nil
}

func (a *testAdapter) UnregisterWebhook(_ context.Context, req UnregisterWebhookRequest) (bool, error) {
	if a.unregisterFn != nil {
		return a.unregisterFn(req)
	}
	return true, nil
}

func (a *testAdapter) stats() (exchanges int, refreshes int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.exchangeCalls, a.refreshCalls
}

type testSecretProvider struct{}

func (testSecretProvider) Encrypt(_ context.Context, plaintext []byte) ([]byte, error) {
	if len(plaintext) == 0 {
		return nil, fmt.Errorf("test secret provider: plaintext is required")
	}
	return []byte("enc:" + base64.StdEncoding.EncodeToString(plaintext)), nil
}

func (testSecretProvider) Decrypt(_ context.Context, ciphertext []byte) ([]byte, error) {
	value := string(ciphertext)
	if !strings.HasPrefix(value, "enc:") {
		return nil, fmt.Errorf("test secret provider: invalid ciphertext")
	}
	return base64.StdEncoding.DecodeString(strings.TrimPrefix(value, "enc:"))
}

type recordingAuditLogger struct {
	mu     sync.Mutex
	events []AuditEvent
}

func (l *recordingAuditLogger) Log(_ context.Context, event AuditEvent) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, event)
	return nil
}

func (l *recordingAuditLogger) byType(eventType string) []AuditEvent {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := []AuditEvent{}
	for _, event := range l.events {
		if event.Type == eventType {
			out = append(out, event)
		}
	}
	return out
}

func testIntegration(id string) Integration {
	return Integration{
		ID:          id,
		Provider:    "google",
		DisplayName: strings.ToUpper(id[:1]) + id[1:],
		Enabled:     true,
		AuthConfig: AuthConfig{
			ClientID:    "client-id",
			AuthURL:     "https://provider.example.com/auth",
			TokenURL:    "https://provider.example.com/token",
			RedirectURI: "https://app.example.com/callback",
			Scopes:      []string{"calendar.read", "contacts.read"},
			PKCEEnabled: true,
		},
		Permissions: []PermissionDefinition{
			{ID: "read_calendar", Scopes: []string{"calendar.read"}},
			{ID: "read_contacts", Scopes: []string{"contacts.read"}},
		},
		Endpoints: []EndpointDefinition{
			{
				ID:                  "list_events",
				Method:              "GET",
				URLTemplate:         "https://api.example.com/calendars/{calendarId}/events",
				RequiredPermissions: []string{"read_calendar"},
				RateLimitPerMinute:  60,
			},
		},
		DataTypes: []string{"calendar", "contacts"},
	}
}

func newTestService(t interface{ Fatalf(string, ...any) }, opts ...Option) (*Service, *testAdapter) {
	adapter := newTestAdapter("google-calendar")
	service, err := NewService(Config{}, opts...)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	if err := service.RegisterIntegration(context.Background(), testIntegration("google-calendar"), adapter); err != nil {
		t.Fatalf("register integration: %v", err)
	}
	return service, adapter
}

func connectAndCallback(t interface{ Fatalf(string, ...any) }, service *Service, userID string) Connection {
	ctx := context.Background()
	result, err := service.Connect(ctx, "google-calendar", userID)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	connection, err := service.HandleCallback(ctx, CallbackRequest{
		Code:   "auth-code",
		State:  result.State,
		UserID: userID,
	})
	if err != nil {
		t.Fatalf("handle callback: %v", err)
	}
	return connection
}
