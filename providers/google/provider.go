package google

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/goliatone/go-integrations/core"
	"github.com/goliatone/go-integrations/identity"
	"github.com/goliatone/go-integrations/providers"
)

const (
	Provider = "google"

	authURL     = "https://accounts.google.com/o/oauth2/v2/auth"
	tokenURL    = "https://oauth2.googleapis.com/token"
	userInfoURL = "https://openidconnect.googleapis.com/v1/userinfo"

	calendarReadScope  = "https://www.googleapis.com/auth/calendar.readonly"
	calendarWriteScope = "https://www.googleapis.com/auth/calendar.events"
	contactsReadScope  = "https://www.googleapis.com/auth/contacts.readonly"
)

// identityScopes are always requested so the account profile can be resolved
// after the code exchange.
var identityScopes = []string{"openid", "email", "profile"}

type Config struct {
	IntegrationID string
	ClientID      string
	ClientSecret  string
	RedirectURI   string
	DisplayName   string

	RateLimiter     core.RateLimiter
	Sanitizer       core.Sanitizer
	DataTypeSyncers map[string]providers.DataTypeSyncer
	HTTPClient      providers.HTTPDoer
}

// NewCalendarIntegration builds the Google Calendar + Contacts integration
// definition and its adapter. The returned pair is ready for registration.
func NewCalendarIntegration(cfg Config) (core.Integration, core.ProviderAdapter, error) {
	integrationID := strings.TrimSpace(cfg.IntegrationID)
	if integrationID == "" {
		integrationID = "google-calendar"
	}
	displayName := strings.TrimSpace(cfg.DisplayName)
	if displayName == "" {
		displayName = "Google Calendar"
	}

	integration := core.Integration{
		ID:          integrationID,
		Provider:    Provider,
		DisplayName: displayName,
		Enabled:     true,
		AuthConfig: core.AuthConfig{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			AuthURL:      authURL,
			TokenURL:     tokenURL,
			RedirectURI:  cfg.RedirectURI,
			Scopes:       withIdentityScopes(calendarReadScope, calendarWriteScope, contactsReadScope),
			PKCEEnabled:  true,
			ExtraParams: map[string]string{
				"access_type": "offline",
				"prompt":      "consent",
			},
		},
		Endpoints: []core.EndpointDefinition{
			{
				ID:                  "list_events",
				Method:              http.MethodGet,
				URLTemplate:         "https://www.googleapis.com/calendar/v3/calendars/{calendarId}/events",
				RequiredPermissions: []string{"read_calendar"},
				RateLimitPerMinute:  60,
			},
			{
				ID:                  "create_event",
				Method:              http.MethodPost,
				URLTemplate:         "https://www.googleapis.com/calendar/v3/calendars/{calendarId}/events",
				RequiredPermissions: []string{"write_calendar"},
				RateLimitPerMinute:  30,
			},
			{
				ID:                  "list_contacts",
				Method:              http.MethodGet,
				URLTemplate:         "https://people.googleapis.com/v1/people/me/connections",
				RequiredPermissions: []string{"read_contacts"},
				RateLimitPerMinute:  60,
			},
		},
		Permissions: []core.PermissionDefinition{
			{ID: "read_calendar", Scopes: []string{calendarReadScope}},
			{ID: "write_calendar", Scopes: []string{calendarWriteScope}},
			{ID: "read_contacts", Scopes: []string{contactsReadScope}},
		},
		DataTypes: []string{"calendar", "contacts"},
		Metadata: map[string]any{
			"userinfo_endpoint": userInfoURL,
		},
	}
	if err := integration.Validate(); err != nil {
		return core.Integration{}, nil, fmt.Errorf("google: invalid integration: %w", err)
	}

	adapter, err := providers.NewOAuth2Adapter(providers.OAuth2AdapterConfig{
		IntegrationID:   integrationID,
		ProfileResolver: identity.NewResolver(identity.WithHTTPClient(cfg.HTTPClient)),
		RateLimiter:     cfg.RateLimiter,
		Sanitizer:       cfg.Sanitizer,
		DataTypeSyncers: cfg.DataTypeSyncers,
		HTTPClient:      cfg.HTTPClient,
	})
	if err != nil {
		return core.Integration{}, nil, fmt.Errorf("google: build adapter: %w", err)
	}
	return integration, adapter, nil
}

func withIdentityScopes(scopes ...string) []string {
	out := make([]string, 0, len(identityScopes)+len(scopes))
	seen := map[string]struct{}{}
	for _, scope := range append(append([]string{}, identityScopes...), scopes...) {
		scope = strings.TrimSpace(scope)
		if scope == "" {
			continue
		}
		if _, ok := seen[scope]; ok {
			continue
		}
		seen[scope] = struct{}{}
		out = append(out, scope)
	}
	return out
}
