package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrInvalidIntegration                = errors.New("core: invalid integration definition")
	ErrDuplicateIntegration              = errors.New("core: integration already registered")
	ErrIntegrationNotFound               = errors.New("core: integration not found")
	ErrIntegrationDisabled               = errors.New("core: integration is disabled")
	ErrAdapterNotFound                   = errors.New("core: adapter not found")
	ErrConnectionNotFound                = errors.New("core: connection not found")
	ErrInvalidOrExpiredState             = errors.New("core: oauth state invalid or expired")
	ErrUserMismatch                      = errors.New("core: user mismatch for oauth state")
	ErrAuthExchangeFailed                = errors.New("core: authorization code exchange failed")
	ErrNoRefreshToken                    = errors.New("core: no refresh token available")
	ErrRefreshFailed                     = errors.New("core: token refresh failed")
	ErrMissingScopes                     = errors.New("core: granted scopes missing required scopes")
	ErrRateLimitExceeded                 = errors.New("core: rate limit exceeded")
	ErrNotConnected                      = errors.New("core: connection is not connected")
	ErrEndpointNotFound                  = errors.New("core: endpoint not found")
	ErrWebhookNotFound                   = errors.New("core: webhook not found")
	ErrEventNotConfigured                = errors.New("core: event not configured for webhook")
	ErrInvalidConnectionStatusTransition = errors.New("core: invalid connection status transition")
)

type ConnectionStatus string

const (
	ConnectionStatusPending      ConnectionStatus = "pending"
	ConnectionStatusConnected    ConnectionStatus = "connected"
	ConnectionStatusExpired      ConnectionStatus = "expired"
	ConnectionStatusDisconnected ConnectionStatus = "disconnected"
)

// Connection links a user to one integration. Token values never live on the
// record; the vault holds them under keys derived from the connection id.
type Connection struct {
	ID                   string
	IntegrationID        string
	UserID               string
	Status               ConnectionStatus
	GrantedScopes        []string
	ExternalAccountID    string
	ExternalAccountEmail string
	ExpiresAt            time.Time
	LastError            string
	LastSyncAt           *time.Time
	LastRefreshedAt      *time.Time
	DisconnectedAt       *time.Time
	Metadata             map[string]any
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

func (c *Connection) TransitionTo(status ConnectionStatus, reason string, now time.Time) error {
	if c == nil {
		return nil
	}
	if c.Status == status {
		c.UpdatedAt = now
		if strings.TrimSpace(reason) != "" {
			c.LastError = strings.TrimSpace(reason)
		}
		return nil
	}
	if !connectionTransitionAllowed(c.Status, status) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidConnectionStatusTransition, c.Status, status)
	}
	c.Status = status
	c.UpdatedAt = now
	if strings.TrimSpace(reason) != "" {
		c.LastError = strings.TrimSpace(reason)
	}
	switch status {
	case ConnectionStatusConnected:
		c.LastError = ""
	case ConnectionStatusDisconnected:
		disconnected := now
		c.DisconnectedAt = &disconnected
	}
	return nil
}

func connectionTransitionAllowed(current, next ConnectionStatus) bool {
	allowed := map[ConnectionStatus]map[ConnectionStatus]struct{}{
		ConnectionStatusPending: {
			ConnectionStatusConnected: {},
		},
		ConnectionStatusConnected: {
			ConnectionStatusExpired:      {},
			ConnectionStatusDisconnected: {},
		},
		ConnectionStatusExpired: {
			ConnectionStatusConnected:    {},
			ConnectionStatusDisconnected: {},
		},
		ConnectionStatusDisconnected: {},
	}
	_, ok := allowed[current][next]
	return ok
}

type AuthConfig struct {
	ClientID     string
	ClientSecret string
	AuthURL      string
	TokenURL     string
	RedirectURI  string
	Scopes       []string
	ResponseType string
	PKCEEnabled  bool
	ExtraParams  map[string]string
}

type EndpointDefinition struct {
	ID                  string
	Method              string
	URLTemplate         string
	RequiredPermissions []string
	RateLimitPerMinute  int
}

type PermissionDefinition struct {
	ID     string
	Scopes []string
}

// Integration is the static provider-level definition. Instances are built
// once at registration time and treated as immutable afterwards.
type Integration struct {
	ID          string
	Provider    string
	DisplayName string
	Enabled     bool
	AuthConfig  AuthConfig
	Endpoints   []EndpointDefinition
	Permissions []PermissionDefinition
	DataTypes   []string
	Metadata    map[string]any
}

func (i Integration) Validate() error {
	if strings.TrimSpace(i.ID) == "" {
		return fmt.Errorf("%w: id is required", ErrInvalidIntegration)
	}
	if strings.TrimSpace(i.AuthConfig.ClientID) == "" {
		return fmt.Errorf("%w: auth config client_id is required", ErrInvalidIntegration)
	}
	if strings.TrimSpace(i.AuthConfig.RedirectURI) == "" {
		return fmt.Errorf("%w: auth config redirect_uri is required", ErrInvalidIntegration)
	}
	if strings.TrimSpace(i.AuthConfig.AuthURL) == "" {
		return fmt.Errorf("%w: auth config auth_url is required", ErrInvalidIntegration)
	}
	if strings.TrimSpace(i.AuthConfig.TokenURL) == "" {
		return fmt.Errorf("%w: auth config token_url is required", ErrInvalidIntegration)
	}
	if len(i.Permissions) == 0 {
		return fmt.Errorf("%w: at least one permission is required", ErrInvalidIntegration)
	}
	declared := make(map[string]struct{}, len(i.Permissions))
	for _, permission := range i.Permissions {
		id := strings.TrimSpace(permission.ID)
		if id == "" {
			return fmt.Errorf("%w: permission id is required", ErrInvalidIntegration)
		}
		declared[id] = struct{}{}
	}
	for _, endpoint := range i.Endpoints {
		if strings.TrimSpace(endpoint.ID) == "" {
			return fmt.Errorf("%w: endpoint id is required", ErrInvalidIntegration)
		}
		for _, permissionID := range endpoint.RequiredPermissions {
			if _, ok := declared[strings.TrimSpace(permissionID)]; !ok {
				return fmt.Errorf(
					"%w: endpoint %q references undeclared permission %q",
					ErrInvalidIntegration, endpoint.ID, permissionID,
				)
			}
		}
	}
	return nil
}

// Endpoint returns the endpoint definition for the given id, if declared.
func (i Integration) Endpoint(endpointID string) (EndpointDefinition, bool) {
	id := strings.TrimSpace(endpointID)
	for _, endpoint := range i.Endpoints {
		if strings.EqualFold(strings.TrimSpace(endpoint.ID), id) {
			return endpoint, true
		}
	}
	return EndpointDefinition{}, false
}

// ScopesForPermissions flattens the OAuth scopes implied by the given
// permission ids. Unknown permission ids contribute nothing.
func (i Integration) ScopesForPermissions(permissionIDs []string) []string {
	index := make(map[string][]string, len(i.Permissions))
	for _, permission := range i.Permissions {
		index[strings.TrimSpace(permission.ID)] = permission.Scopes
	}
	seen := map[string]struct{}{}
	scopes := []string{}
	for _, permissionID := range permissionIDs {
		for _, scope := range index[strings.TrimSpace(permissionID)] {
			scope = strings.TrimSpace(scope)
			if scope == "" {
				continue
			}
			if _, ok := seen[scope]; ok {
				continue
			}
			seen[scope] = struct{}{}
			scopes = append(scopes, scope)
		}
	}
	return scopes
}

type TokenSet struct {
	AccessToken   string
	RefreshToken  string
	TokenType     string
	GrantedScopes []string
	ExpiresAt     *time.Time
	// RefreshExpiresAt is provider-specified when present; refresh tokens
	// without one get the default vault retention.
	RefreshExpiresAt *time.Time
}

type ProviderProfile struct {
	ID    string
	Email string
	Name  string
	Raw   map[string]any
}

type Webhook struct {
	ID              string
	ConnectionID    string
	IntegrationID   string
	URL             string
	Events          []string
	Secret          string
	Active          bool
	FailureCount    int
	LastTriggeredAt *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Subscribes reports whether the webhook is configured for the given event.
func (w Webhook) Subscribes(event string) bool {
	event = strings.TrimSpace(event)
	for _, candidate := range w.Events {
		if strings.EqualFold(strings.TrimSpace(candidate), event) {
			return true
		}
	}
	return false
}

type SyncStatus string

const (
	SyncStatusIdle      SyncStatus = "idle"
	SyncStatusRunning   SyncStatus = "running"
	SyncStatusCompleted SyncStatus = "completed"
	SyncStatusFailed    SyncStatus = "failed"
)

// SyncProgress is the live counter set for one connection. A new run
// overwrites the previous snapshot; no history is retained.
type SyncProgress struct {
	ConnectionID string
	Status       SyncStatus
	Total        int
	Processed    int
	Succeeded    int
	Failed       int
	Skipped      int
	StartedAt    time.Time
	CompletedAt  *time.Time
	LastError    string
}

type DataTypeError struct {
	DataType string
	Message  string
}

type SyncResult struct {
	Status       SyncStatus
	NewItems     int
	UpdatedItems int
	DeletedItems int
	Conflicts    int
	Errors       []DataTypeError
}

type AuditLevel string

const (
	AuditLevelInfo  AuditLevel = "info"
	AuditLevelWarn  AuditLevel = "warn"
	AuditLevelError AuditLevel = "error"
)

type AuditEvent struct {
	Type        string
	Level       AuditLevel
	Description string
	UserID      string
	Metadata    map[string]any
	OccurredAt  time.Time
}
