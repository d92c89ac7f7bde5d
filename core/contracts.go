package core

import (
	"context"
	"time"

	glog "github.com/goliatone/go-logger/glog"
)

type Logger = glog.Logger

type LoggerProvider = glog.LoggerProvider

type FieldsLogger = glog.FieldsLogger

type MetricsRecorder interface {
	IncCounter(ctx context.Context, name string, value int64, tags map[string]string)
	ObserveHistogram(ctx context.Context, name string, value float64, tags map[string]string)
}

type AuthURLRequest struct {
	Integration   Integration
	State         string
	CodeChallenge string
	ExtraParams   map[string]string
}

type ExchangeCallbackRequest struct {
	Integration  Integration
	Code         string
	RedirectURI  string
	CodeVerifier string
}

type ExchangeCallbackResult struct {
	Tokens  TokenSet
	Profile ProviderProfile
}

type RefreshTokenRequest struct {
	Integration  Integration
	RefreshToken string
}

type EndpointRequest struct {
	Integration Integration
	Connection  Connection
	AccessToken string
	EndpointID  string
	Params      map[string]any
}

type SyncRequest struct {
	Integration Integration
	Connection  Connection
	AccessToken string
	DataTypes   []string
	Progress    *SyncProgress
}

type RegisterWebhookRequest struct {
	Integration Integration
	Connection  Connection
	AccessToken string
	Events      []string
	CallbackURL string
}

type UnregisterWebhookRequest struct {
	Integration Integration
	Connection  Connection
	AccessToken string
	Webhook     Webhook
}

// ProviderAdapter is the per-provider capability set. BuildAuthURL is pure
// over the integration auth config; everything else performs provider I/O.
type ProviderAdapter interface {
	IntegrationID() string
	BuildAuthURL(req AuthURLRequest) (string, error)
	ExchangeCallback(ctx context.Context, req ExchangeCallbackRequest) (ExchangeCallbackResult, error)
	RefreshToken(ctx context.Context, req RefreshTokenRequest) (TokenSet, error)
	FetchProfile(ctx context.Context, integration Integration, accessToken string) (ProviderProfile, error)
	ExecuteEndpoint(ctx context.Context, req EndpointRequest) (any, error)
	SyncData(ctx context.Context, req SyncRequest) (SyncResult, error)
	RegisterWebhook(ctx context.Context, req RegisterWebhookRequest) (Webhook, error)
	UnregisterWebhook(ctx context.Context, req UnregisterWebhookRequest) (bool, error)
}

type CreateConnectionInput struct {
	IntegrationID        string
	UserID               string
	Status               ConnectionStatus
	GrantedScopes        []string
	ExternalAccountID    string
	ExternalAccountEmail string
	ExpiresAt            time.Time
	Metadata             map[string]any
}

type ConnectionStore interface {
	Create(ctx context.Context, in CreateConnectionInput) (Connection, error)
	Get(ctx context.Context, id string) (Connection, error)
	Update(ctx context.Context, connection Connection) (Connection, error)
	ListByUser(ctx context.Context, userID string) ([]Connection, error)
	ListByIntegration(ctx context.Context, integrationID string) ([]Connection, error)
}

type WebhookStore interface {
	Save(ctx context.Context, webhook Webhook) (Webhook, error)
	Get(ctx context.Context, id string) (Webhook, error)
	ListByConnection(ctx context.Context, connectionID string) ([]Webhook, error)
	Delete(ctx context.Context, id string) error
}

type SyncProgressStore interface {
	Save(ctx context.Context, progress SyncProgress) error
	Get(ctx context.Context, connectionID string) (SyncProgress, bool, error)
}

// TokenVault is the TTL-bounded secret store. Values are opaque strings;
// implementations encrypt at rest. A zero ttl means no expiry.
type TokenVault interface {
	StoreKey(ctx context.Context, id string, value string, ttl time.Duration) error
	GetKey(ctx context.Context, id string) (string, error)
	DeleteKey(ctx context.Context, id string) error
}

type SecretProvider interface {
	Encrypt(ctx context.Context, plaintext []byte) ([]byte, error)
	Decrypt(ctx context.Context, ciphertext []byte) ([]byte, error)
}

type AuditLogger interface {
	Log(ctx context.Context, event AuditEvent) error
}

// RateLimiter gates outbound endpoint calls. Allow returns false when the
// call budget for the key is exhausted.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limitPerMinute int) (bool, error)
}

// Sanitizer scrubs outbound request bodies before they leave the process.
type Sanitizer interface {
	SanitizeObject(in map[string]any) map[string]any
}

type StoreProvider interface {
	ConnectionStore() ConnectionStore
	WebhookStore() WebhookStore
	SyncProgressStore() SyncProgressStore
}

type RepositoryStoreFactory interface {
	BuildStores(persistenceClient any) (StoreProvider, error)
}

type ConnectResult struct {
	Connection Connection
	AuthURL    string
	State      string
}

type CallbackRequest struct {
	Code   string
	State  string
	UserID string
}

type RefreshJobMessage struct {
	ConnectionID   string
	IntegrationID  string
	IdempotencyKey string
	Parameters     map[string]any
}

type RefreshJobEnqueuer interface {
	Enqueue(ctx context.Context, msg *RefreshJobMessage) error
}

// IntegrationService is the caller-facing facade over the lifecycle manager.
type IntegrationService interface {
	RegisterIntegration(ctx context.Context, integration Integration, adapter ProviderAdapter) error
	ListIntegrations(ctx context.Context) []Integration
	GetIntegration(ctx context.Context, id string) (Integration, bool)

	Connect(ctx context.Context, integrationID string, userID string) (ConnectResult, error)
	HandleCallback(ctx context.Context, req CallbackRequest) (Connection, error)
	Refresh(ctx context.Context, connectionID string) (Connection, error)
	Disconnect(ctx context.Context, connectionID string) (Connection, error)
	GetConnection(ctx context.Context, connectionID string) (Connection, error)
	ListConnections(ctx context.Context, userID string) ([]Connection, error)

	ExecuteEndpoint(ctx context.Context, connectionID string, endpointID string, params map[string]any) (any, error)

	Sync(ctx context.Context, connectionID string, dataTypes []string) (SyncResult, error)
	SyncStatus(ctx context.Context, connectionID string) SyncProgress

	RegisterWebhook(ctx context.Context, connectionID string, events []string) (Webhook, error)
	UnregisterWebhook(ctx context.Context, webhookID string) error
	DispatchWebhook(ctx context.Context, webhookID string, event string, payload map[string]any) error
}
