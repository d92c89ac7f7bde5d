package integrations

import "github.com/goliatone/go-integrations/core"

type Config = core.Config

type Option = core.Option

type Service = core.Service

type ServiceDependencies = core.ServiceDependencies

type Integration = core.Integration
type ProviderAdapter = core.ProviderAdapter
type Connection = core.Connection
type ConnectionStatus = core.ConnectionStatus
type ConnectResult = core.ConnectResult
type CallbackRequest = core.CallbackRequest
type TokenSet = core.TokenSet
type SyncResult = core.SyncResult
type SyncProgress = core.SyncProgress
type Webhook = core.Webhook
type AuditEvent = core.AuditEvent

type ConnectionStore = core.ConnectionStore
type WebhookStore = core.WebhookStore
type SyncProgressStore = core.SyncProgressStore
type TokenVault = core.TokenVault
type SecretProvider = core.SecretProvider
type AuditLogger = core.AuditLogger
type RateLimiter = core.RateLimiter
type IntegrationService = core.IntegrationService

var (
	WithLogger            = core.WithLogger
	WithLoggerProvider    = core.WithLoggerProvider
	WithMetricsRecorder   = core.WithMetricsRecorder
	WithErrorFactory      = core.WithErrorFactory
	WithErrorMapper       = core.WithErrorMapper
	WithSecretProvider    = core.WithSecretProvider
	WithPersistenceClient = core.WithPersistenceClient
	WithRepositoryFactory = core.WithRepositoryFactory
	WithConfigProvider    = core.WithConfigProvider
	WithOptionsResolver   = core.WithOptionsResolver
	WithRegistry          = core.WithRegistry
	WithTokenVault        = core.WithTokenVault
	WithConnectionStore   = core.WithConnectionStore
	WithWebhookStore      = core.WithWebhookStore
	WithSyncProgressStore = core.WithSyncProgressStore
	WithAuditLogger       = core.WithAuditLogger
	WithRateLimiter       = core.WithRateLimiter
	WithSanitizer         = core.WithSanitizer
)

func DefaultConfig() Config {
	return core.DefaultConfig()
}

func NewService(cfg Config, opts ...Option) (*Service, error) {
	return core.NewService(cfg, opts...)
}

func Setup(cfg Config, opts ...Option) (*Service, error) {
	return core.Setup(cfg, opts...)
}
