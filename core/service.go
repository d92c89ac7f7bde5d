package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	glog "github.com/goliatone/go-logger/glog"
	"github.com/google/uuid"
)

// Service owns the connection lifecycle: auth initiation, callback exchange,
// refresh, and disconnect. One instance is built at process start and
// injected into callers; there is no package-level state.
type Service struct {
	config            Config
	logger            Logger
	loggerProvider    LoggerProvider
	metricsRecorder   MetricsRecorder
	errorFactory      ErrorFactory
	errorMapper       ErrorMapper
	secretProvider    SecretProvider
	persistenceClient any
	repositoryFactory any
	configProvider    ConfigProvider
	optionsResolver   OptionsResolver
	registry          *IntegrationRegistry
	vault             TokenVault
	connectionStore   ConnectionStore
	webhookStore      WebhookStore
	progressStore     SyncProgressStore
	auditLogger       AuditLogger
	rateLimiter       RateLimiter
	sanitizer         Sanitizer
	refreshes         *refreshGroup
}

type ServiceDependencies struct {
	Logger            Logger
	LoggerProvider    LoggerProvider
	MetricsRecorder   MetricsRecorder
	ErrorFactory      ErrorFactory
	ErrorMapper       ErrorMapper
	SecretProvider    SecretProvider
	PersistenceClient any
	RepositoryFactory any
	ConfigProvider    ConfigProvider
	OptionsResolver   OptionsResolver
	Registry          *IntegrationRegistry
	TokenVault        TokenVault
	ConnectionStore   ConnectionStore
	WebhookStore      WebhookStore
	SyncProgressStore SyncProgressStore
	AuditLogger       AuditLogger
	RateLimiter       RateLimiter
	Sanitizer         Sanitizer
}

func NewService(cfg Config, opts ...Option) (*Service, error) {
	builder := defaultServiceBuilder(cfg)
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&builder)
	}

	provider, logger := glog.Resolve("integrations", builder.loggerProvider, builder.logger)
	logger = glog.Ensure(logger)
	if provider != nil {
		if named := provider.GetLogger("integrations"); named != nil {
			logger = glog.Ensure(named)
		}
	}

	if builder.errorFactory == nil {
		builder.errorFactory = goerrors.New
	}
	if builder.metricsRecorder == nil {
		builder.metricsRecorder = NopMetricsRecorder{}
	}
	if builder.errorMapper == nil {
		builder.errorMapper = defaultErrorMapper
	}
	if builder.configProvider == nil {
		builder.configProvider = NewCfgxConfigProvider(nil)
	}
	if builder.optionsResolver == nil {
		builder.optionsResolver = GoOptionsResolver{}
	}
	if builder.auditLogger == nil {
		builder.auditLogger = NopAuditLogger{}
	}
	if builder.registry == nil {
		builder.registry = NewIntegrationRegistry(builder.auditLogger)
	}
	if builder.sanitizer == nil {
		builder.sanitizer = RedactingSanitizer{}
	}
	if builder.vault == nil {
		builder.vault = NewMemoryTokenVault()
	}
	if builder.secretProvider != nil {
		if _, alreadyEncrypted := builder.vault.(*EncryptedTokenVault); !alreadyEncrypted {
			builder.vault = NewEncryptedTokenVault(builder.vault, builder.secretProvider)
		}
	}

	defaults := DefaultConfig()
	loaded, err := builder.configProvider.Load(context.Background(), defaults)
	if err != nil {
		return nil, mapBuildError(builder.errorMapper, err)
	}
	finalConfig, err := builder.optionsResolver.Resolve(defaults, loaded, builder.runtimeConfig)
	if err != nil {
		return nil, mapBuildError(builder.errorMapper, err)
	}

	if builder.repositoryFactory != nil &&
		(builder.connectionStore == nil || builder.webhookStore == nil || builder.progressStore == nil) {
		var storeProvider StoreProvider
		if storeFactory, ok := builder.repositoryFactory.(RepositoryStoreFactory); ok {
			built, buildErr := storeFactory.BuildStores(builder.persistenceClient)
			if buildErr != nil {
				return nil, mapBuildError(builder.errorMapper, buildErr)
			}
			storeProvider = built
		} else if built, ok := builder.repositoryFactory.(StoreProvider); ok {
			storeProvider = built
		}
		if storeProvider != nil {
			if builder.connectionStore == nil {
				builder.connectionStore = storeProvider.ConnectionStore()
			}
			if builder.webhookStore == nil {
				builder.webhookStore = storeProvider.WebhookStore()
			}
			if builder.progressStore == nil {
				builder.progressStore = storeProvider.SyncProgressStore()
			}
		}
	}
	if builder.connectionStore == nil {
		builder.connectionStore = NewMemoryConnectionStore()
	}
	if builder.webhookStore == nil {
		builder.webhookStore = NewMemoryWebhookStore()
	}
	if builder.progressStore == nil {
		builder.progressStore = NewMemorySyncProgressStore()
	}

	return &Service{
		config:            finalConfig,
		logger:            logger,
		loggerProvider:    provider,
		metricsRecorder:   builder.metricsRecorder,
		errorFactory:      builder.errorFactory,
		errorMapper:       builder.errorMapper,
		secretProvider:    builder.secretProvider,
		persistenceClient: builder.persistenceClient,
		repositoryFactory: builder.repositoryFactory,
		configProvider:    builder.configProvider,
		optionsResolver:   builder.optionsResolver,
		registry:          builder.registry,
		vault:             builder.vault,
		connectionStore:   builder.connectionStore,
		webhookStore:      builder.webhookStore,
		progressStore:     builder.progressStore,
		auditLogger:       builder.auditLogger,
		rateLimiter:       builder.rateLimiter,
		sanitizer:         builder.sanitizer,
		refreshes:         newRefreshGroup(),
	}, nil
}

func Setup(cfg Config, opts ...Option) (*Service, error) {
	return NewService(cfg, opts...)
}

func mapBuildError(mapper ErrorMapper, err error) error {
	if err == nil {
		return nil
	}
	if mapper == nil {
		return err
	}
	mapped := mapper(err)
	if mapped == nil {
		return err
	}
	return mapped
}

func (s *Service) Config() Config {
	if s == nil {
		return Config{}
	}
	return s.config
}

func (s *Service) Registry() *IntegrationRegistry {
	if s == nil {
		return nil
	}
	return s.registry
}

func (s *Service) Dependencies() ServiceDependencies {
	if s == nil {
		return ServiceDependencies{}
	}
	return ServiceDependencies{
		Logger:            s.logger,
		LoggerProvider:    s.loggerProvider,
		MetricsRecorder:   s.metricsRecorder,
		ErrorFactory:      s.errorFactory,
		ErrorMapper:       s.errorMapper,
		SecretProvider:    s.secretProvider,
		PersistenceClient: s.persistenceClient,
		RepositoryFactory: s.repositoryFactory,
		ConfigProvider:    s.configProvider,
		OptionsResolver:   s.optionsResolver,
		Registry:          s.registry,
		TokenVault:        s.vault,
		ConnectionStore:   s.connectionStore,
		WebhookStore:      s.webhookStore,
		SyncProgressStore: s.progressStore,
		AuditLogger:       s.auditLogger,
		RateLimiter:       s.rateLimiter,
		Sanitizer:         s.sanitizer,
	}
}

func (s *Service) RegisterIntegration(ctx context.Context, integration Integration, adapter ProviderAdapter) error {
	if s == nil || s.registry == nil {
		return fmt.Errorf("core: registry unavailable")
	}
	if err := s.registry.Register(ctx, integration, adapter); err != nil {
		return s.mapError(err)
	}
	return nil
}

func (s *Service) ListIntegrations(context.Context) []Integration {
	if s == nil || s.registry == nil {
		return nil
	}
	return s.registry.List()
}

func (s *Service) GetIntegration(_ context.Context, id string) (Integration, bool) {
	if s == nil || s.registry == nil {
		return Integration{}, false
	}
	return s.registry.Get(id)
}

// Connect starts the authorization flow. The returned connection is PENDING
// and lives only in the vault under the state key until the callback lands;
// it never appears in persisted connection lists.
func (s *Service) Connect(ctx context.Context, integrationID string, userID string) (result ConnectResult, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{
		"integration_id": integrationID,
		"user_id":        userID,
	}
	defer func() {
		s.observeOperation(ctx, startedAt, "connect", err, fields)
	}()

	userID = strings.TrimSpace(userID)
	if userID == "" {
		err = s.mapError(fmt.Errorf("core: user id is required"))
		return ConnectResult{}, err
	}
	integration, adapter, err := s.resolveIntegration(integrationID)
	if err != nil {
		return ConnectResult{}, err
	}

	state, err := generateOAuthState()
	if err != nil {
		err = s.mapError(err)
		return ConnectResult{}, err
	}

	codeChallenge := ""
	if integration.AuthConfig.PKCEEnabled {
		verifier, verifierErr := GenerateCodeVerifier()
		if verifierErr != nil {
			err = s.mapError(verifierErr)
			return ConnectResult{}, err
		}
		if storeErr := s.vault.StoreKey(ctx, pkceVaultKey(state), verifier, s.pendingAuthTTL()); storeErr != nil {
			err = s.mapError(storeErr)
			return ConnectResult{}, err
		}
		codeChallenge = CodeChallengeS256(verifier)
	}

	authURL, err := adapter.BuildAuthURL(AuthURLRequest{
		Integration:   integration,
		State:         state,
		CodeChallenge: codeChallenge,
	})
	if err != nil {
		_ = s.vault.DeleteKey(ctx, pkceVaultKey(state))
		err = s.mapError(err)
		return ConnectResult{}, err
	}

	now := time.Now().UTC()
	connection := Connection{
		ID:            uuid.NewString(),
		IntegrationID: integration.ID,
		UserID:        userID,
		Status:        ConnectionStatusPending,
		Metadata: map[string]any{
			"auth_url": authURL,
			"state":    state,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	pending := pendingAuthorization{
		ConnectionID:    connection.ID,
		IntegrationID:   integration.ID,
		UserID:          userID,
		RequestedScopes: append([]string(nil), integration.AuthConfig.Scopes...),
		PKCEEnabled:     integration.AuthConfig.PKCEEnabled,
		CreatedAt:       now,
	}
	if saveErr := savePendingAuthorization(ctx, s.vault, state, pending, s.pendingAuthTTL()); saveErr != nil {
		_ = s.vault.DeleteKey(ctx, pkceVaultKey(state))
		err = s.mapError(saveErr)
		return ConnectResult{}, err
	}

	s.logAudit(ctx, AuditEvent{
		Type:        "connection.auth_started",
		Level:       AuditLevelInfo,
		Description: fmt.Sprintf("authorization started for integration %q", integration.ID),
		UserID:      userID,
		Metadata:    map[string]any{"integration_id": integration.ID},
	})

	result = ConnectResult{Connection: connection, AuthURL: authURL, State: state}
	return result, nil
}

// HandleCallback completes the flow for a browser redirect. The pending
// record and PKCE verifier are consumed before any validation so the state
// is single-use even when the exchange fails.
func (s *Service) HandleCallback(ctx context.Context, req CallbackRequest) (connection Connection, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{
		"user_id": req.UserID,
	}
	defer func() {
		if connection.ID != "" {
			fields["connection_id"] = connection.ID
			fields["integration_id"] = connection.IntegrationID
		}
		s.observeOperation(ctx, startedAt, "handle_callback", err, fields)
	}()

	pending, err := consumePendingAuthorization(ctx, s.vault, req.State)
	if err != nil {
		err = s.mapError(err)
		return Connection{}, err
	}
	verifier, err := consumeCodeVerifier(ctx, s.vault, req.State)
	if err != nil {
		err = s.mapError(err)
		return Connection{}, err
	}

	if strings.TrimSpace(req.UserID) != strings.TrimSpace(pending.UserID) {
		err = s.mapError(fmt.Errorf("%w: state belongs to another user", ErrUserMismatch))
		return Connection{}, err
	}

	integration, adapter, err := s.resolveIntegration(pending.IntegrationID)
	if err != nil {
		return Connection{}, err
	}

	exchange, exchangeErr := adapter.ExchangeCallback(ctx, ExchangeCallbackRequest{
		Integration:  integration,
		Code:         req.Code,
		RedirectURI:  integration.AuthConfig.RedirectURI,
		CodeVerifier: verifier,
	})
	if exchangeErr != nil {
		s.logAudit(ctx, AuditEvent{
			Type:        "connection.auth_failed",
			Level:       AuditLevelError,
			Description: fmt.Sprintf("code exchange failed for integration %q: %v", integration.ID, exchangeErr),
			UserID:      pending.UserID,
			Metadata:    map[string]any{"integration_id": integration.ID},
		})
		err = s.mapError(exchangeErr)
		return Connection{}, err
	}

	granted := normalizeScopes(exchange.Tokens.GrantedScopes)
	if len(granted) == 0 {
		granted = normalizeScopes(pending.RequestedScopes)
	} else if missing := missingScopes(pending.RequestedScopes, granted); len(missing) > 0 {
		err = s.mapError(fmt.Errorf("%w: %s", ErrMissingScopes, strings.Join(missing, ", ")))
		return Connection{}, err
	}

	expiresAt := time.Time{}
	if exchange.Tokens.ExpiresAt != nil {
		expiresAt = exchange.Tokens.ExpiresAt.UTC()
	}

	connection, err = s.connectionStore.Create(ctx, CreateConnectionInput{
		IntegrationID:        integration.ID,
		UserID:               pending.UserID,
		Status:               ConnectionStatusConnected,
		GrantedScopes:        granted,
		ExternalAccountID:    exchange.Profile.ID,
		ExternalAccountEmail: exchange.Profile.Email,
		ExpiresAt:            expiresAt,
	})
	if err != nil {
		err = s.mapError(err)
		return Connection{}, err
	}

	if storeErr := s.storeTokens(ctx, connection.ID, exchange.Tokens); storeErr != nil {
		err = s.mapError(storeErr)
		return Connection{}, err
	}

	s.logAudit(ctx, AuditEvent{
		Type:        "connection.connected",
		Level:       AuditLevelInfo,
		Description: fmt.Sprintf("connection established for integration %q", integration.ID),
		UserID:      pending.UserID,
		Metadata: map[string]any{
			"integration_id": integration.ID,
			"connection_id":  connection.ID,
		},
	})

	return connection, nil
}

// Refresh rotates the access token. Concurrent calls for the same connection
// coalesce on a single exchange.
func (s *Service) Refresh(ctx context.Context, connectionID string) (connection Connection, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{
		"connection_id": connectionID,
	}
	defer func() {
		s.observeOperation(ctx, startedAt, "refresh", err, fields)
	}()

	connectionID = strings.TrimSpace(connectionID)
	if connectionID == "" {
		err = s.mapError(fmt.Errorf("core: connection id is required"))
		return Connection{}, err
	}

	connection, err = s.refreshes.Do(ctx, connectionID, func() (Connection, error) {
		return s.refreshLocked(ctx, connectionID)
	})
	if err != nil {
		err = s.mapError(err)
		return Connection{}, err
	}
	return connection, nil
}

func (s *Service) refreshLocked(ctx context.Context, connectionID string) (Connection, error) {
	connection, err := s.connectionStore.Get(ctx, connectionID)
	if err != nil {
		return Connection{}, err
	}
	if connection.Status != ConnectionStatusConnected && connection.Status != ConnectionStatusExpired {
		return Connection{}, fmt.Errorf(
			"%w: refresh from %s", ErrInvalidConnectionStatusTransition, connection.Status,
		)
	}

	refreshToken, tokenErr := s.vault.GetKey(ctx, refreshTokenVaultKey(connectionID))
	if tokenErr != nil || strings.TrimSpace(refreshToken) == "" {
		return Connection{}, fmt.Errorf("%w: connection %s", ErrNoRefreshToken, connectionID)
	}

	integration, adapter, err := s.resolveIntegration(connection.IntegrationID)
	if err != nil {
		return Connection{}, err
	}

	tokens, refreshErr := adapter.RefreshToken(ctx, RefreshTokenRequest{
		Integration:  integration,
		RefreshToken: refreshToken,
	})
	now := time.Now().UTC()
	if refreshErr != nil {
		if transitionErr := connection.TransitionTo(ConnectionStatusExpired, refreshErr.Error(), now); transitionErr == nil {
			if _, updateErr := s.connectionStore.Update(ctx, connection); updateErr != nil {
				return Connection{}, updateErr
			}
		}
		s.logAudit(ctx, AuditEvent{
			Type:        "connection.refresh_failed",
			Level:       AuditLevelError,
			Description: fmt.Sprintf("token refresh failed for connection %q: %v", connectionID, refreshErr),
			UserID:      connection.UserID,
			Metadata: map[string]any{
				"integration_id": connection.IntegrationID,
				"connection_id":  connectionID,
			},
		})
		return Connection{}, fmt.Errorf("%w: %v", ErrRefreshFailed, refreshErr)
	}

	if tokens.RefreshToken == "" {
		tokens.RefreshToken = refreshToken
	}
	if storeErr := s.storeTokens(ctx, connectionID, tokens); storeErr != nil {
		return Connection{}, storeErr
	}

	if err := connection.TransitionTo(ConnectionStatusConnected, "", now); err != nil {
		return Connection{}, err
	}
	if tokens.ExpiresAt != nil {
		connection.ExpiresAt = tokens.ExpiresAt.UTC()
	}
	if granted := normalizeScopes(tokens.GrantedScopes); len(granted) > 0 {
		connection.GrantedScopes = granted
	}
	refreshedAt := now
	connection.LastRefreshedAt = &refreshedAt

	updated, err := s.connectionStore.Update(ctx, connection)
	if err != nil {
		return Connection{}, err
	}
	return updated, nil
}

// Disconnect is terminal and best-effort: webhook unregistration failures
// are logged and skipped, and the record is kept for history.
func (s *Service) Disconnect(ctx context.Context, connectionID string) (connection Connection, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{
		"connection_id": connectionID,
	}
	defer func() {
		s.observeOperation(ctx, startedAt, "disconnect", err, fields)
	}()

	connection, err = s.connectionStore.Get(ctx, connectionID)
	if err != nil {
		err = s.mapError(err)
		return Connection{}, err
	}

	integration, adapter, resolveErr := s.resolveIntegration(connection.IntegrationID)
	if resolveErr == nil {
		accessToken, _ := s.vault.GetKey(ctx, accessTokenVaultKey(connection.ID))
		webhooks, listErr := s.webhookStore.ListByConnection(ctx, connection.ID)
		if listErr == nil {
			for _, webhook := range webhooks {
				confirmed, unregisterErr := adapter.UnregisterWebhook(ctx, UnregisterWebhookRequest{
					Integration: integration,
					Connection:  connection,
					AccessToken: accessToken,
					Webhook:     webhook,
				})
				if unregisterErr != nil || !confirmed {
					s.logError(ctx, "webhook unregister failed during disconnect", map[string]any{
						"connection_id": connection.ID,
						"webhook_id":    webhook.ID,
						"error":         fmt.Sprint(unregisterErr),
					})
					continue
				}
				_ = s.webhookStore.Delete(ctx, webhook.ID)
			}
		}
	}

	now := time.Now().UTC()
	if transitionErr := connection.TransitionTo(ConnectionStatusDisconnected, "", now); transitionErr != nil {
		err = s.mapError(transitionErr)
		return Connection{}, err
	}
	if connection.Metadata == nil {
		connection.Metadata = map[string]any{}
	}
	connection.Metadata["disconnected_at"] = now.Format(time.RFC3339)

	connection, err = s.connectionStore.Update(ctx, connection)
	if err != nil {
		err = s.mapError(err)
		return Connection{}, err
	}

	_ = s.vault.DeleteKey(ctx, accessTokenVaultKey(connection.ID))
	_ = s.vault.DeleteKey(ctx, refreshTokenVaultKey(connection.ID))

	s.logAudit(ctx, AuditEvent{
		Type:        "connection.disconnected",
		Level:       AuditLevelInfo,
		Description: fmt.Sprintf("connection %q disconnected", connection.ID),
		UserID:      connection.UserID,
		Metadata: map[string]any{
			"integration_id": connection.IntegrationID,
			"connection_id":  connection.ID,
		},
	})

	return connection, nil
}

func (s *Service) GetConnection(ctx context.Context, connectionID string) (Connection, error) {
	if s == nil || s.connectionStore == nil {
		return Connection{}, fmt.Errorf("core: connection store is not configured")
	}
	connection, err := s.connectionStore.Get(ctx, connectionID)
	if err != nil {
		return Connection{}, s.mapError(err)
	}
	return connection, nil
}

func (s *Service) ListConnections(ctx context.Context, userID string) ([]Connection, error) {
	if s == nil || s.connectionStore == nil {
		return nil, fmt.Errorf("core: connection store is not configured")
	}
	connections, err := s.connectionStore.ListByUser(ctx, userID)
	if err != nil {
		return nil, s.mapError(err)
	}
	return connections, nil
}

// ExecuteEndpoint runs a declared endpoint through the adapter. An expired
// connection gets one refresh attempt first; anything not connected after
// that is rejected.
func (s *Service) ExecuteEndpoint(ctx context.Context, connectionID string, endpointID string, params map[string]any) (result any, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{
		"connection_id": connectionID,
		"endpoint_id":   endpointID,
	}
	defer func() {
		s.observeOperation(ctx, startedAt, "execute_endpoint", err, fields)
	}()

	connection, err := s.connectionStore.Get(ctx, connectionID)
	if err != nil {
		err = s.mapError(err)
		return nil, err
	}
	if connection.Status == ConnectionStatusExpired {
		if refreshed, refreshErr := s.Refresh(ctx, connection.ID); refreshErr == nil {
			connection = refreshed
		}
	}
	if connection.Status != ConnectionStatusConnected {
		err = s.mapError(fmt.Errorf("%w: connection %s is %s", ErrNotConnected, connection.ID, connection.Status))
		return nil, err
	}

	integration, adapter, err := s.resolveIntegration(connection.IntegrationID)
	if err != nil {
		return nil, err
	}
	accessToken, tokenErr := s.vault.GetKey(ctx, accessTokenVaultKey(connection.ID))
	if tokenErr != nil {
		err = s.mapError(fmt.Errorf("%w: access token unavailable", ErrNotConnected))
		return nil, err
	}

	if s.sanitizer != nil && len(params) > 0 {
		params = s.sanitizer.SanitizeObject(params)
	}

	result, execErr := adapter.ExecuteEndpoint(ctx, EndpointRequest{
		Integration: integration,
		Connection:  connection,
		AccessToken: accessToken,
		EndpointID:  endpointID,
		Params:      params,
	})
	if execErr != nil {
		err = s.mapError(execErr)
		return nil, err
	}
	return result, nil
}

// AccessToken resolves the live access token for a connected connection.
// Supporting components (sync, webhooks) use it instead of reaching into
// the vault with derived keys.
func (s *Service) AccessToken(ctx context.Context, connectionID string) (string, error) {
	if s == nil || s.vault == nil {
		return "", fmt.Errorf("core: token vault is not configured")
	}
	token, err := s.vault.GetKey(ctx, accessTokenVaultKey(strings.TrimSpace(connectionID)))
	if err != nil {
		return "", s.mapError(fmt.Errorf("%w: access token unavailable", ErrNotConnected))
	}
	return token, nil
}

func (s *Service) UpdateConnection(ctx context.Context, connection Connection) (Connection, error) {
	if s == nil || s.connectionStore == nil {
		return Connection{}, fmt.Errorf("core: connection store is not configured")
	}
	updated, err := s.connectionStore.Update(ctx, connection)
	if err != nil {
		return Connection{}, s.mapError(err)
	}
	return updated, nil
}

func (s *Service) storeTokens(ctx context.Context, connectionID string, tokens TokenSet) error {
	if s == nil || s.vault == nil {
		return fmt.Errorf("core: token vault is not configured")
	}
	accessTTL := defaultAccessTokenFallback
	if tokens.ExpiresAt != nil {
		if until := time.Until(tokens.ExpiresAt.UTC()); until > 0 {
			accessTTL = until
		}
	}
	if err := s.vault.StoreKey(ctx, accessTokenVaultKey(connectionID), tokens.AccessToken, accessTTL); err != nil {
		return err
	}
	if strings.TrimSpace(tokens.RefreshToken) == "" {
		return nil
	}
	refreshTTL := s.refreshTokenTTL()
	if tokens.RefreshExpiresAt != nil {
		if until := time.Until(tokens.RefreshExpiresAt.UTC()); until > 0 {
			refreshTTL = until
		}
	}
	return s.vault.StoreKey(ctx, refreshTokenVaultKey(connectionID), tokens.RefreshToken, refreshTTL)
}

func (s *Service) resolveIntegration(integrationID string) (Integration, ProviderAdapter, error) {
	if s == nil || s.registry == nil {
		return Integration{}, nil, s.mapError(fmt.Errorf("core: registry unavailable"))
	}
	id := strings.TrimSpace(integrationID)
	integration, ok := s.registry.Get(id)
	if !ok {
		wrapped := s.errorFactory(
			fmt.Sprintf("integration %q is not registered", id),
			goerrors.CategoryNotFound,
		).WithTextCode(IntegrationErrorIntegrationNotFound)
		return Integration{}, nil, wrapped.WithMetadata(map[string]any{"integration_id": id})
	}
	if !integration.Enabled {
		return Integration{}, nil, s.mapError(fmt.Errorf("%w: %s", ErrIntegrationDisabled, id))
	}
	adapter, ok := s.registry.Adapter(id)
	if !ok {
		return Integration{}, nil, s.mapError(fmt.Errorf("%w: %s", ErrAdapterNotFound, id))
	}
	return integration, adapter, nil
}

func (s *Service) pendingAuthTTL() time.Duration {
	if s == nil || s.config.OAuth.PendingAuthTTL <= 0 {
		return defaultPendingAuthTTL
	}
	return s.config.OAuth.PendingAuthTTL
}

func (s *Service) refreshTokenTTL() time.Duration {
	if s == nil || s.config.OAuth.RefreshTokenTTL <= 0 {
		return defaultRefreshTokenTTL
	}
	return s.config.OAuth.RefreshTokenTTL
}

func (s *Service) logAudit(ctx context.Context, event AuditEvent) {
	if s == nil || s.auditLogger == nil {
		return
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	_ = s.auditLogger.Log(ctx, event)
}

func (s *Service) mapError(err error) error {
	if err == nil {
		return nil
	}
	if s == nil || s.errorMapper == nil {
		return err
	}
	mapped := s.errorMapper(err)
	if mapped == nil {
		return err
	}
	return mapped
}

func normalizeScopes(scopes []string) []string {
	seen := map[string]struct{}{}
	out := []string{}
	for _, scope := range scopes {
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

func missingScopes(requested []string, granted []string) []string {
	grantedSet := make(map[string]struct{}, len(granted))
	for _, scope := range granted {
		grantedSet[strings.TrimSpace(scope)] = struct{}{}
	}
	missing := []string{}
	for _, scope := range normalizeScopes(requested) {
		if _, ok := grantedSet[scope]; !ok {
			missing = append(missing, scope)
		}
	}
	return missing
}
