package providers

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/goliatone/go-integrations/core"
)

const (
	defaultTokenRequestTimeout = 30 * time.Second
	defaultEndpointTimeout     = 10 * time.Second
	maxResponseBodyBytes       = 1 << 20 // 1 MiB
)

type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// ProfileResolver turns a fresh token set into the provider account identity.
type ProfileResolver interface {
	Resolve(ctx context.Context, integration core.Integration, accessToken string, idToken string) (core.ProviderProfile, error)
}

// DataTypeSyncer pulls one data type for a connection. Failures are isolated
// per type by the adapter.
type DataTypeSyncer func(ctx context.Context, req core.SyncRequest, dataType string) (core.SyncResult, error)

// WebhookRegistrar performs provider-side webhook registration. When absent
// the adapter manages webhook records locally.
type WebhookRegistrar interface {
	Register(ctx context.Context, req core.RegisterWebhookRequest) (core.Webhook, error)
	Unregister(ctx context.Context, req core.UnregisterWebhookRequest) (bool, error)
}

type OAuth2AdapterConfig struct {
	IntegrationID       string
	ProfileResolver     ProfileResolver
	RateLimiter         core.RateLimiter
	Sanitizer           core.Sanitizer
	WebhookRegistrar    WebhookRegistrar
	DataTypeSyncers     map[string]DataTypeSyncer
	TokenTTL            time.Duration
	TokenRequestTimeout time.Duration
	EndpointTimeout     time.Duration
	Now                 func() time.Time
	HTTPClient          HTTPDoer
}

// OAuth2Adapter is the authorization-code adapter shared by every REST
// provider. Provider packages configure it instead of re-implementing the
// token dance.
type OAuth2Adapter struct {
	cfg        OAuth2AdapterConfig
	httpClient HTTPDoer
}

type tokenEndpointPayload struct {
	AccessToken      string
	TokenType        string
	RefreshToken     string
	IDToken          string
	Scope            string
	ExpiresIn        int64
	ErrorCode        string
	ErrorDescription string
}

func NewOAuth2Adapter(cfg OAuth2AdapterConfig) (*OAuth2Adapter, error) {
	cfg.IntegrationID = strings.TrimSpace(strings.ToLower(cfg.IntegrationID))
	if cfg.IntegrationID == "" {
		return nil, fmt.Errorf("providers: integration id is required")
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = time.Hour
	}
	if cfg.TokenRequestTimeout <= 0 {
		cfg.TokenRequestTimeout = defaultTokenRequestTimeout
	}
	if cfg.EndpointTimeout <= 0 {
		cfg.EndpointTimeout = defaultEndpointTimeout
	}
	if cfg.Now == nil {
		cfg.Now = func() time.Time {
			return time.Now().UTC()
		}
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.TokenRequestTimeout}
	}
	return &OAuth2Adapter{cfg: cfg, httpClient: httpClient}, nil
}

func (a *OAuth2Adapter) IntegrationID() string {
	if a == nil {
		return ""
	}
	return a.cfg.IntegrationID
}

func (a *OAuth2Adapter) BuildAuthURL(req core.AuthURLRequest) (string, error) {
	if a == nil {
		return "", fmt.Errorf("providers: oauth2 adapter is nil")
	}
	auth := req.Integration.AuthConfig
	if strings.TrimSpace(auth.AuthURL) == "" {
		return "", fmt.Errorf("providers: auth url is required for integration %q", req.Integration.ID)
	}
	state := strings.TrimSpace(req.State)
	if state == "" {
		return "", fmt.Errorf("providers: oauth state is required")
	}

	responseType := strings.TrimSpace(auth.ResponseType)
	if responseType == "" {
		responseType = "code"
	}

	values := url.Values{}
	values.Set("response_type", responseType)
	values.Set("client_id", auth.ClientID)
	if redirectURI := strings.TrimSpace(auth.RedirectURI); redirectURI != "" {
		values.Set("redirect_uri", redirectURI)
	}
	if scopes := normalizeScopeList(auth.Scopes); len(scopes) > 0 {
		values.Set("scope", strings.Join(scopes, " "))
	}
	values.Set("state", state)
	if challenge := strings.TrimSpace(req.CodeChallenge); challenge != "" {
		values.Set("code_challenge", challenge)
		values.Set("code_challenge_method", core.CodeChallengeMethodS256)
	}
	for key, value := range auth.ExtraParams {
		if strings.TrimSpace(key) != "" {
			values.Set(key, value)
		}
	}
	for key, value := range req.ExtraParams {
		if strings.TrimSpace(key) != "" {
			values.Set(key, value)
		}
	}

	authURL := strings.TrimSpace(auth.AuthURL)
	if strings.Contains(authURL, "?") {
		return authURL + "&" + values.Encode(), nil
	}
	return authURL + "?" + values.Encode(), nil
}

func (a *OAuth2Adapter) ExchangeCallback(ctx context.Context, req core.ExchangeCallbackRequest) (core.ExchangeCallbackResult, error) {
	if a == nil {
		return core.ExchangeCallbackResult{}, fmt.Errorf("providers: oauth2 adapter is nil")
	}
	code := strings.TrimSpace(req.Code)
	if code == "" {
		return core.ExchangeCallbackResult{}, fmt.Errorf("%w: auth code is required", core.ErrAuthExchangeFailed)
	}

	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	if redirectURI := strings.TrimSpace(req.RedirectURI); redirectURI != "" {
		form.Set("redirect_uri", redirectURI)
	}
	if verifier := strings.TrimSpace(req.CodeVerifier); verifier != "" {
		form.Set("code_verifier", verifier)
	}

	token, err := a.fetchToken(ctx, req.Integration, form)
	if err != nil {
		return core.ExchangeCallbackResult{}, fmt.Errorf("%w: %v", core.ErrAuthExchangeFailed, err)
	}

	tokens := a.tokenSet(token, req.Integration)
	profile := core.ProviderProfile{}
	if a.cfg.ProfileResolver != nil {
		resolved, profileErr := a.cfg.ProfileResolver.Resolve(ctx, req.Integration, tokens.AccessToken, token.IDToken)
		if profileErr != nil {
			return core.ExchangeCallbackResult{}, fmt.Errorf("%w: resolve profile: %v", core.ErrAuthExchangeFailed, profileErr)
		}
		profile = resolved
	}

	return core.ExchangeCallbackResult{Tokens: tokens, Profile: profile}, nil
}

func (a *OAuth2Adapter) RefreshToken(ctx context.Context, req core.RefreshTokenRequest) (core.TokenSet, error) {
	if a == nil {
		return core.TokenSet{}, fmt.Errorf("providers: oauth2 adapter is nil")
	}
	refreshToken := strings.TrimSpace(req.RefreshToken)
	if refreshToken == "" {
		return core.TokenSet{}, fmt.Errorf("providers: refresh token is required")
	}

	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", refreshToken)

	token, err := a.fetchToken(ctx, req.Integration, form)
	if err != nil {
		return core.TokenSet{}, err
	}
	return a.tokenSet(token, req.Integration), nil
}

func (a *OAuth2Adapter) FetchProfile(ctx context.Context, integration core.Integration, accessToken string) (core.ProviderProfile, error) {
	if a == nil {
		return core.ProviderProfile{}, fmt.Errorf("providers: oauth2 adapter is nil")
	}
	if a.cfg.ProfileResolver == nil {
		return core.ProviderProfile{}, fmt.Errorf("providers: no profile resolver configured for integration %q", integration.ID)
	}
	return a.cfg.ProfileResolver.Resolve(ctx, integration, accessToken, "")
}

func (a *OAuth2Adapter) ExecuteEndpoint(ctx context.Context, req core.EndpointRequest) (any, error) {
	if a == nil {
		return nil, fmt.Errorf("providers: oauth2 adapter is nil")
	}
	endpoint, ok := req.Integration.Endpoint(req.EndpointID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", core.ErrEndpointNotFound, req.EndpointID)
	}

	required := req.Integration.ScopesForPermissions(endpoint.RequiredPermissions)
	if missing := missingFromGranted(required, req.Connection.GrantedScopes); len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", core.ErrMissingScopes, strings.Join(missing, ", "))
	}

	if a.cfg.RateLimiter != nil && endpoint.RateLimitPerMinute > 0 {
		key := req.Integration.ID + ":" + endpoint.ID + ":" + req.Connection.ID
		allowed, err := a.cfg.RateLimiter.Allow(ctx, key, endpoint.RateLimitPerMinute)
		if err != nil {
			return nil, err
		}
		if !allowed {
			return nil, fmt.Errorf("%w: %s", core.ErrRateLimitExceeded, endpoint.ID)
		}
	}

	params := req.Params
	if a.cfg.Sanitizer != nil && len(params) > 0 {
		params = a.cfg.Sanitizer.SanitizeObject(params)
	}

	endpointURL, remaining, err := expandURLTemplate(endpoint.URLTemplate, params)
	if err != nil {
		return nil, err
	}

	method := strings.ToUpper(strings.TrimSpace(endpoint.Method))
	if method == "" {
		method = http.MethodGet
	}

	var body io.Reader
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
		if len(remaining) > 0 {
			encoded, marshalErr := json.Marshal(remaining)
			if marshalErr != nil {
				return nil, fmt.Errorf("providers: encode request body: %w", marshalErr)
			}
			body = bytes.NewReader(encoded)
		}
	default:
		if len(remaining) > 0 {
			query := url.Values{}
			keys := make([]string, 0, len(remaining))
			for key := range remaining {
				keys = append(keys, key)
			}
			sort.Strings(keys)
			for _, key := range keys {
				query.Set(key, fmt.Sprint(remaining[key]))
			}
			if strings.Contains(endpointURL, "?") {
				endpointURL += "&" + query.Encode()
			} else {
				endpointURL += "?" + query.Encode()
			}
		}
	}

	requestCtx, cancel := context.WithTimeout(ctx, a.cfg.EndpointTimeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(requestCtx, method, endpointURL, body)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+req.AccessToken)
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	response, err := a.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("providers: endpoint request failed: %w", err)
	}
	defer response.Body.Close()

	payload, err := readLimitedBody(response.Body)
	if err != nil {
		return nil, err
	}
	if response.StatusCode < http.StatusOK || response.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf(
			"providers: endpoint %s returned status %d: %s",
			endpoint.ID, response.StatusCode, summarizeBody(payload),
		)
	}
	if len(bytes.TrimSpace(payload)) == 0 {
		return nil, nil
	}
	var decoded any
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return string(payload), nil
	}
	return decoded, nil
}

// SyncData runs each requested data type in isolation: one failing type is
// recorded and the rest still run.
func (a *OAuth2Adapter) SyncData(ctx context.Context, req core.SyncRequest) (core.SyncResult, error) {
	if a == nil {
		return core.SyncResult{}, fmt.Errorf("providers: oauth2 adapter is nil")
	}
	declared := map[string]struct{}{}
	for _, dataType := range req.Integration.DataTypes {
		declared[strings.TrimSpace(dataType)] = struct{}{}
	}
	requested := normalizeScopeList(req.DataTypes)
	if len(requested) == 0 {
		requested = normalizeScopeList(req.Integration.DataTypes)
	}

	// Per-type failures are tallied on the result; the run itself completes.
	aggregate := core.SyncResult{Status: core.SyncStatusCompleted}
	for _, dataType := range requested {
		if _, ok := declared[dataType]; !ok {
			aggregate.Errors = append(aggregate.Errors, core.DataTypeError{
				DataType: dataType,
				Message:  "data type is not declared by the integration",
			})
			continue
		}
		syncer := a.cfg.DataTypeSyncers[dataType]
		if syncer == nil {
			aggregate.Errors = append(aggregate.Errors, core.DataTypeError{
				DataType: dataType,
				Message:  "no syncer configured",
			})
			continue
		}
		partial, err := syncer(ctx, req, dataType)
		if err != nil {
			aggregate.Errors = append(aggregate.Errors, core.DataTypeError{
				DataType: dataType,
				Message:  err.Error(),
			})
			continue
		}
		aggregate.NewItems += partial.NewItems
		aggregate.UpdatedItems += partial.UpdatedItems
		aggregate.DeletedItems += partial.DeletedItems
		aggregate.Conflicts += partial.Conflicts
	}
	return aggregate, nil
}

func (a *OAuth2Adapter) RegisterWebhook(ctx context.Context, req core.RegisterWebhookRequest) (core.Webhook, error) {
	if a == nil {
		return core.Webhook{}, fmt.Errorf("providers: oauth2 adapter is nil")
	}
	if a.cfg.WebhookRegistrar != nil {
		return a.cfg.WebhookRegistrar.Register(ctx, req)
	}
	secret, err := generateWebhookSecret()
	if err != nil {
		return core.Webhook{}, err
	}
	return core.Webhook{
		ConnectionID:  req.Connection.ID,
		IntegrationID: req.Integration.ID,
		URL:           strings.TrimSpace(req.CallbackURL),
		Events:        normalizeScopeList(req.Events),
		Secret:        secret,
		Active:        true,
	}, nil
}

func (a *OAuth2Adapter) UnregisterWebhook(ctx context.Context, req core.UnregisterWebhookRequest) (bool, error) {
	if a == nil {
		return false, fmt.Errorf("providers: oauth2 adapter is nil")
	}
	if a.cfg.WebhookRegistrar != nil {
		return a.cfg.WebhookRegistrar.Unregister(ctx, req)
	}
	return true, nil
}

func (a *OAuth2Adapter) tokenSet(token tokenEndpointPayload, integration core.Integration) core.TokenSet {
	now := a.cfg.Now().UTC()
	tokens := core.TokenSet{
		AccessToken:   strings.TrimSpace(token.AccessToken),
		RefreshToken:  strings.TrimSpace(token.RefreshToken),
		TokenType:     normalizeTokenType(token.TokenType),
		GrantedScopes: normalizeScopeList(parseScopeList(token.Scope)),
	}
	ttl := a.cfg.TokenTTL
	if token.ExpiresIn > 0 {
		ttl = time.Duration(token.ExpiresIn) * time.Second
	}
	if ttl > 0 {
		expiresAt := now.Add(ttl)
		tokens.ExpiresAt = &expiresAt
	}
	if len(tokens.GrantedScopes) == 0 {
		tokens.GrantedScopes = normalizeScopeList(integration.AuthConfig.Scopes)
	}
	return tokens
}

func (a *OAuth2Adapter) fetchToken(ctx context.Context, integration core.Integration, form url.Values) (tokenEndpointPayload, error) {
	if a.httpClient == nil {
		return tokenEndpointPayload{}, fmt.Errorf("providers: oauth2 http client is not configured")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	auth := integration.AuthConfig
	tokenURL := strings.TrimSpace(auth.TokenURL)
	if tokenURL == "" {
		return tokenEndpointPayload{}, fmt.Errorf("providers: token url is required for integration %q", integration.ID)
	}

	values := url.Values{}
	for key, items := range form {
		if strings.TrimSpace(key) == "" {
			continue
		}
		for _, item := range items {
			values.Add(key, strings.TrimSpace(item))
		}
	}
	values.Set("client_id", auth.ClientID)
	if secret := strings.TrimSpace(auth.ClientSecret); secret != "" {
		values.Set("client_secret", secret)
	}

	requestCtx, cancel := context.WithTimeout(ctx, a.cfg.TokenRequestTimeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(
		requestCtx,
		http.MethodPost,
		tokenURL,
		strings.NewReader(values.Encode()),
	)
	if err != nil {
		return tokenEndpointPayload{}, err
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	httpReq.Header.Set("Accept", "application/json")

	response, err := a.httpClient.Do(httpReq)
	if err != nil {
		return tokenEndpointPayload{}, fmt.Errorf("providers: token request failed: %w", err)
	}
	defer response.Body.Close()

	body, err := readLimitedBody(response.Body)
	if err != nil {
		return tokenEndpointPayload{}, err
	}
	payload, parseErr := parseTokenPayload(body, response.Header.Get("Content-Type"))
	if parseErr != nil {
		return tokenEndpointPayload{}, fmt.Errorf("providers: decode token response: %w", parseErr)
	}
	if response.StatusCode < http.StatusOK || response.StatusCode >= http.StatusMultipleChoices {
		return tokenEndpointPayload{}, fmt.Errorf(
			"providers: token endpoint error (%d): %s",
			response.StatusCode,
			describeTokenError(payload),
		)
	}
	if payload.ErrorCode != "" {
		return tokenEndpointPayload{}, fmt.Errorf("providers: token endpoint error: %s", describeTokenError(payload))
	}
	if strings.TrimSpace(payload.AccessToken) == "" {
		return tokenEndpointPayload{}, fmt.Errorf("providers: token endpoint response missing access token")
	}
	return payload, nil
}

func readLimitedBody(reader io.Reader) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(reader, maxResponseBodyBytes+1))
	if err != nil {
		return nil, fmt.Errorf("providers: read response body: %w", err)
	}
	if int64(len(body)) > maxResponseBodyBytes {
		return nil, fmt.Errorf("providers: response exceeds %d bytes", maxResponseBodyBytes)
	}
	return body, nil
}

func describeTokenError(payload tokenEndpointPayload) string {
	if strings.TrimSpace(payload.ErrorDescription) != "" {
		return strings.TrimSpace(payload.ErrorDescription)
	}
	if strings.TrimSpace(payload.ErrorCode) != "" {
		return strings.TrimSpace(payload.ErrorCode)
	}
	return "unknown error"
}

func summarizeBody(body []byte) string {
	trimmed := strings.TrimSpace(string(body))
	if len(trimmed) > 256 {
		return trimmed[:256]
	}
	if trimmed == "" {
		return "empty body"
	}
	return trimmed
}

func parseTokenPayload(body []byte, contentType string) (tokenEndpointPayload, error) {
	contentType = strings.ToLower(strings.TrimSpace(contentType))
	if strings.Contains(contentType, "json") {
		return parseTokenPayloadJSON(body)
	}
	if strings.Contains(contentType, "x-www-form-urlencoded") || strings.Contains(contentType, "text/plain") {
		return parseTokenPayloadForm(body)
	}
	if payload, err := parseTokenPayloadJSON(body); err == nil {
		return payload, nil
	}
	return parseTokenPayloadForm(body)
}

func parseTokenPayloadJSON(body []byte) (tokenEndpointPayload, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return tokenEndpointPayload{}, fmt.Errorf("empty payload")
	}
	var decoded map[string]any
	if err := json.Unmarshal(body, &decoded); err != nil {
		return tokenEndpointPayload{}, err
	}
	return tokenEndpointPayload{
		AccessToken:      readAnyString(decoded["access_token"]),
		TokenType:        readAnyString(decoded["token_type"]),
		RefreshToken:     readAnyString(decoded["refresh_token"]),
		IDToken:          readAnyString(decoded["id_token"]),
		Scope:            readAnyString(decoded["scope"]),
		ExpiresIn:        readAnyInt64(decoded["expires_in"]),
		ErrorCode:        readAnyString(decoded["error"]),
		ErrorDescription: readAnyString(decoded["error_description"]),
	}, nil
}

func parseTokenPayloadForm(body []byte) (tokenEndpointPayload, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return tokenEndpointPayload{}, fmt.Errorf("empty payload")
	}
	values, err := url.ParseQuery(string(body))
	if err != nil {
		return tokenEndpointPayload{}, err
	}
	expiresIn, _ := strconv.ParseInt(strings.TrimSpace(values.Get("expires_in")), 10, 64)
	return tokenEndpointPayload{
		AccessToken:      strings.TrimSpace(values.Get("access_token")),
		TokenType:        strings.TrimSpace(values.Get("token_type")),
		RefreshToken:     strings.TrimSpace(values.Get("refresh_token")),
		IDToken:          strings.TrimSpace(values.Get("id_token")),
		Scope:            strings.TrimSpace(values.Get("scope")),
		ExpiresIn:        expiresIn,
		ErrorCode:        strings.TrimSpace(values.Get("error")),
		ErrorDescription: strings.TrimSpace(values.Get("error_description")),
	}, nil
}

// expandURLTemplate replaces {name} segments from params and returns the
// params that were not consumed by the template.
func expandURLTemplate(template string, params map[string]any) (string, map[string]any, error) {
	remaining := make(map[string]any, len(params))
	for key, value := range params {
		remaining[key] = value
	}
	var out strings.Builder
	rest := template
	for {
		start := strings.Index(rest, "{")
		if start < 0 {
			out.WriteString(rest)
			break
		}
		end := strings.Index(rest[start:], "}")
		if end < 0 {
			return "", nil, fmt.Errorf("providers: unterminated template parameter in %q", template)
		}
		name := rest[start+1 : start+end]
		value, ok := remaining[name]
		if !ok {
			return "", nil, fmt.Errorf("providers: missing template parameter %q", name)
		}
		out.WriteString(rest[:start])
		out.WriteString(url.PathEscape(fmt.Sprint(value)))
		delete(remaining, name)
		rest = rest[start+end+1:]
	}
	return out.String(), remaining, nil
}

func missingFromGranted(required []string, granted []string) []string {
	grantedSet := make(map[string]struct{}, len(granted))
	for _, scope := range granted {
		grantedSet[strings.TrimSpace(scope)] = struct{}{}
	}
	missing := []string{}
	for _, scope := range normalizeScopeList(required) {
		if _, ok := grantedSet[scope]; !ok {
			missing = append(missing, scope)
		}
	}
	return missing
}

func normalizeTokenType(value string) string {
	normalized := strings.ToLower(strings.TrimSpace(value))
	if normalized == "" {
		return "bearer"
	}
	return normalized
}

func parseScopeList(value string) []string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return []string{}
	}
	return strings.Fields(strings.ReplaceAll(trimmed, ",", " "))
}

func normalizeScopeList(input []string) []string {
	if len(input) == 0 {
		return []string{}
	}
	values := make([]string, 0, len(input))
	seen := map[string]struct{}{}
	for _, value := range input {
		normalized := strings.TrimSpace(value)
		if normalized == "" {
			continue
		}
		if _, ok := seen[normalized]; ok {
			continue
		}
		seen[normalized] = struct{}{}
		values = append(values, normalized)
	}
	return values
}

func readAnyString(value any) string {
	switch typed := value.(type) {
	case string:
		return strings.TrimSpace(typed)
	case json.Number:
		return strings.TrimSpace(typed.String())
	case fmt.Stringer:
		return strings.TrimSpace(typed.String())
	default:
		if value == nil {
			return ""
		}
		return strings.TrimSpace(fmt.Sprint(value))
	}
}

func readAnyInt64(value any) int64 {
	switch typed := value.(type) {
	case int:
		return int64(typed)
	case int64:
		return typed
	case float64:
		return int64(typed)
	case json.Number:
		parsed, err := typed.Int64()
		if err == nil {
			return parsed
		}
		floatParsed, floatErr := typed.Float64()
		if floatErr == nil {
			return int64(floatParsed)
		}
	case string:
		parsed, err := strconv.ParseInt(strings.TrimSpace(typed), 10, 64)
		if err == nil {
			return parsed
		}
	}
	return 0
}

func generateWebhookSecret() (string, error) {
	raw := make([]byte, 24)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("providers: generate webhook secret: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}

var _ core.ProviderAdapter = (*OAuth2Adapter)(nil)
