// Package identity resolves the external account behind a fresh token set.
// Providers that issue an id_token are decoded locally; everything else goes
// through the provider userinfo endpoint.
package identity

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goliatone/go-integrations/core"
)

const (
	googleUserInfoURL = "https://openidconnect.googleapis.com/v1/userinfo"
	githubUserInfoURL = "https://api.github.com/user"

	defaultRequestTimeout = 10 * time.Second
	maxUserInfoBodyBytes  = 1 << 20 // 1 MiB
)

// ErrProfileNotFound indicates no usable identity could be derived from the
// token set.
var ErrProfileNotFound = errors.New("identity: provider profile not found")

type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

type Option func(*Resolver)

// Resolver builds a core.ProviderProfile from an id_token payload when one is
// present, falling back to the provider userinfo endpoint otherwise.
type Resolver struct {
	httpClient       HTTPDoer
	requestTimeout   time.Duration
	providerUserInfo map[string]string
	normalizers      map[string]func(map[string]any) core.ProviderProfile
}

func WithHTTPClient(client HTTPDoer) Option {
	return func(r *Resolver) {
		if client != nil {
			r.httpClient = client
		}
	}
}

func WithRequestTimeout(timeout time.Duration) Option {
	return func(r *Resolver) {
		if timeout > 0 {
			r.requestTimeout = timeout
		}
	}
}

// WithUserInfoEndpoint overrides or adds the userinfo endpoint for a provider.
func WithUserInfoEndpoint(provider, endpoint string) Option {
	return func(r *Resolver) {
		provider = strings.ToLower(strings.TrimSpace(provider))
		endpoint = strings.TrimSpace(endpoint)
		if provider != "" && endpoint != "" {
			r.providerUserInfo[provider] = endpoint
		}
	}
}

func NewResolver(opts ...Option) *Resolver {
	resolver := &Resolver{
		httpClient:     &http.Client{Timeout: defaultRequestTimeout},
		requestTimeout: defaultRequestTimeout,
		providerUserInfo: map[string]string{
			"google": googleUserInfoURL,
			"github": githubUserInfoURL,
		},
	}
	resolver.normalizers = map[string]func(map[string]any) core.ProviderProfile{
		"github": normalizeGitHubProfile,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(resolver)
		}
	}
	return resolver
}

// Resolve prefers the id_token payload because it avoids a network round
// trip. The userinfo endpoint is only consulted when no id_token was issued
// or its payload carries no subject.
func (r *Resolver) Resolve(ctx context.Context, integration core.Integration, accessToken string, idToken string) (core.ProviderProfile, error) {
	if r == nil {
		return core.ProviderProfile{}, fmt.Errorf("identity: resolver is nil")
	}
	var attempts []error

	if claims, err := decodeIDTokenPayload(idToken); err != nil {
		attempts = append(attempts, err)
	} else if claims != nil {
		profile := r.normalize(integration.Provider, claims)
		if profile.ID != "" {
			return profile, nil
		}
		attempts = append(attempts, fmt.Errorf("identity: id_token payload has no subject"))
	}

	endpoint := r.userInfoEndpoint(integration)
	if endpoint == "" {
		attempts = append(attempts, fmt.Errorf("identity: no userinfo endpoint for provider %q", integration.Provider))
		return core.ProviderProfile{}, profileNotFound(attempts)
	}

	claims, err := r.fetchUserInfo(ctx, endpoint, accessToken)
	if err != nil {
		attempts = append(attempts, err)
		return core.ProviderProfile{}, profileNotFound(attempts)
	}
	profile := r.normalize(integration.Provider, claims)
	if profile.ID == "" {
		attempts = append(attempts, fmt.Errorf("identity: userinfo response has no subject"))
		return core.ProviderProfile{}, profileNotFound(attempts)
	}
	return profile, nil
}

func (r *Resolver) userInfoEndpoint(integration core.Integration) string {
	if endpoint := readMetadataString(integration.Metadata, "userinfo_endpoint"); endpoint != "" {
		return endpoint
	}
	return r.providerUserInfo[strings.ToLower(strings.TrimSpace(integration.Provider))]
}

func (r *Resolver) normalize(provider string, claims map[string]any) core.ProviderProfile {
	if normalizer, ok := r.normalizers[strings.ToLower(strings.TrimSpace(provider))]; ok {
		return normalizer(claims)
	}
	return normalizeOIDCProfile(claims)
}

func (r *Resolver) fetchUserInfo(ctx context.Context, endpoint, accessToken string) (map[string]any, error) {
	if strings.TrimSpace(accessToken) == "" {
		return nil, fmt.Errorf("identity: access token is required for userinfo fetch")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	requestCtx, cancel := context.WithTimeout(ctx, r.requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(requestCtx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	response, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("identity: userinfo request failed: %w", err)
	}
	defer response.Body.Close()

	body, err := io.ReadAll(io.LimitReader(response.Body, maxUserInfoBodyBytes+1))
	if err != nil {
		return nil, fmt.Errorf("identity: read userinfo response: %w", err)
	}
	if int64(len(body)) > maxUserInfoBodyBytes {
		return nil, fmt.Errorf("identity: userinfo response exceeds %d bytes", maxUserInfoBodyBytes)
	}
	if response.StatusCode < http.StatusOK || response.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("identity: userinfo endpoint returned status %d", response.StatusCode)
	}

	var claims map[string]any
	if err := json.Unmarshal(body, &claims); err != nil {
		return nil, fmt.Errorf("identity: decode userinfo response: %w", err)
	}
	return claims, nil
}

// decodeIDTokenPayload extracts the claims segment of a JWT without verifying
// the signature. Token integrity is the token endpoint's TLS channel; the
// payload is only used for display identity.
func decodeIDTokenPayload(idToken string) (map[string]any, error) {
	idToken = strings.TrimSpace(idToken)
	if idToken == "" {
		return nil, nil
	}
	parts := strings.Split(idToken, ".")
	if len(parts) != 3 {
		return nil, fmt.Errorf("identity: id_token is not a compact JWT")
	}
	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return nil, fmt.Errorf("identity: decode id_token payload: %w", err)
	}
	var claims map[string]any
	if err := json.Unmarshal(payload, &claims); err != nil {
		return nil, fmt.Errorf("identity: parse id_token claims: %w", err)
	}
	return claims, nil
}

func normalizeOIDCProfile(claims map[string]any) core.ProviderProfile {
	profile := core.ProviderProfile{
		ID:    readString(claims, "sub"),
		Email: readString(claims, "email"),
		Name:  readString(claims, "name"),
		Raw:   copyClaims(claims),
	}
	if profile.Name == "" {
		given := readString(claims, "given_name")
		family := readString(claims, "family_name")
		profile.Name = strings.TrimSpace(given + " " + family)
	}
	return profile
}

func normalizeGitHubProfile(claims map[string]any) core.ProviderProfile {
	profile := core.ProviderProfile{
		ID:    readString(claims, "id"),
		Email: readString(claims, "email"),
		Name:  readString(claims, "name"),
		Raw:   copyClaims(claims),
	}
	if profile.Name == "" {
		profile.Name = readString(claims, "login")
	}
	return profile
}

func profileNotFound(attempts []error) error {
	if len(attempts) == 0 {
		return ErrProfileNotFound
	}
	return fmt.Errorf("%w: %w", ErrProfileNotFound, errors.Join(attempts...))
}

func readMetadataString(metadata map[string]any, key string) string {
	if metadata == nil {
		return ""
	}
	value, ok := metadata[key].(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(value)
}

func readString(claims map[string]any, key string) string {
	switch value := claims[key].(type) {
	case string:
		return strings.TrimSpace(value)
	case json.Number:
		return value.String()
	case float64:
		return fmt.Sprintf("%.0f", value)
	default:
		return ""
	}
}

func copyClaims(claims map[string]any) map[string]any {
	if len(claims) == 0 {
		return nil
	}
	out := make(map[string]any, len(claims))
	for key, value := range claims {
		out[key] = value
	}
	return out
}
