package security

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/goliatone/go-integrations/core"
)

type FailurePolicy string

const (
	FailurePolicyStrict   FailurePolicy = "strict_fail"
	FailurePolicyFallback FailurePolicy = "fallback_allowed"
)

type FailoverOption func(*FailoverSecretProvider)

// FailoverSecretProvider chains two providers so token decryption keeps
// working through a key migration: new writes go to the primary, reads fall
// back to the previous key when the policy allows it.
type FailoverSecretProvider struct {
	primary  core.SecretProvider
	fallback core.SecretProvider
	policy   FailurePolicy

	mu             sync.RWMutex
	lastEncryption struct {
		keyID   string
		version int
	}
}

func WithFallbackSecretProvider(provider core.SecretProvider) FailoverOption {
	return func(f *FailoverSecretProvider) {
		f.fallback = provider
	}
}

func WithFailurePolicy(policy FailurePolicy) FailoverOption {
	return func(f *FailoverSecretProvider) {
		f.policy = normalizeFailurePolicy(policy)
	}
}

func NewFailoverSecretProvider(primary core.SecretProvider, opts ...FailoverOption) (*FailoverSecretProvider, error) {
	if primary == nil {
		return nil, fmt.Errorf("security: primary secret provider is required")
	}
	provider := &FailoverSecretProvider{
		primary: primary,
		policy:  FailurePolicyStrict,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(provider)
	}
	if provider.policy == FailurePolicyFallback && provider.fallback == nil {
		return nil, fmt.Errorf("security: fallback policy requires a configured fallback secret provider")
	}
	provider.recordMetadata(provider.primary)
	return provider, nil
}

func (p *FailoverSecretProvider) Encrypt(ctx context.Context, plaintext []byte) ([]byte, error) {
	if p == nil {
		return nil, fmt.Errorf("security: secret provider is nil")
	}
	if len(plaintext) == 0 {
		return nil, fmt.Errorf("security: plaintext is required")
	}
	ciphertext, err := p.primary.Encrypt(ctx, plaintext)
	if err == nil {
		p.recordMetadata(p.primary)
		return ciphertext, nil
	}
	if p.policy == FailurePolicyStrict || p.fallback == nil {
		return nil, fmt.Errorf("security: primary encrypt failed with %s policy: %w", p.policy, err)
	}
	fallbackCiphertext, fallbackErr := p.fallback.Encrypt(ctx, plaintext)
	if fallbackErr != nil {
		return nil, fmt.Errorf("security: primary encrypt failed: %v; fallback encrypt failed: %w", err, fallbackErr)
	}
	p.recordMetadata(p.fallback)
	return fallbackCiphertext, nil
}

func (p *FailoverSecretProvider) Decrypt(ctx context.Context, ciphertext []byte) ([]byte, error) {
	if p == nil {
		return nil, fmt.Errorf("security: secret provider is nil")
	}
	if len(ciphertext) == 0 {
		return nil, fmt.Errorf("security: ciphertext is required")
	}
	plaintext, err := p.primary.Decrypt(ctx, ciphertext)
	if err == nil {
		return plaintext, nil
	}
	if p.policy == FailurePolicyStrict || p.fallback == nil {
		return nil, fmt.Errorf("security: primary decrypt failed with %s policy: %w", p.policy, err)
	}
	fallbackPlaintext, fallbackErr := p.fallback.Decrypt(ctx, ciphertext)
	if fallbackErr != nil {
		return nil, fmt.Errorf("security: primary decrypt failed: %v; fallback decrypt failed: %w", err, fallbackErr)
	}
	return fallbackPlaintext, nil
}

func (p *FailoverSecretProvider) Metadata() (string, int) {
	if p == nil {
		return "", 0
	}
	p.mu.RLock()
	last := p.lastEncryption
	p.mu.RUnlock()
	if last.keyID != "" {
		return last.keyID, last.version
	}
	if keyID, version, ok := readProviderMetadata(p.primary); ok {
		return keyID, version
	}
	return "", 0
}

func (p *FailoverSecretProvider) recordMetadata(provider core.SecretProvider) {
	keyID, version, ok := readProviderMetadata(provider)
	if !ok {
		return
	}
	p.mu.Lock()
	p.lastEncryption.keyID = keyID
	p.lastEncryption.version = version
	p.mu.Unlock()
}

func normalizeFailurePolicy(policy FailurePolicy) FailurePolicy {
	switch FailurePolicy(strings.ToLower(strings.TrimSpace(string(policy)))) {
	case FailurePolicyFallback:
		return FailurePolicyFallback
	default:
		return FailurePolicyStrict
	}
}

func readProviderMetadata(provider core.SecretProvider) (string, int, bool) {
	if provider == nil {
		return "", 0, false
	}
	metadataProvider, ok := provider.(interface{ Metadata() (string, int) })
	if !ok {
		return "", 0, false
	}
	keyID, version := metadataProvider.Metadata()
	keyID = strings.TrimSpace(keyID)
	if keyID == "" || version <= 0 {
		return "", 0, false
	}
	return keyID, version, true
}

var _ core.SecretProvider = (*FailoverSecretProvider)(nil)
