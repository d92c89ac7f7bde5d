package core

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
)

const (
	defaultPendingAuthTTL      = time.Hour
	defaultRefreshTokenTTL     = 90 * 24 * time.Hour
	defaultAccessTokenFallback = time.Hour
)

var ErrVaultKeyNotFound = fmt.Errorf("core: vault key not found")

func pkceVaultKey(state string) string {
	return "pkce_" + strings.TrimSpace(state)
}

func pendingVaultKey(state string) string {
	return "pending_" + strings.TrimSpace(state)
}

func accessTokenVaultKey(connectionID string) string {
	return "access_" + strings.TrimSpace(connectionID)
}

func refreshTokenVaultKey(connectionID string) string {
	return "refresh_" + strings.TrimSpace(connectionID)
}

type vaultEntry struct {
	value     string
	expiresAt time.Time
}

// MemoryTokenVault is the in-process TokenVault. Entries past their TTL are
// treated as absent on read.
type MemoryTokenVault struct {
	mu      sync.Mutex
	entries map[string]vaultEntry
	now     func() time.Time
}

func NewMemoryTokenVault() *MemoryTokenVault {
	return &MemoryTokenVault{
		entries: map[string]vaultEntry{},
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (v *MemoryTokenVault) StoreKey(_ context.Context, id string, value string, ttl time.Duration) error {
	if v == nil {
		return fmt.Errorf("core: token vault is not configured")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("core: vault key id is required")
	}
	entry := vaultEntry{value: value}
	if ttl > 0 {
		entry.expiresAt = v.now().Add(ttl)
	}
	v.mu.Lock()
	v.entries[id] = entry
	v.mu.Unlock()
	return nil
}

func (v *MemoryTokenVault) GetKey(_ context.Context, id string) (string, error) {
	if v == nil {
		return "", fmt.Errorf("core: token vault is not configured")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return "", fmt.Errorf("core: vault key id is required")
	}
	v.mu.Lock()
	entry, ok := v.entries[id]
	if ok && !entry.expiresAt.IsZero() && v.now().After(entry.expiresAt) {
		delete(v.entries, id)
		ok = false
	}
	v.mu.Unlock()
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrVaultKeyNotFound, id)
	}
	return entry.value, nil
}

func (v *MemoryTokenVault) DeleteKey(_ context.Context, id string) error {
	if v == nil {
		return fmt.Errorf("core: token vault is not configured")
	}
	v.mu.Lock()
	delete(v.entries, strings.TrimSpace(id))
	v.mu.Unlock()
	return nil
}

// EncryptedTokenVault wraps an inner vault with a SecretProvider so values
// are ciphertext at rest regardless of the backing store.
type EncryptedTokenVault struct {
	Inner   TokenVault
	Secrets SecretProvider
}

func NewEncryptedTokenVault(inner TokenVault, secrets SecretProvider) *EncryptedTokenVault {
	return &EncryptedTokenVault{Inner: inner, Secrets: secrets}
}

func (v *EncryptedTokenVault) StoreKey(ctx context.Context, id string, value string, ttl time.Duration) error {
	if v == nil || v.Inner == nil {
		return fmt.Errorf("core: encrypted vault requires an inner vault")
	}
	if v.Secrets == nil {
		return v.Inner.StoreKey(ctx, id, value, ttl)
	}
	ciphertext, err := v.Secrets.Encrypt(ctx, []byte(value))
	if err != nil {
		return fmt.Errorf("core: vault encrypt: %w", err)
	}
	return v.Inner.StoreKey(ctx, id, string(ciphertext), ttl)
}

func (v *EncryptedTokenVault) GetKey(ctx context.Context, id string) (string, error) {
	if v == nil || v.Inner == nil {
		return "", fmt.Errorf("core: encrypted vault requires an inner vault")
	}
	stored, err := v.Inner.GetKey(ctx, id)
	if err != nil {
		return "", err
	}
	if v.Secrets == nil {
		return stored, nil
	}
	plaintext, err := v.Secrets.Decrypt(ctx, []byte(stored))
	if err != nil {
		return "", fmt.Errorf("core: vault decrypt: %w", err)
	}
	return string(plaintext), nil
}

func (v *EncryptedTokenVault) DeleteKey(ctx context.Context, id string) error {
	if v == nil || v.Inner == nil {
		return fmt.Errorf("core: encrypted vault requires an inner vault")
	}
	return v.Inner.DeleteKey(ctx, id)
}

var (
	_ TokenVault = (*MemoryTokenVault)(nil)
	_ TokenVault = (*EncryptedTokenVault)(nil)
)
