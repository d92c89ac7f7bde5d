package core

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// pendingAuthorization is the snapshot persisted in the vault while the
// browser round-trip is in flight. It never reaches the connection store.
type pendingAuthorization struct {
	ConnectionID    string    `json:"connection_id"`
	IntegrationID   string    `json:"integration_id"`
	UserID          string    `json:"user_id"`
	RequestedScopes []string  `json:"requested_scopes"`
	PKCEEnabled     bool      `json:"pkce_enabled"`
	CreatedAt       time.Time `json:"created_at"`
}

func savePendingAuthorization(ctx context.Context, vault TokenVault, state string, pending pendingAuthorization, ttl time.Duration) error {
	if vault == nil {
		return fmt.Errorf("core: token vault is required for pending authorizations")
	}
	if strings.TrimSpace(state) == "" {
		return fmt.Errorf("core: oauth state is required")
	}
	payload, err := json.Marshal(pending)
	if err != nil {
		return fmt.Errorf("core: encode pending authorization: %w", err)
	}
	if ttl <= 0 {
		ttl = defaultPendingAuthTTL
	}
	return vault.StoreKey(ctx, pendingVaultKey(state), string(payload), ttl)
}

// consumePendingAuthorization deletes the record before inspecting it so the
// state is single-use whether or not the exchange succeeds afterwards.
func consumePendingAuthorization(ctx context.Context, vault TokenVault, state string) (pendingAuthorization, error) {
	if vault == nil {
		return pendingAuthorization{}, fmt.Errorf("core: token vault is required for pending authorizations")
	}
	state = strings.TrimSpace(state)
	if state == "" {
		return pendingAuthorization{}, fmt.Errorf("%w: empty state", ErrInvalidOrExpiredState)
	}

	stored, err := vault.GetKey(ctx, pendingVaultKey(state))
	if err != nil {
		if errors.Is(err, ErrVaultKeyNotFound) {
			return pendingAuthorization{}, fmt.Errorf("%w: %s", ErrInvalidOrExpiredState, state)
		}
		return pendingAuthorization{}, err
	}
	if deleteErr := vault.DeleteKey(ctx, pendingVaultKey(state)); deleteErr != nil {
		return pendingAuthorization{}, deleteErr
	}

	var pending pendingAuthorization
	if err := json.Unmarshal([]byte(stored), &pending); err != nil {
		return pendingAuthorization{}, fmt.Errorf("core: decode pending authorization: %w", err)
	}
	return pending, nil
}

func consumeCodeVerifier(ctx context.Context, vault TokenVault, state string) (string, error) {
	if vault == nil {
		return "", nil
	}
	verifier, err := vault.GetKey(ctx, pkceVaultKey(state))
	if err != nil {
		if errors.Is(err, ErrVaultKeyNotFound) {
			return "", nil
		}
		return "", err
	}
	_ = vault.DeleteKey(ctx, pkceVaultKey(state))
	return verifier, nil
}
