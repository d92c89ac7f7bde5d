package core

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// IntegrationRegistry holds integration definitions and their bound
// adapters. Definitions are validated once at registration and immutable
// afterwards.
type IntegrationRegistry struct {
	mu           sync.RWMutex
	integrations map[string]Integration
	adapters     map[string]ProviderAdapter
	audit        AuditLogger
}

func NewIntegrationRegistry(audit AuditLogger) *IntegrationRegistry {
	return &IntegrationRegistry{
		integrations: make(map[string]Integration),
		adapters:     make(map[string]ProviderAdapter),
		audit:        audit,
	}
}

func (r *IntegrationRegistry) Register(ctx context.Context, integration Integration, adapter ProviderAdapter) error {
	if r == nil {
		return fmt.Errorf("core: integration registry is not configured")
	}
	if err := integration.Validate(); err != nil {
		return err
	}
	if adapter == nil {
		return fmt.Errorf("%w: integration %q has no adapter", ErrAdapterNotFound, integration.ID)
	}

	id := strings.TrimSpace(integration.ID)
	r.mu.Lock()
	if _, exists := r.integrations[id]; exists {
		r.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrDuplicateIntegration, id)
	}
	r.integrations[id] = integration
	r.adapters[id] = adapter
	r.mu.Unlock()

	r.logAudit(ctx, AuditEvent{
		Type:        "integration.registered",
		Level:       AuditLevelInfo,
		Description: fmt.Sprintf("integration %q registered", id),
		Metadata: map[string]any{
			"integration_id": id,
			"provider":       integration.Provider,
			"enabled":        integration.Enabled,
		},
	})
	return nil
}

func (r *IntegrationRegistry) Remove(ctx context.Context, integrationID string) error {
	if r == nil {
		return fmt.Errorf("core: integration registry is not configured")
	}
	id := strings.TrimSpace(integrationID)
	r.mu.Lock()
	_, exists := r.integrations[id]
	if exists {
		delete(r.integrations, id)
		delete(r.adapters, id)
	}
	r.mu.Unlock()
	if !exists {
		return fmt.Errorf("%w: %s", ErrIntegrationNotFound, id)
	}
	r.logAudit(ctx, AuditEvent{
		Type:        "integration.removed",
		Level:       AuditLevelInfo,
		Description: fmt.Sprintf("integration %q removed", id),
		Metadata:    map[string]any{"integration_id": id},
	})
	return nil
}

// Get returns the integration for id. The second return is false when the
// id is unknown; Get never errors.
func (r *IntegrationRegistry) Get(integrationID string) (Integration, bool) {
	if r == nil {
		return Integration{}, false
	}
	id := strings.TrimSpace(integrationID)
	r.mu.RLock()
	integration, ok := r.integrations[id]
	r.mu.RUnlock()
	return integration, ok
}

func (r *IntegrationRegistry) Adapter(integrationID string) (ProviderAdapter, bool) {
	if r == nil {
		return nil, false
	}
	id := strings.TrimSpace(integrationID)
	r.mu.RLock()
	adapter, ok := r.adapters[id]
	r.mu.RUnlock()
	return adapter, ok
}

// List returns enabled integrations sorted by display name so callers get a
// stable ordering.
func (r *IntegrationRegistry) List() []Integration {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	out := make([]Integration, 0, len(r.integrations))
	for _, integration := range r.integrations {
		if integration.Enabled {
			out = append(out, integration)
		}
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		left := strings.ToLower(strings.TrimSpace(out[i].DisplayName))
		right := strings.ToLower(strings.TrimSpace(out[j].DisplayName))
		if left == right {
			return out[i].ID < out[j].ID
		}
		return left < right
	})
	return out
}

func (r *IntegrationRegistry) logAudit(ctx context.Context, event AuditEvent) {
	if r == nil || r.audit == nil {
		return
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	_ = r.audit.Log(ctx, event)
}

type NopAuditLogger struct{}

func (NopAuditLogger) Log(context.Context, AuditEvent) error { return nil }

var _ AuditLogger = NopAuditLogger{}
