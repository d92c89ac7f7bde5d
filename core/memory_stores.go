package core

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

type MemoryConnectionStore struct {
	mu          sync.Mutex
	connections map[string]Connection
	now         func() time.Time
}

func NewMemoryConnectionStore() *MemoryConnectionStore {
	return &MemoryConnectionStore{
		connections: map[string]Connection{},
		now:         func() time.Time { return time.Now().UTC() },
	}
}

func (s *MemoryConnectionStore) Create(_ context.Context, in CreateConnectionInput) (Connection, error) {
	if s == nil {
		return Connection{}, fmt.Errorf("core: connection store is not configured")
	}
	if strings.TrimSpace(in.IntegrationID) == "" {
		return Connection{}, fmt.Errorf("core: integration id is required")
	}
	if strings.TrimSpace(in.UserID) == "" {
		return Connection{}, fmt.Errorf("core: user id is required")
	}
	now := s.now()
	connection := Connection{
		ID:                   uuid.NewString(),
		IntegrationID:        strings.TrimSpace(in.IntegrationID),
		UserID:               strings.TrimSpace(in.UserID),
		Status:               in.Status,
		GrantedScopes:        append([]string(nil), in.GrantedScopes...),
		ExternalAccountID:    strings.TrimSpace(in.ExternalAccountID),
		ExternalAccountEmail: strings.TrimSpace(in.ExternalAccountEmail),
		ExpiresAt:            in.ExpiresAt,
		Metadata:             copyAnyMap(in.Metadata),
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	if connection.Status == "" {
		connection.Status = ConnectionStatusPending
	}
	s.mu.Lock()
	s.connections[connection.ID] = cloneConnection(connection)
	s.mu.Unlock()
	return connection, nil
}

func (s *MemoryConnectionStore) Get(_ context.Context, id string) (Connection, error) {
	if s == nil {
		return Connection{}, fmt.Errorf("core: connection store is not configured")
	}
	s.mu.Lock()
	connection, ok := s.connections[strings.TrimSpace(id)]
	s.mu.Unlock()
	if !ok {
		return Connection{}, fmt.Errorf("%w: %s", ErrConnectionNotFound, id)
	}
	return cloneConnection(connection), nil
}

func (s *MemoryConnectionStore) Update(_ context.Context, connection Connection) (Connection, error) {
	if s == nil {
		return Connection{}, fmt.Errorf("core: connection store is not configured")
	}
	id := strings.TrimSpace(connection.ID)
	if id == "" {
		return Connection{}, fmt.Errorf("core: connection id is required")
	}
	s.mu.Lock()
	_, ok := s.connections[id]
	if ok {
		connection.UpdatedAt = s.now()
		s.connections[id] = cloneConnection(connection)
	}
	s.mu.Unlock()
	if !ok {
		return Connection{}, fmt.Errorf("%w: %s", ErrConnectionNotFound, id)
	}
	return cloneConnection(connection), nil
}

func (s *MemoryConnectionStore) ListByUser(_ context.Context, userID string) ([]Connection, error) {
	if s == nil {
		return nil, fmt.Errorf("core: connection store is not configured")
	}
	userID = strings.TrimSpace(userID)
	s.mu.Lock()
	out := make([]Connection, 0, len(s.connections))
	for _, connection := range s.connections {
		if userID == "" || connection.UserID == userID {
			out = append(out, cloneConnection(connection))
		}
	}
	s.mu.Unlock()
	sortConnections(out)
	return out, nil
}

func (s *MemoryConnectionStore) ListByIntegration(_ context.Context, integrationID string) ([]Connection, error) {
	if s == nil {
		return nil, fmt.Errorf("core: connection store is not configured")
	}
	integrationID = strings.TrimSpace(integrationID)
	s.mu.Lock()
	out := make([]Connection, 0, len(s.connections))
	for _, connection := range s.connections {
		if integrationID == "" || connection.IntegrationID == integrationID {
			out = append(out, cloneConnection(connection))
		}
	}
	s.mu.Unlock()
	sortConnections(out)
	return out, nil
}

func sortConnections(connections []Connection) {
	sort.Slice(connections, func(i, j int) bool {
		if connections[i].CreatedAt.Equal(connections[j].CreatedAt) {
			return connections[i].ID < connections[j].ID
		}
		return connections[i].CreatedAt.Before(connections[j].CreatedAt)
	})
}

type MemoryWebhookStore struct {
	mu       sync.Mutex
	webhooks map[string]Webhook
	now      func() time.Time
}

func NewMemoryWebhookStore() *MemoryWebhookStore {
	return &MemoryWebhookStore{
		webhooks: map[string]Webhook{},
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *MemoryWebhookStore) Save(_ context.Context, webhook Webhook) (Webhook, error) {
	if s == nil {
		return Webhook{}, fmt.Errorf("core: webhook store is not configured")
	}
	if strings.TrimSpace(webhook.ID) == "" {
		webhook.ID = uuid.NewString()
	}
	now := s.now()
	if webhook.CreatedAt.IsZero() {
		webhook.CreatedAt = now
	}
	webhook.UpdatedAt = now
	s.mu.Lock()
	s.webhooks[webhook.ID] = cloneWebhook(webhook)
	s.mu.Unlock()
	return webhook, nil
}

func (s *MemoryWebhookStore) Get(_ context.Context, id string) (Webhook, error) {
	if s == nil {
		return Webhook{}, fmt.Errorf("core: webhook store is not configured")
	}
	s.mu.Lock()
	webhook, ok := s.webhooks[strings.TrimSpace(id)]
	s.mu.Unlock()
	if !ok {
		return Webhook{}, fmt.Errorf("%w: %s", ErrWebhookNotFound, id)
	}
	return cloneWebhook(webhook), nil
}

func (s *MemoryWebhookStore) ListByConnection(_ context.Context, connectionID string) ([]Webhook, error) {
	if s == nil {
		return nil, fmt.Errorf("core: webhook store is not configured")
	}
	connectionID = strings.TrimSpace(connectionID)
	s.mu.Lock()
	out := make([]Webhook, 0, len(s.webhooks))
	for _, webhook := range s.webhooks {
		if connectionID == "" || webhook.ConnectionID == connectionID {
			out = append(out, cloneWebhook(webhook))
		}
	}
	s.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemoryWebhookStore) Delete(_ context.Context, id string) error {
	if s == nil {
		return fmt.Errorf("core: webhook store is not configured")
	}
	s.mu.Lock()
	delete(s.webhooks, strings.TrimSpace(id))
	s.mu.Unlock()
	return nil
}

type MemorySyncProgressStore struct {
	mu      sync.Mutex
	entries map[string]SyncProgress
}

func NewMemorySyncProgressStore() *MemorySyncProgressStore {
	return &MemorySyncProgressStore{entries: map[string]SyncProgress{}}
}

func (s *MemorySyncProgressStore) Save(_ context.Context, progress SyncProgress) error {
	if s == nil {
		return fmt.Errorf("core: sync progress store is not configured")
	}
	if strings.TrimSpace(progress.ConnectionID) == "" {
		return fmt.Errorf("core: connection id is required")
	}
	s.mu.Lock()
	s.entries[progress.ConnectionID] = progress
	s.mu.Unlock()
	return nil
}

func (s *MemorySyncProgressStore) Get(_ context.Context, connectionID string) (SyncProgress, bool, error) {
	if s == nil {
		return SyncProgress{}, false, fmt.Errorf("core: sync progress store is not configured")
	}
	s.mu.Lock()
	progress, ok := s.entries[strings.TrimSpace(connectionID)]
	s.mu.Unlock()
	return progress, ok, nil
}

func cloneConnection(connection Connection) Connection {
	cloned := connection
	cloned.GrantedScopes = append([]string(nil), connection.GrantedScopes...)
	cloned.Metadata = copyAnyMap(connection.Metadata)
	cloned.LastSyncAt = cloneTimePointer(connection.LastSyncAt)
	cloned.LastRefreshedAt = cloneTimePointer(connection.LastRefreshedAt)
	cloned.DisconnectedAt = cloneTimePointer(connection.DisconnectedAt)
	return cloned
}

func cloneWebhook(webhook Webhook) Webhook {
	cloned := webhook
	cloned.Events = append([]string(nil), webhook.Events...)
	cloned.LastTriggeredAt = cloneTimePointer(webhook.LastTriggeredAt)
	return cloned
}

func cloneTimePointer(value *time.Time) *time.Time {
	if value == nil {
		return nil
	}
	copied := *value
	return &copied
}

func copyAnyMap(in map[string]any) map[string]any {
	if len(in) == 0 {
		return map[string]any{}
	}
	out := make(map[string]any, len(in))
	for key, value := range in {
		out[key] = value
	}
	return out
}

func copyStringMap(in map[string]string) map[string]string {
	if len(in) == 0 {
		return map[string]string{}
	}
	out := make(map[string]string, len(in))
	for key, value := range in {
		out[key] = value
	}
	return out
}

var (
	_ ConnectionStore   = (*MemoryConnectionStore)(nil)
	_ WebhookStore      = (*MemoryWebhookStore)(nil)
	_ SyncProgressStore = (*MemorySyncProgressStore)(nil)
)
