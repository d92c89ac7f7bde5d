package query

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/goliatone/go-integrations/core"
)

type stubReadingService struct {
	getConnectionFn   func(ctx context.Context, connectionID string) (core.Connection, error)
	listConnectionsFn func(ctx context.Context, userID string) ([]core.Connection, error)
	syncStatusFn      func(ctx context.Context, connectionID string) core.SyncProgress
	getIntegrationFn  func(ctx context.Context, id string) (core.Integration, bool)
	listIntegrations  func(ctx context.Context) []core.Integration
}

func (s stubReadingService) GetConnection(ctx context.Context, connectionID string) (core.Connection, error) {
	if s.getConnectionFn == nil {
		return core.Connection{}, fmt.Errorf("unexpected GetConnection call")
	}
	return s.getConnectionFn(ctx, connectionID)
}

func (s stubReadingService) ListConnections(ctx context.Context, userID string) ([]core.Connection, error) {
	if s.listConnectionsFn == nil {
		return nil, fmt.Errorf("unexpected ListConnections call")
	}
	return s.listConnectionsFn(ctx, userID)
}

func (s stubReadingService) SyncStatus(ctx context.Context, connectionID string) core.SyncProgress {
	if s.syncStatusFn == nil {
		return core.SyncProgress{}
	}
	return s.syncStatusFn(ctx, connectionID)
}

func (s stubReadingService) GetIntegration(ctx context.Context, id string) (core.Integration, bool) {
	if s.getIntegrationFn == nil {
		return core.Integration{}, false
	}
	return s.getIntegrationFn(ctx, id)
}

func (s stubReadingService) ListIntegrations(ctx context.Context) []core.Integration {
	if s.listIntegrations == nil {
		return nil
	}
	return s.listIntegrations(ctx)
}

func TestGetConnectionQuery_Delegates(t *testing.T) {
	svc := stubReadingService{
		getConnectionFn: func(_ context.Context, connectionID string) (core.Connection, error) {
			if connectionID != "conn_1" {
				t.Fatalf("unexpected connection id %q", connectionID)
			}
			return core.Connection{ID: connectionID, Status: core.ConnectionStatusConnected}, nil
		},
	}

	q := NewGetConnectionQuery(svc)
	connection, err := q.Query(context.Background(), GetConnectionMessage{ConnectionID: "conn_1"})
	if err != nil {
		t.Fatalf("query connection: %v", err)
	}
	if connection.Status != core.ConnectionStatusConnected {
		t.Fatalf("unexpected connection: %#v", connection)
	}
}

func TestListConnectionsQuery_Delegates(t *testing.T) {
	svc := stubReadingService{
		listConnectionsFn: func(_ context.Context, userID string) ([]core.Connection, error) {
			if userID != "usr_1" {
				t.Fatalf("unexpected user id %q", userID)
			}
			return []core.Connection{{ID: "conn_1"}, {ID: "conn_2"}}, nil
		},
	}

	q := NewListConnectionsQuery(svc)
	connections, err := q.Query(context.Background(), ListConnectionsMessage{UserID: "usr_1"})
	if err != nil {
		t.Fatalf("query connections: %v", err)
	}
	if len(connections) != 2 {
		t.Fatalf("expected 2 connections, got %d", len(connections))
	}
}

func TestSyncStatusQuery_Delegates(t *testing.T) {
	svc := stubReadingService{
		syncStatusFn: func(_ context.Context, connectionID string) core.SyncProgress {
			return core.SyncProgress{ConnectionID: connectionID, Status: core.SyncStatusRunning, Total: 2}
		},
	}

	q := NewSyncStatusQuery(svc)
	progress, err := q.Query(context.Background(), SyncStatusMessage{ConnectionID: "conn_1"})
	if err != nil {
		t.Fatalf("query sync status: %v", err)
	}
	if progress.Status != core.SyncStatusRunning || progress.Total != 2 {
		t.Fatalf("unexpected progress: %#v", progress)
	}
}

func TestGetIntegrationQuery_MapsMissingToNotFound(t *testing.T) {
	svc := stubReadingService{
		getIntegrationFn: func(_ context.Context, id string) (core.Integration, bool) {
			if id == "google-calendar" {
				return core.Integration{ID: id, DisplayName: "Google Calendar"}, true
			}
			return core.Integration{}, false
		},
	}

	q := NewGetIntegrationQuery(svc)
	integration, err := q.Query(context.Background(), GetIntegrationMessage{IntegrationID: "google-calendar"})
	if err != nil {
		t.Fatalf("query integration: %v", err)
	}
	if integration.DisplayName != "Google Calendar" {
		t.Fatalf("unexpected integration: %#v", integration)
	}

	if _, err := q.Query(context.Background(), GetIntegrationMessage{IntegrationID: "missing"}); !errors.Is(err, core.ErrIntegrationNotFound) {
		t.Fatalf("expected integration not found sentinel, got %v", err)
	}
}

func TestListIntegrationsQuery_Delegates(t *testing.T) {
	svc := stubReadingService{
		listIntegrations: func(_ context.Context) []core.Integration {
			return []core.Integration{{ID: "google-calendar"}, {ID: "acme-crm"}}
		},
	}

	q := NewListIntegrationsQuery(svc)
	integrations, err := q.Query(context.Background(), ListIntegrationsMessage{})
	if err != nil {
		t.Fatalf("query integrations: %v", err)
	}
	if len(integrations) != 2 {
		t.Fatalf("expected 2 integrations, got %d", len(integrations))
	}
}

func TestQueries_NilServiceReturnsDependencyError(t *testing.T) {
	var q *GetConnectionQuery
	if _, err := q.Query(context.Background(), GetConnectionMessage{ConnectionID: "conn_1"}); err == nil {
		t.Fatalf("expected dependency error from nil query")
	}
}
