package query

import (
	"context"
	"fmt"

	"github.com/goliatone/go-integrations/core"
)

// ReadingService is the read-side surface the queries delegate to. The root
// facade satisfies it.
type ReadingService interface {
	GetConnection(ctx context.Context, connectionID string) (core.Connection, error)
	ListConnections(ctx context.Context, userID string) ([]core.Connection, error)
	SyncStatus(ctx context.Context, connectionID string) core.SyncProgress
	GetIntegration(ctx context.Context, id string) (core.Integration, bool)
	ListIntegrations(ctx context.Context) []core.Integration
}

type GetConnectionQuery struct {
	service ReadingService
}

func NewGetConnectionQuery(service ReadingService) *GetConnectionQuery {
	return &GetConnectionQuery{service: service}
}

func (q *GetConnectionQuery) Query(ctx context.Context, msg GetConnectionMessage) (core.Connection, error) {
	if q == nil || q.service == nil {
		return core.Connection{}, queryDependencyError("query: connection service is required")
	}
	return q.service.GetConnection(ctx, msg.ConnectionID)
}

type ListConnectionsQuery struct {
	service ReadingService
}

func NewListConnectionsQuery(service ReadingService) *ListConnectionsQuery {
	return &ListConnectionsQuery{service: service}
}

func (q *ListConnectionsQuery) Query(ctx context.Context, msg ListConnectionsMessage) ([]core.Connection, error) {
	if q == nil || q.service == nil {
		return nil, queryDependencyError("query: connection service is required")
	}
	return q.service.ListConnections(ctx, msg.UserID)
}

type SyncStatusQuery struct {
	service ReadingService
}

func NewSyncStatusQuery(service ReadingService) *SyncStatusQuery {
	return &SyncStatusQuery{service: service}
}

func (q *SyncStatusQuery) Query(ctx context.Context, msg SyncStatusMessage) (core.SyncProgress, error) {
	if q == nil || q.service == nil {
		return core.SyncProgress{}, queryDependencyError("query: sync status service is required")
	}
	return q.service.SyncStatus(ctx, msg.ConnectionID), nil
}

type GetIntegrationQuery struct {
	service ReadingService
}

func NewGetIntegrationQuery(service ReadingService) *GetIntegrationQuery {
	return &GetIntegrationQuery{service: service}
}

func (q *GetIntegrationQuery) Query(ctx context.Context, msg GetIntegrationMessage) (core.Integration, error) {
	if q == nil || q.service == nil {
		return core.Integration{}, queryDependencyError("query: integration service is required")
	}
	integration, found := q.service.GetIntegration(ctx, msg.IntegrationID)
	if !found {
		return core.Integration{}, fmt.Errorf("%w: %s", core.ErrIntegrationNotFound, msg.IntegrationID)
	}
	return integration, nil
}

type ListIntegrationsQuery struct {
	service ReadingService
}

func NewListIntegrationsQuery(service ReadingService) *ListIntegrationsQuery {
	return &ListIntegrationsQuery{service: service}
}

func (q *ListIntegrationsQuery) Query(ctx context.Context, _ ListIntegrationsMessage) ([]core.Integration, error) {
	if q == nil || q.service == nil {
		return nil, queryDependencyError("query: integration service is required")
	}
	return q.service.ListIntegrations(ctx), nil
}
