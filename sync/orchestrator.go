// Package sync runs data pulls for connected integrations. One run covers a
// set of data types; a failing type is counted against the run instead of
// aborting it.
package sync

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-integrations/core"
)

// TokenSource hands out the decrypted access token for a connection.
type TokenSource interface {
	AccessToken(ctx context.Context, connectionID string) (string, error)
}

type Orchestrator struct {
	Connections core.ConnectionStore
	Progress    core.SyncProgressStore
	Registry    *core.IntegrationRegistry
	Tokens      TokenSource
	Logger      core.Logger
	Now         func() time.Time
}

func NewOrchestrator(
	connections core.ConnectionStore,
	progress core.SyncProgressStore,
	registry *core.IntegrationRegistry,
	tokens TokenSource,
) *Orchestrator {
	return &Orchestrator{
		Connections: connections,
		Progress:    progress,
		Registry:    registry,
		Tokens:      tokens,
		Now: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Run executes one sync pass for the connection. When dataTypes is empty the
// integration's declared data types are synced.
func (o *Orchestrator) Run(ctx context.Context, connectionID string, dataTypes []string) (core.SyncResult, error) {
	if o == nil || o.Connections == nil || o.Progress == nil || o.Registry == nil {
		return core.SyncResult{}, fmt.Errorf("sync: orchestrator requires connection, progress, and registry dependencies")
	}
	connection, err := o.Connections.Get(ctx, strings.TrimSpace(connectionID))
	if err != nil {
		return core.SyncResult{}, err
	}
	if connection.Status != core.ConnectionStatusConnected {
		return core.SyncResult{}, fmt.Errorf(
			"%w: sync requires a connected integration, connection %s is %s",
			core.ErrNotConnected, connection.ID, connection.Status,
		)
	}

	integration, ok := o.Registry.Get(connection.IntegrationID)
	if !ok {
		return core.SyncResult{}, fmt.Errorf("%w: %s", core.ErrIntegrationNotFound, connection.IntegrationID)
	}
	adapter, ok := o.Registry.Adapter(connection.IntegrationID)
	if !ok {
		return core.SyncResult{}, fmt.Errorf("%w: %s", core.ErrAdapterNotFound, connection.IntegrationID)
	}

	accessToken := ""
	if o.Tokens != nil {
		accessToken, err = o.Tokens.AccessToken(ctx, connection.ID)
		if err != nil {
			return core.SyncResult{}, err
		}
	}

	requested := normalizeDataTypes(dataTypes)
	if len(requested) == 0 {
		requested = normalizeDataTypes(integration.DataTypes)
	}

	now := o.now()
	progress := core.SyncProgress{
		ConnectionID: connection.ID,
		Status:       core.SyncStatusRunning,
		Total:        len(requested),
		StartedAt:    now,
	}
	if err := o.Progress.Save(ctx, progress); err != nil {
		return core.SyncResult{}, err
	}

	result, runErr := adapter.SyncData(ctx, core.SyncRequest{
		Integration: integration,
		Connection:  connection,
		AccessToken: accessToken,
		DataTypes:   requested,
		Progress:    &progress,
	})

	completedAt := o.now()
	progress.CompletedAt = &completedAt
	if runErr != nil {
		progress.Status = core.SyncStatusFailed
		progress.Failed = progress.Total
		progress.LastError = runErr.Error()
		if saveErr := o.Progress.Save(ctx, progress); saveErr != nil {
			o.logError("sync: save failed progress", saveErr)
		}
		return core.SyncResult{}, runErr
	}

	progress.Status = result.Status
	progress.Processed = progress.Total
	progress.Failed = len(result.Errors)
	progress.Succeeded = progress.Total - progress.Failed
	if progress.Succeeded < 0 {
		progress.Succeeded = 0
	}
	if len(result.Errors) > 0 {
		progress.LastError = result.Errors[0].Message
	}
	if err := o.Progress.Save(ctx, progress); err != nil {
		o.logError("sync: save progress", err)
	}

	connection.LastSyncAt = &completedAt
	connection.UpdatedAt = completedAt
	if _, err := o.Connections.Update(ctx, connection); err != nil {
		o.logError("sync: record last sync time", err)
	}
	return result, nil
}

// Status reports the latest run for the connection, or an idle placeholder
// when no run was recorded.
func (o *Orchestrator) Status(ctx context.Context, connectionID string) core.SyncProgress {
	connectionID = strings.TrimSpace(connectionID)
	if o == nil || o.Progress == nil {
		return core.SyncProgress{ConnectionID: connectionID, Status: core.SyncStatusIdle}
	}
	progress, found, err := o.Progress.Get(ctx, connectionID)
	if err != nil || !found {
		return core.SyncProgress{ConnectionID: connectionID, Status: core.SyncStatusIdle}
	}
	return progress
}

func (o *Orchestrator) now() time.Time {
	if o != nil && o.Now != nil {
		return o.Now().UTC()
	}
	return time.Now().UTC()
}

func (o *Orchestrator) logError(msg string, err error) {
	if o == nil || o.Logger == nil {
		return
	}
	o.Logger.Error(msg, "error", err)
}

func normalizeDataTypes(input []string) []string {
	if len(input) == 0 {
		return nil
	}
	out := make([]string, 0, len(input))
	seen := map[string]struct{}{}
	for _, dataType := range input {
		dataType = strings.TrimSpace(dataType)
		if dataType == "" {
			continue
		}
		if _, ok := seen[dataType]; ok {
			continue
		}
		seen[dataType] = struct{}{}
		out = append(out, dataType)
	}
	return out
}
