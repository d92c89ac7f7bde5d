package sqlstore

import (
	"time"

	"github.com/goliatone/go-integrations/core"
)

func newConnectionRecord(in core.CreateConnectionInput, now time.Time) *connectionRecord {
	record := &connectionRecord{
		IntegrationID:        in.IntegrationID,
		UserID:               in.UserID,
		Status:               string(in.Status),
		GrantedScopes:        append([]string{}, in.GrantedScopes...),
		ExternalAccountID:    in.ExternalAccountID,
		ExternalAccountEmail: in.ExternalAccountEmail,
		Metadata:             copyAnyMap(in.Metadata),
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	if !in.ExpiresAt.IsZero() {
		expiresAt := in.ExpiresAt.UTC()
		record.ExpiresAt = &expiresAt
	}
	return record
}

func connectionToRecord(connection core.Connection) *connectionRecord {
	record := &connectionRecord{
		ID:                   connection.ID,
		IntegrationID:        connection.IntegrationID,
		UserID:               connection.UserID,
		Status:               string(connection.Status),
		GrantedScopes:        append([]string{}, connection.GrantedScopes...),
		ExternalAccountID:    connection.ExternalAccountID,
		ExternalAccountEmail: connection.ExternalAccountEmail,
		LastError:            connection.LastError,
		LastSyncAt:           cloneTime(connection.LastSyncAt),
		LastRefreshedAt:      cloneTime(connection.LastRefreshedAt),
		DisconnectedAt:       cloneTime(connection.DisconnectedAt),
		Metadata:             copyAnyMap(connection.Metadata),
		CreatedAt:            connection.CreatedAt,
		UpdatedAt:            connection.UpdatedAt,
	}
	if !connection.ExpiresAt.IsZero() {
		expiresAt := connection.ExpiresAt.UTC()
		record.ExpiresAt = &expiresAt
	}
	return record
}

func (r *connectionRecord) toDomain() core.Connection {
	if r == nil {
		return core.Connection{}
	}
	connection := core.Connection{
		ID:                   r.ID,
		IntegrationID:        r.IntegrationID,
		UserID:               r.UserID,
		Status:               core.ConnectionStatus(r.Status),
		GrantedScopes:        append([]string{}, r.GrantedScopes...),
		ExternalAccountID:    r.ExternalAccountID,
		ExternalAccountEmail: r.ExternalAccountEmail,
		LastError:            r.LastError,
		LastSyncAt:           cloneTime(r.LastSyncAt),
		LastRefreshedAt:      cloneTime(r.LastRefreshedAt),
		DisconnectedAt:       cloneTime(r.DisconnectedAt),
		Metadata:             copyAnyMap(r.Metadata),
		CreatedAt:            r.CreatedAt,
		UpdatedAt:            r.UpdatedAt,
	}
	if r.ExpiresAt != nil {
		connection.ExpiresAt = r.ExpiresAt.UTC()
	}
	return connection
}

func webhookToRecord(webhook core.Webhook) *webhookRecord {
	return &webhookRecord{
		ID:              webhook.ID,
		ConnectionID:    webhook.ConnectionID,
		IntegrationID:   webhook.IntegrationID,
		URL:             webhook.URL,
		Events:          append([]string{}, webhook.Events...),
		Secret:          webhook.Secret,
		Active:          webhook.Active,
		FailureCount:    webhook.FailureCount,
		LastTriggeredAt: cloneTime(webhook.LastTriggeredAt),
		CreatedAt:       webhook.CreatedAt,
		UpdatedAt:       webhook.UpdatedAt,
	}
}

func (r *webhookRecord) toDomain() core.Webhook {
	if r == nil {
		return core.Webhook{}
	}
	return core.Webhook{
		ID:              r.ID,
		ConnectionID:    r.ConnectionID,
		IntegrationID:   r.IntegrationID,
		URL:             r.URL,
		Events:          append([]string{}, r.Events...),
		Secret:          r.Secret,
		Active:          r.Active,
		FailureCount:    r.FailureCount,
		LastTriggeredAt: cloneTime(r.LastTriggeredAt),
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
}

func syncProgressToRecord(progress core.SyncProgress) *syncProgressRecord {
	return &syncProgressRecord{
		ConnectionID: progress.ConnectionID,
		Status:       string(progress.Status),
		Total:        progress.Total,
		Processed:    progress.Processed,
		Succeeded:    progress.Succeeded,
		Failed:       progress.Failed,
		Skipped:      progress.Skipped,
		StartedAt:    progress.StartedAt,
		CompletedAt:  cloneTime(progress.CompletedAt),
		LastError:    progress.LastError,
	}
}

func (r *syncProgressRecord) toDomain() core.SyncProgress {
	if r == nil {
		return core.SyncProgress{}
	}
	return core.SyncProgress{
		ConnectionID: r.ConnectionID,
		Status:       core.SyncStatus(r.Status),
		Total:        r.Total,
		Processed:    r.Processed,
		Succeeded:    r.Succeeded,
		Failed:       r.Failed,
		Skipped:      r.Skipped,
		StartedAt:    r.StartedAt,
		CompletedAt:  cloneTime(r.CompletedAt),
		LastError:    r.LastError,
	}
}

func cloneTime(input *time.Time) *time.Time {
	if input == nil {
		return nil
	}
	value := input.UTC()
	return &value
}

func copyAnyMap(input map[string]any) map[string]any {
	output := make(map[string]any, len(input))
	for key, value := range input {
		output[key] = value
	}
	return output
}
