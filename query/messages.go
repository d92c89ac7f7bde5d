// Package query exposes read-side lookups as go-command messages.
package query

import "strings"

const (
	TypeGetConnection   = "integrations.query.connection.get"
	TypeListConnections = "integrations.query.connection.list"
	TypeSyncStatus      = "integrations.query.sync.status"
	TypeGetIntegration  = "integrations.query.integration.get"
	TypeListIntegration = "integrations.query.integration.list"
)

type GetConnectionMessage struct {
	ConnectionID string
}

func (GetConnectionMessage) Type() string { return TypeGetConnection }

func (m GetConnectionMessage) Validate() error {
	if strings.TrimSpace(m.ConnectionID) == "" {
		return queryValidationError("connection_id", "connection id is required")
	}
	return nil
}

type ListConnectionsMessage struct {
	UserID string
}

func (ListConnectionsMessage) Type() string { return TypeListConnections }

func (m ListConnectionsMessage) Validate() error {
	if strings.TrimSpace(m.UserID) == "" {
		return queryValidationError("user_id", "user id is required")
	}
	return nil
}

type SyncStatusMessage struct {
	ConnectionID string
}

func (SyncStatusMessage) Type() string { return TypeSyncStatus }

func (m SyncStatusMessage) Validate() error {
	if strings.TrimSpace(m.ConnectionID) == "" {
		return queryValidationError("connection_id", "connection id is required")
	}
	return nil
}

type GetIntegrationMessage struct {
	IntegrationID string
}

func (GetIntegrationMessage) Type() string { return TypeGetIntegration }

func (m GetIntegrationMessage) Validate() error {
	if strings.TrimSpace(m.IntegrationID) == "" {
		return queryValidationError("integration_id", "integration id is required")
	}
	return nil
}

type ListIntegrationsMessage struct{}

func (ListIntegrationsMessage) Type() string { return TypeListIntegration }

func (ListIntegrationsMessage) Validate() error { return nil }
