// Package command exposes the connection lifecycle mutations as go-command
// messages so hosts can route them through their dispatcher.
package command

import (
	"strings"

	"github.com/goliatone/go-integrations/core"
)

const (
	TypeConnect           = "integrations.command.connect"
	TypeCompleteCallback  = "integrations.command.callback.complete"
	TypeRefresh           = "integrations.command.refresh"
	TypeDisconnect        = "integrations.command.disconnect"
	TypeSync              = "integrations.command.sync"
	TypeRegisterWebhook   = "integrations.command.webhook.register"
	TypeUnregisterWebhook = "integrations.command.webhook.unregister"
	TypeDispatchWebhook   = "integrations.command.webhook.dispatch"
)

type ConnectMessage struct {
	IntegrationID string
	UserID        string
}

func (ConnectMessage) Type() string { return TypeConnect }

func (m ConnectMessage) Validate() error {
	if strings.TrimSpace(m.IntegrationID) == "" {
		return commandValidationError("integration_id", "integration id is required")
	}
	if strings.TrimSpace(m.UserID) == "" {
		return commandValidationError("user_id", "user id is required")
	}
	return nil
}

type CompleteCallbackMessage struct {
	Request core.CallbackRequest
}

func (CompleteCallbackMessage) Type() string { return TypeCompleteCallback }

func (m CompleteCallbackMessage) Validate() error {
	if strings.TrimSpace(m.Request.Code) == "" {
		return commandValidationError("code", "authorization code is required")
	}
	if strings.TrimSpace(m.Request.State) == "" {
		return commandValidationError("state", "state is required")
	}
	return nil
}

type RefreshMessage struct {
	ConnectionID string
}

func (RefreshMessage) Type() string { return TypeRefresh }

func (m RefreshMessage) Validate() error {
	if strings.TrimSpace(m.ConnectionID) == "" {
		return commandValidationError("connection_id", "connection id is required")
	}
	return nil
}

type DisconnectMessage struct {
	ConnectionID string
}

func (DisconnectMessage) Type() string { return TypeDisconnect }

func (m DisconnectMessage) Validate() error {
	if strings.TrimSpace(m.ConnectionID) == "" {
		return commandValidationError("connection_id", "connection id is required")
	}
	return nil
}

type SyncMessage struct {
	ConnectionID string
	DataTypes    []string
}

func (SyncMessage) Type() string { return TypeSync }

func (m SyncMessage) Validate() error {
	if strings.TrimSpace(m.ConnectionID) == "" {
		return commandValidationError("connection_id", "connection id is required")
	}
	return nil
}

type RegisterWebhookMessage struct {
	ConnectionID string
	Events       []string
}

func (RegisterWebhookMessage) Type() string { return TypeRegisterWebhook }

func (m RegisterWebhookMessage) Validate() error {
	if strings.TrimSpace(m.ConnectionID) == "" {
		return commandValidationError("connection_id", "connection id is required")
	}
	if len(m.Events) == 0 {
		return commandValidationError("events", "at least one event is required")
	}
	return nil
}

type UnregisterWebhookMessage struct {
	WebhookID string
}

func (UnregisterWebhookMessage) Type() string { return TypeUnregisterWebhook }

func (m UnregisterWebhookMessage) Validate() error {
	if strings.TrimSpace(m.WebhookID) == "" {
		return commandValidationError("webhook_id", "webhook id is required")
	}
	return nil
}

type DispatchWebhookMessage struct {
	WebhookID string
	Event     string
	Payload   map[string]any
}

func (DispatchWebhookMessage) Type() string { return TypeDispatchWebhook }

func (m DispatchWebhookMessage) Validate() error {
	if strings.TrimSpace(m.WebhookID) == "" {
		return commandValidationError("webhook_id", "webhook id is required")
	}
	if strings.TrimSpace(m.Event) == "" {
		return commandValidationError("event", "event is required")
	}
	return nil
}
