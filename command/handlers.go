package command

import (
	"context"

	gocmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-integrations/core"
)

// MutatingService is the lifecycle surface the commands delegate to. The
// root facade satisfies it.
type MutatingService interface {
	Connect(ctx context.Context, integrationID string, userID string) (core.ConnectResult, error)
	HandleCallback(ctx context.Context, req core.CallbackRequest) (core.Connection, error)
	Refresh(ctx context.Context, connectionID string) (core.Connection, error)
	Disconnect(ctx context.Context, connectionID string) (core.Connection, error)
	Sync(ctx context.Context, connectionID string, dataTypes []string) (core.SyncResult, error)
	RegisterWebhook(ctx context.Context, connectionID string, events []string) (core.Webhook, error)
	UnregisterWebhook(ctx context.Context, webhookID string) error
	DispatchWebhook(ctx context.Context, webhookID string, event string, payload map[string]any) error
}

type ConnectCommand struct {
	service MutatingService
}

func NewConnectCommand(service MutatingService) *ConnectCommand {
	return &ConnectCommand{service: service}
}

func (c *ConnectCommand) Execute(ctx context.Context, msg ConnectMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: connect service is required")
	}
	out, err := c.service.Connect(ctx, msg.IntegrationID, msg.UserID)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type CompleteCallbackCommand struct {
	service MutatingService
}

func NewCompleteCallbackCommand(service MutatingService) *CompleteCallbackCommand {
	return &CompleteCallbackCommand{service: service}
}

func (c *CompleteCallbackCommand) Execute(ctx context.Context, msg CompleteCallbackMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: callback service is required")
	}
	out, err := c.service.HandleCallback(ctx, msg.Request)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type RefreshCommand struct {
	service MutatingService
}

func NewRefreshCommand(service MutatingService) *RefreshCommand {
	return &RefreshCommand{service: service}
}

func (c *RefreshCommand) Execute(ctx context.Context, msg RefreshMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: refresh service is required")
	}
	out, err := c.service.Refresh(ctx, msg.ConnectionID)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type DisconnectCommand struct {
	service MutatingService
}

func NewDisconnectCommand(service MutatingService) *DisconnectCommand {
	return &DisconnectCommand{service: service}
}

func (c *DisconnectCommand) Execute(ctx context.Context, msg DisconnectMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: disconnect service is required")
	}
	out, err := c.service.Disconnect(ctx, msg.ConnectionID)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type SyncCommand struct {
	service MutatingService
}

func NewSyncCommand(service MutatingService) *SyncCommand {
	return &SyncCommand{service: service}
}

func (c *SyncCommand) Execute(ctx context.Context, msg SyncMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: sync service is required")
	}
	out, err := c.service.Sync(ctx, msg.ConnectionID, msg.DataTypes)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type RegisterWebhookCommand struct {
	service MutatingService
}

func NewRegisterWebhookCommand(service MutatingService) *RegisterWebhookCommand {
	return &RegisterWebhookCommand{service: service}
}

func (c *RegisterWebhookCommand) Execute(ctx context.Context, msg RegisterWebhookMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: webhook service is required")
	}
	out, err := c.service.RegisterWebhook(ctx, msg.ConnectionID, msg.Events)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type UnregisterWebhookCommand struct {
	service MutatingService
}

func NewUnregisterWebhookCommand(service MutatingService) *UnregisterWebhookCommand {
	return &UnregisterWebhookCommand{service: service}
}

func (c *UnregisterWebhookCommand) Execute(ctx context.Context, msg UnregisterWebhookMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: webhook service is required")
	}
	return c.service.UnregisterWebhook(ctx, msg.WebhookID)
}

type DispatchWebhookCommand struct {
	service MutatingService
}

func NewDispatchWebhookCommand(service MutatingService) *DispatchWebhookCommand {
	return &DispatchWebhookCommand{service: service}
}

func (c *DispatchWebhookCommand) Execute(ctx context.Context, msg DispatchWebhookMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: webhook service is required")
	}
	return c.service.DispatchWebhook(ctx, msg.WebhookID, msg.Event, msg.Payload)
}

func storeResult[T any](ctx context.Context, value T) {
	collector := gocmd.ResultFromContext[T](ctx)
	if collector == nil {
		return
	}
	collector.Store(value)
}
