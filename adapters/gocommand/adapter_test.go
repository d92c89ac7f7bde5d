package gocommand

import (
	"context"
	"errors"
	"testing"

	"github.com/goliatone/go-command"
	integrationscommand "github.com/goliatone/go-integrations/command"
	"github.com/goliatone/go-integrations/core"
	integrationsquery "github.com/goliatone/go-integrations/query"
	jobqueuecommand "github.com/goliatone/go-job/queue/command"
)

type okMessage struct{}

func (okMessage) Type() string { return "integrations.command.ok" }

type invalidMessage struct{}

func (invalidMessage) Type() string { return "" }

type failingMessage struct{}

func (failingMessage) Type() string { return "integrations.command.fail" }

func (failingMessage) Validate() error { return errors.New("invalid payload") }

type queueMessage struct{}

func (queueMessage) Type() string { return "integrations.command.queue" }

func TestValidateMessageContract(t *testing.T) {
	if err := ValidateMessageContract(okMessage{}); err != nil {
		t.Fatalf("expected valid message, got %v", err)
	}
	if err := ValidateMessageContract(invalidMessage{}); err == nil {
		t.Fatalf("expected empty type to fail contract validation")
	}
	if err := ValidateMessageContract(failingMessage{}); err == nil {
		t.Fatalf("expected Validate() failure to bubble")
	}
}

func TestRegistryResolverWiring(t *testing.T) {
	adapter := NewRegistryAdapter(command.NewRegistry())
	customResolverCalled := 0

	if err := adapter.AddResolver("custom", func(any, command.CommandMeta, *command.Registry) error {
		customResolverCalled++
		return nil
	}); err != nil {
		t.Fatalf("add resolver: %v", err)
	}
	if !adapter.HasResolver("custom") {
		t.Fatalf("expected custom resolver to be registered")
	}

	cmd := command.CommandFunc[okMessage](func(context.Context, okMessage) error { return nil })
	if err := adapter.RegisterCommand(cmd); err != nil {
		t.Fatalf("register command: %v", err)
	}
	if err := adapter.Initialize(); err != nil {
		t.Fatalf("initialize registry: %v", err)
	}
	if customResolverCalled == 0 {
		t.Fatalf("expected resolver hook to run during initialization")
	}
}

func TestQueueResolverHookWiring(t *testing.T) {
	adapter := NewRegistryAdapter(command.NewRegistry())
	queueRegistry := jobqueuecommand.NewRegistry()

	cmd := command.CommandFunc[queueMessage](func(context.Context, queueMessage) error { return nil })

	if err := adapter.AddQueueResolver("queue", queueRegistry); err != nil {
		t.Fatalf("add queue resolver: %v", err)
	}
	if err := adapter.RegisterCommand(cmd); err != nil {
		t.Fatalf("register command: %v", err)
	}
	if err := adapter.Initialize(); err != nil {
		t.Fatalf("initialize registry: %v", err)
	}

	if _, ok := queueRegistry.Get("integrations.command.queue"); !ok {
		t.Fatalf("expected command to be mirrored into queue registry")
	}
}

func TestSubscribeModule_DispatchesLifecycleMessages(t *testing.T) {
	ctx := context.Background()
	service := &stubModuleService{}

	subscriptions, err := SubscribeModule(service)
	if err != nil {
		t.Fatalf("subscribe module: %v", err)
	}
	defer Unsubscribe(subscriptions)

	if len(subscriptions) != 13 {
		t.Fatalf("expected 13 subscriptions, got %d", len(subscriptions))
	}

	if err := Dispatch(ctx, integrationscommand.RefreshMessage{ConnectionID: "conn_1"}); err != nil {
		t.Fatalf("dispatch refresh: %v", err)
	}
	if service.refreshed != "conn_1" {
		t.Fatalf("expected refresh for conn_1, got %q", service.refreshed)
	}

	connection, err := Query[integrationsquery.GetConnectionMessage, core.Connection](
		ctx,
		integrationsquery.GetConnectionMessage{ConnectionID: "conn_1"},
	)
	if err != nil {
		t.Fatalf("query connection: %v", err)
	}
	if connection.ID != "conn_1" {
		t.Fatalf("expected queried connection conn_1, got %q", connection.ID)
	}
}

func TestSubscribeModule_RequiresService(t *testing.T) {
	if _, err := SubscribeMutations(nil); err == nil {
		t.Fatalf("expected nil mutating service to be rejected")
	}
	if _, err := SubscribeReads(nil); err == nil {
		t.Fatalf("expected nil reading service to be rejected")
	}
}

type stubModuleService struct {
	refreshed string
}

func (s *stubModuleService) Connect(context.Context, string, string) (core.ConnectResult, error) {
	return core.ConnectResult{}, nil
}

func (s *stubModuleService) HandleCallback(context.Context, core.CallbackRequest) (core.Connection, error) {
	return core.Connection{}, nil
}

func (s *stubModuleService) Refresh(_ context.Context, connectionID string) (core.Connection, error) {
	s.refreshed = connectionID
	return core.Connection{ID: connectionID}, nil
}

func (s *stubModuleService) Disconnect(_ context.Context, connectionID string) (core.Connection, error) {
	return core.Connection{ID: connectionID, Status: core.ConnectionStatusDisconnected}, nil
}

func (s *stubModuleService) Sync(context.Context, string, []string) (core.SyncResult, error) {
	return core.SyncResult{}, nil
}

func (s *stubModuleService) RegisterWebhook(context.Context, string, []string) (core.Webhook, error) {
	return core.Webhook{}, nil
}

func (s *stubModuleService) UnregisterWebhook(context.Context, string) error { return nil }

func (s *stubModuleService) DispatchWebhook(context.Context, string, string, map[string]any) error {
	return nil
}

func (s *stubModuleService) GetConnection(_ context.Context, connectionID string) (core.Connection, error) {
	return core.Connection{ID: connectionID}, nil
}

func (s *stubModuleService) ListConnections(context.Context, string) ([]core.Connection, error) {
	return nil, nil
}

func (s *stubModuleService) SyncStatus(context.Context, string) core.SyncProgress {
	return core.SyncProgress{}
}

func (s *stubModuleService) GetIntegration(context.Context, string) (core.Integration, bool) {
	return core.Integration{}, false
}

func (s *stubModuleService) ListIntegrations(context.Context) []core.Integration { return nil }
