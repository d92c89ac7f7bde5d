// Package gocommand wires the module's command and query handlers into the
// go-command registry and dispatcher.
package gocommand

import (
	"context"
	"fmt"
	"strings"

	"github.com/goliatone/go-command"
	commanddispatcher "github.com/goliatone/go-command/dispatcher"
	"github.com/goliatone/go-command/runner"
	integrationscommand "github.com/goliatone/go-integrations/command"
	integrationsquery "github.com/goliatone/go-integrations/query"
	jobqueuecommand "github.com/goliatone/go-job/queue/command"
)

// ValidateMessageContract enforces Type() plus optional Validate() contract.
func ValidateMessageContract(msg any) error {
	if err := command.ValidateMessage(msg); err != nil {
		return err
	}
	m, ok := msg.(command.Message)
	if !ok {
		return fmt.Errorf("gocommand: message must implement Type() string")
	}
	if strings.TrimSpace(m.Type()) == "" {
		return fmt.Errorf("gocommand: message type is required")
	}
	return nil
}

// RegistryAdapter wraps a go-command registry so module wiring can attach
// handlers and queue resolvers through one surface.
type RegistryAdapter struct {
	registry *command.Registry
}

func NewRegistryAdapter(registry *command.Registry) *RegistryAdapter {
	if registry == nil {
		registry = command.NewRegistry()
	}
	return &RegistryAdapter{registry: registry}
}

func (a *RegistryAdapter) Registry() *command.Registry {
	if a == nil {
		return nil
	}
	return a.registry
}

func (a *RegistryAdapter) RegisterCommand(cmd any) error {
	if a == nil || a.registry == nil {
		return fmt.Errorf("gocommand: registry is not configured")
	}
	return a.registry.RegisterCommand(cmd)
}

func (a *RegistryAdapter) AddResolver(key string, resolver command.Resolver) error {
	if a == nil || a.registry == nil {
		return fmt.Errorf("gocommand: registry is not configured")
	}
	return a.registry.AddResolver(strings.TrimSpace(key), resolver)
}

// AddQueueResolver routes registry-resolved commands through a go-job queue.
func (a *RegistryAdapter) AddQueueResolver(key string, queueRegistry *jobqueuecommand.Registry) error {
	if queueRegistry == nil {
		return fmt.Errorf("gocommand: queue registry is required")
	}
	return a.AddResolver(key, jobqueuecommand.QueueResolver(queueRegistry))
}

func (a *RegistryAdapter) HasResolver(key string) bool {
	if a == nil || a.registry == nil {
		return false
	}
	return a.registry.HasResolver(strings.TrimSpace(key))
}

func (a *RegistryAdapter) Initialize() error {
	if a == nil || a.registry == nil {
		return fmt.Errorf("gocommand: registry is not configured")
	}
	return a.registry.Initialize()
}

func SubscribeCommand[T any](cmd command.Commander[T], runnerOpts ...runner.Option) commanddispatcher.Subscription {
	return commanddispatcher.SubscribeCommand(cmd, runnerOpts...)
}

func SubscribeQuery[T any, R any](qry command.Querier[T, R], runnerOpts ...runner.Option) commanddispatcher.Subscription {
	return commanddispatcher.SubscribeQuery(qry, runnerOpts...)
}

func Dispatch[T any](ctx context.Context, msg T) error {
	return commanddispatcher.Dispatch(ctx, msg)
}

func Query[T any, R any](ctx context.Context, msg T) (R, error) {
	return commanddispatcher.Query[T, R](ctx, msg)
}

// SubscribeMutations subscribes every connection lifecycle command to the
// dispatcher. Returned subscriptions stay active until unsubscribed.
func SubscribeMutations(service integrationscommand.MutatingService, runnerOpts ...runner.Option) ([]commanddispatcher.Subscription, error) {
	if service == nil {
		return nil, fmt.Errorf("gocommand: mutating service is required")
	}
	return []commanddispatcher.Subscription{
		SubscribeCommand(integrationscommand.NewConnectCommand(service), runnerOpts...),
		SubscribeCommand(integrationscommand.NewCompleteCallbackCommand(service), runnerOpts...),
		SubscribeCommand(integrationscommand.NewRefreshCommand(service), runnerOpts...),
		SubscribeCommand(integrationscommand.NewDisconnectCommand(service), runnerOpts...),
		SubscribeCommand(integrationscommand.NewSyncCommand(service), runnerOpts...),
		SubscribeCommand(integrationscommand.NewRegisterWebhookCommand(service), runnerOpts...),
		SubscribeCommand(integrationscommand.NewUnregisterWebhookCommand(service), runnerOpts...),
		SubscribeCommand(integrationscommand.NewDispatchWebhookCommand(service), runnerOpts...),
	}, nil
}

// SubscribeReads subscribes the connection and integration queries.
func SubscribeReads(service integrationsquery.ReadingService, runnerOpts ...runner.Option) ([]commanddispatcher.Subscription, error) {
	if service == nil {
		return nil, fmt.Errorf("gocommand: reading service is required")
	}
	return []commanddispatcher.Subscription{
		SubscribeQuery(integrationsquery.NewGetConnectionQuery(service), runnerOpts...),
		SubscribeQuery(integrationsquery.NewListConnectionsQuery(service), runnerOpts...),
		SubscribeQuery(integrationsquery.NewSyncStatusQuery(service), runnerOpts...),
		SubscribeQuery(integrationsquery.NewGetIntegrationQuery(service), runnerOpts...),
		SubscribeQuery(integrationsquery.NewListIntegrationsQuery(service), runnerOpts...),
	}, nil
}

// ModuleService is the combined surface the full subscription set needs.
type ModuleService interface {
	integrationscommand.MutatingService
	integrationsquery.ReadingService
}

// SubscribeModule wires every command and query the module exposes. On any
// failure the subscriptions made so far are released.
func SubscribeModule(service ModuleService, runnerOpts ...runner.Option) ([]commanddispatcher.Subscription, error) {
	mutations, err := SubscribeMutations(service, runnerOpts...)
	if err != nil {
		return nil, err
	}
	reads, err := SubscribeReads(service, runnerOpts...)
	if err != nil {
		Unsubscribe(mutations)
		return nil, err
	}
	return append(mutations, reads...), nil
}

// Unsubscribe releases every subscription in the set.
func Unsubscribe(subscriptions []commanddispatcher.Subscription) {
	for _, subscription := range subscriptions {
		if subscription != nil {
			subscription.Unsubscribe()
		}
	}
}
