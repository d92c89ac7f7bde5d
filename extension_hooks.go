package integrations

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// IntegrationPack groups related integration factories so downstream apps can
// register a provider family in one call.
type IntegrationPack struct {
	Name      string
	Factories []IntegrationFactory
}

// WebhookHandlerPack binds a set of webhook event handlers contributed by a
// downstream app.
type WebhookHandlerPack struct {
	Name     string
	Handlers map[string]WebhookEventHandler
}

// ExtensionHooks collects integration and webhook handler packs before the
// facade exists, so library consumers can contribute providers without
// touching composition order.
type ExtensionHooks struct {
	mu sync.RWMutex

	integrationPacks map[string]IntegrationPack
	handlerPacks     map[string]WebhookHandlerPack
}

func NewExtensionHooks() *ExtensionHooks {
	return &ExtensionHooks{
		integrationPacks: map[string]IntegrationPack{},
		handlerPacks:     map[string]WebhookHandlerPack{},
	}
}

func (h *ExtensionHooks) RegisterIntegrationPack(pack IntegrationPack) error {
	if h == nil {
		return fmt.Errorf("integrations: extension hooks are nil")
	}
	name := strings.TrimSpace(pack.Name)
	if name == "" {
		return fmt.Errorf("integrations: integration pack name is required")
	}
	if len(pack.Factories) == 0 {
		return fmt.Errorf("integrations: integration pack %q has no factories", name)
	}

	normalized := IntegrationPack{
		Name:      name,
		Factories: append([]IntegrationFactory(nil), pack.Factories...),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if _, exists := h.integrationPacks[name]; exists {
		return fmt.Errorf("integrations: integration pack %q already registered", name)
	}
	h.integrationPacks[name] = normalized
	return nil
}

func (h *ExtensionHooks) RegisterWebhookHandlerPack(pack WebhookHandlerPack) error {
	if h == nil {
		return fmt.Errorf("integrations: extension hooks are nil")
	}
	name := strings.TrimSpace(pack.Name)
	if name == "" {
		return fmt.Errorf("integrations: webhook handler pack name is required")
	}
	if len(pack.Handlers) == 0 {
		return fmt.Errorf("integrations: webhook handler pack %q has no handlers", name)
	}
	for event, handler := range pack.Handlers {
		if strings.TrimSpace(event) == "" {
			return fmt.Errorf("integrations: webhook handler pack %q has an empty event name", name)
		}
		if handler == nil {
			return fmt.Errorf("integrations: webhook handler pack %q event %q has a nil handler", name, event)
		}
	}

	normalized := WebhookHandlerPack{
		Name:     name,
		Handlers: make(map[string]WebhookEventHandler, len(pack.Handlers)),
	}
	for event, handler := range pack.Handlers {
		normalized.Handlers[event] = handler
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if _, exists := h.handlerPacks[name]; exists {
		return fmt.Errorf("integrations: webhook handler pack %q already registered", name)
	}
	h.handlerPacks[name] = normalized
	return nil
}

// Apply registers every pack against the facade: integration packs through
// the service registry, handler packs onto the webhook dispatcher. Packs are
// applied in name order so composition is deterministic.
func (h *ExtensionHooks) Apply(ctx context.Context, facade *Facade) error {
	if h == nil {
		return nil
	}
	if facade == nil {
		return fmt.Errorf("integrations: facade is required")
	}

	for _, pack := range h.IntegrationPacks() {
		if err := RegisterIntegrations(ctx, facade, pack.Factories...); err != nil {
			return fmt.Errorf("integrations: apply pack %q: %w", pack.Name, err)
		}
	}
	for _, pack := range h.WebhookHandlerPacks() {
		events := make([]string, 0, len(pack.Handlers))
		for event := range pack.Handlers {
			events = append(events, event)
		}
		sort.Strings(events)
		for _, event := range events {
			facade.OnWebhookEvent(event, pack.Handlers[event])
		}
	}
	return nil
}

func (h *ExtensionHooks) IntegrationPacks() []IntegrationPack {
	if h == nil {
		return nil
	}
	h.mu.RLock()
	defer h.mu.RUnlock()

	names := make([]string, 0, len(h.integrationPacks))
	for name := range h.integrationPacks {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]IntegrationPack, 0, len(names))
	for _, name := range names {
		pack := h.integrationPacks[name]
		out = append(out, IntegrationPack{
			Name:      pack.Name,
			Factories: append([]IntegrationFactory(nil), pack.Factories...),
		})
	}
	return out
}

func (h *ExtensionHooks) WebhookHandlerPacks() []WebhookHandlerPack {
	if h == nil {
		return nil
	}
	h.mu.RLock()
	defer h.mu.RUnlock()

	names := make([]string, 0, len(h.handlerPacks))
	for name := range h.handlerPacks {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]WebhookHandlerPack, 0, len(names))
	for _, name := range names {
		pack := h.handlerPacks[name]
		handlers := make(map[string]WebhookEventHandler, len(pack.Handlers))
		for event, handler := range pack.Handlers {
			handlers[event] = handler
		}
		out = append(out, WebhookHandlerPack{Name: pack.Name, Handlers: handlers})
	}
	return out
}
