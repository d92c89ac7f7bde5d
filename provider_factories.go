package integrations

import (
	"context"
	"fmt"

	"github.com/goliatone/go-integrations/core"
	"github.com/goliatone/go-integrations/providers"
	"github.com/goliatone/go-integrations/providers/google"
)

// GoogleCalendarIntegration builds the Google Calendar + Contacts integration
// definition and its adapter.
func GoogleCalendarIntegration(cfg google.Config) (core.Integration, core.ProviderAdapter, error) {
	return google.NewCalendarIntegration(cfg)
}

// OAuth2Adapter builds the shared authorization-code adapter for a custom
// provider. The integration definition is supplied by the caller at
// registration time.
func OAuth2Adapter(cfg providers.OAuth2AdapterConfig) (core.ProviderAdapter, error) {
	return providers.NewOAuth2Adapter(cfg)
}

// IntegrationFactory builds one integration definition and its adapter.
type IntegrationFactory func() (core.Integration, core.ProviderAdapter, error)

// RegisterIntegrations builds each factory's integration and registers it with
// the service. The first failure stops registration.
func RegisterIntegrations(ctx context.Context, service core.IntegrationService, factories ...IntegrationFactory) error {
	if service == nil {
		return fmt.Errorf("integrations: service is required")
	}
	for _, factory := range factories {
		if factory == nil {
			continue
		}
		integration, adapter, err := factory()
		if err != nil {
			return err
		}
		if err := service.RegisterIntegration(ctx, integration, adapter); err != nil {
			return err
		}
	}
	return nil
}
