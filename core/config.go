package core

import (
	"fmt"
	"strings"
	"time"
)

type OAuthConfig struct {
	PendingAuthTTL  time.Duration `koanf:"pending_auth_ttl" mapstructure:"pending_auth_ttl"`
	RefreshTokenTTL time.Duration `koanf:"refresh_token_ttl" mapstructure:"refresh_token_ttl"`
}

type HTTPConfig struct {
	Timeout time.Duration `koanf:"timeout" mapstructure:"timeout"`
}

type Config struct {
	ServiceName string      `koanf:"service_name" mapstructure:"service_name"`
	OAuth       OAuthConfig `koanf:"oauth" mapstructure:"oauth"`
	HTTP        HTTPConfig  `koanf:"http" mapstructure:"http"`
}

func DefaultConfig() Config {
	return Config{
		ServiceName: "integrations",
		OAuth: OAuthConfig{
			PendingAuthTTL:  defaultPendingAuthTTL,
			RefreshTokenTTL: defaultRefreshTokenTTL,
		},
		HTTP: HTTPConfig{
			Timeout: 10 * time.Second,
		},
	}
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.ServiceName) == "" {
		return fmt.Errorf("core: service_name is required")
	}
	if c.OAuth.PendingAuthTTL < 0 {
		return fmt.Errorf("core: oauth pending_auth_ttl must not be negative")
	}
	if c.OAuth.RefreshTokenTTL < 0 {
		return fmt.Errorf("core: oauth refresh_token_ttl must not be negative")
	}
	if c.HTTP.Timeout < 0 {
		return fmt.Errorf("core: http timeout must not be negative")
	}
	return nil
}
