package identity

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
)

// Config provides the settings the token service needs. The signing key is
// always injected through this interface, never read from a hidden global.
type Config interface {
	GetSigningKey() string
	GetIssuer() string
}

var knownWeakSecrets = []string{
	"change-me", "dev-secret-change-me", "secret", "admin", "password",
}

// EnvConfig sources configuration from the process environment.
type EnvConfig struct {
	SigningKey string `env:"AUTH_SIGNING_KEY,required"`
	Issuer     string `env:"AUTH_ISSUER" envDefault:"go-identity"`
	LogLevel   string `env:"LOG_LEVEL" envDefault:"info"`
}

var _ Config = (*EnvConfig)(nil)

// LoadEnvConfig parses the environment into an EnvConfig.
func LoadEnvConfig() (*EnvConfig, error) {
	cfg := &EnvConfig{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *EnvConfig) GetSigningKey() string { return c.SigningKey }
func (c *EnvConfig) GetIssuer() string     { return c.Issuer }

// Validate rejects signing keys that are unusable in production.
func (c *EnvConfig) Validate(isProduction bool) error {
	if !isProduction {
		return nil
	}

	if len(c.SigningKey) < 16 {
		return fmt.Errorf("AUTH_SIGNING_KEY must be at least 16 characters in production")
	}

	lowered := strings.ToLower(c.SigningKey)
	for _, weak := range knownWeakSecrets {
		if lowered == weak {
			return fmt.Errorf("AUTH_SIGNING_KEY is a known weak secret")
		}
	}

	return nil
}
