package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// parseEnvConfig reads overrides from VAULT_* environment variables.
func parseEnvConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	return cfg, nil
}
