// Package config assembles the vault configuration from three layers:
// built-in defaults, an optional JSON file and environment variables.
// Later layers override earlier ones.
package config

import (
	"fmt"
	"time"

	"dario.cat/mergo"
)

// Supported database drivers.
const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "pgx"
)

// Database contains connection settings for the vault record store.
type Database struct {
	// Driver selects the backend: DriverSQLite (default) or DriverPostgres.
	Driver string `env:"VAULT_DB_DRIVER"`
	// DSN is the SQLite file path or the PostgreSQL connection string.
	DSN string `env:"VAULT_DB_DSN"`
}

// Security groups the tunables of the security engine.
type Security struct {
	// KDFIterations is the PBKDF2 iteration count written at vault creation.
	KDFIterations int `env:"VAULT_KDF_ITERATIONS"`
	// BackupCodeCount is how many recovery codes are issued per batch.
	BackupCodeCount int `env:"VAULT_BACKUP_CODE_COUNT"`
	// AutoLockAfter is the idle interval after which the session is locked.
	AutoLockAfter time.Duration `env:"VAULT_AUTO_LOCK_AFTER"`
	// ClipboardClearAfter is how long copied secrets stay on the clipboard.
	ClipboardClearAfter time.Duration `env:"VAULT_CLIPBOARD_CLEAR_AFTER"`
}

// Config is the top-level application configuration.
type Config struct {
	Storage  Database
	Security Security
}

func defaultConfig() *Config {
	return &Config{
		Storage: Database{
			Driver: DriverSQLite,
			DSN:    "vault.db",
		},
		Security: Security{
			KDFIterations:       200_000,
			BackupCodeCount:     10,
			AutoLockAfter:       5 * time.Minute,
			ClipboardClearAfter: 30 * time.Second,
		},
	}
}

// GetConfig builds the effective configuration: defaults, then the JSON file
// named by VAULT_CONFIG (if any), then environment variables on top.
func GetConfig() (*Config, error) {
	cfg := defaultConfig()

	fileCfg, err := loadJSONConfig()
	if err != nil {
		return nil, fmt.Errorf("error loading config file: %w", err)
	}
	if fileCfg != nil {
		if err = mergo.Merge(cfg, fileCfg, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("error merging file config: %w", err)
		}
	}

	envCfg, err := parseEnvConfig()
	if err != nil {
		return nil, fmt.Errorf("error parsing env config: %w", err)
	}
	if err = mergo.Merge(cfg, envCfg, mergo.WithOverride); err != nil {
		return nil, fmt.Errorf("error merging env config: %w", err)
	}

	return cfg, cfg.validate()
}

func (c *Config) validate() error {
	switch c.Storage.Driver {
	case DriverSQLite, DriverPostgres:
	default:
		return fmt.Errorf("%w: unsupported driver %q", ErrInvalidConfig, c.Storage.Driver)
	}
	if c.Storage.DSN == "" {
		return fmt.Errorf("%w: empty database DSN", ErrInvalidConfig)
	}
	if c.Security.KDFIterations < 10_000 {
		return fmt.Errorf("%w: kdf iterations %d below safe minimum", ErrInvalidConfig, c.Security.KDFIterations)
	}
	if c.Security.BackupCodeCount <= 0 {
		return fmt.Errorf("%w: backup code count must be positive", ErrInvalidConfig)
	}
	if c.Security.AutoLockAfter <= 0 {
		return fmt.Errorf("%w: auto-lock interval must be positive", ErrInvalidConfig)
	}
	if c.Security.ClipboardClearAfter <= 0 {
		return fmt.Errorf("%w: clipboard clear interval must be positive", ErrInvalidConfig)
	}
	return nil
}
