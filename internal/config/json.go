package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// jsonConfig mirrors Config for file parsing; durations are human-readable
// strings ("5m", "30s") rather than nanosecond integers.
type jsonConfig struct {
	Storage struct {
		Driver string `json:"driver"`
		DSN    string `json:"dsn"`
	} `json:"storage"`
	Security struct {
		KDFIterations       int    `json:"kdf_iterations"`
		BackupCodeCount     int    `json:"backup_code_count"`
		AutoLockAfter       string `json:"auto_lock_after"`
		ClipboardClearAfter string `json:"clipboard_clear_after"`
	} `json:"security"`
}

// loadJSONConfig reads the file named by VAULT_CONFIG. Returns (nil, nil)
// when the variable is unset.
func loadJSONConfig() (*Config, error) {
	path := os.Getenv("VAULT_CONFIG")
	if path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file %s: %w", path, err)
	}

	var jc jsonConfig
	if err = json.Unmarshal(data, &jc); err != nil {
		return nil, fmt.Errorf("decode config file %s: %w", path, err)
	}

	cfg := &Config{
		Storage: Database{
			Driver: jc.Storage.Driver,
			DSN:    jc.Storage.DSN,
		},
		Security: Security{
			KDFIterations:   jc.Security.KDFIterations,
			BackupCodeCount: jc.Security.BackupCodeCount,
		},
	}

	if cfg.Security.AutoLockAfter, err = parseOptionalDuration(jc.Security.AutoLockAfter); err != nil {
		return nil, fmt.Errorf("config file %s: auto_lock_after: %w", path, err)
	}
	if cfg.Security.ClipboardClearAfter, err = parseOptionalDuration(jc.Security.ClipboardClearAfter); err != nil {
		return nil, fmt.Errorf("config file %s: clipboard_clear_after: %w", path, err)
	}

	return cfg, nil
}

func parseOptionalDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	return time.ParseDuration(s)
}
