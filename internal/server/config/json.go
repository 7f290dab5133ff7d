package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/spendwise/internal/timex"
)

// JsonConfig defines a configuration structure tailored for JSON unmarshalling.
// It uses timex.Duration for interval fields, which allows parsing both
// string values such as "1s" and integer nanoseconds.
//
// Absent or empty fields leave the current value in place.
type JsonConfig struct {
	EndpointAddr                string         `json:"address"`
	DatabaseDSN                 string         `json:"database_dsn"`
	SecretKey                   string         `json:"secret_key"`
	AccessTokenValidityDuration timex.Duration `json:"access_token_validity_duration"`
	AnonKey                     string         `json:"anon_key"`
	ShutdownTimeout             timex.Duration `json:"shutdown_timeout"`
	LogBackend                  string         `json:"log_backend"`
	LogLevel                    string         `json:"log_level"`
}

// parseJSON overlays config with the JSON file at path. An empty path is a
// no-op.
func parseJSON(config *Config, path string) error {
	if path == "" {
		return nil
	}

	file, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	overlay := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	overlay(&config.EndpointAddr, c.EndpointAddr)
	overlay(&config.DatabaseDSN, c.DatabaseDSN)
	overlay(&config.SecretKey, c.SecretKey)
	overlay(&config.AnonKey, c.AnonKey)
	overlay(&config.LogBackend, c.LogBackend)
	overlay(&config.LogLevel, c.LogLevel)
	if c.AccessTokenValidityDuration.Duration != 0 {
		config.AccessTokenValidityDuration = c.AccessTokenValidityDuration.Duration
	}
	if c.ShutdownTimeout.Duration != 0 {
		config.ShutdownTimeout = c.ShutdownTimeout.Duration
	}
	return nil
}
