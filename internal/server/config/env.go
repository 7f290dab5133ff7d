package config

import (
	"fmt"
	"time"
)

const envPrefix = "SPENDWISE_SERVER_"

func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	get := func(name string) (string, bool) {
		v, ok := lookup(envPrefix + name)
		return v, ok && v != ""
	}
	str := func(name string, dst *string) {
		if v, ok := get(name); ok {
			*dst = v
		}
	}

	str("ADDRESS", &cfg.EndpointAddr)
	str("DATABASE_DSN", &cfg.DatabaseDSN)
	str("SECRET_KEY", &cfg.SecretKey)
	str("ANON_KEY", &cfg.AnonKey)
	str("LOG_BACKEND", &cfg.LogBackend)
	str("LOG_LEVEL", &cfg.LogLevel)

	for name, dst := range map[string]*time.Duration{
		"ACCESS_TOKEN_TTL": &cfg.AccessTokenValidityDuration,
		"SHUTDOWN_TIMEOUT": &cfg.ShutdownTimeout,
	} {
		v, ok := get(name)
		if !ok {
			continue
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid duration for %s%s: %q (%w)", envPrefix, name, v, err)
		}
		*dst = d
	}
	return nil
}
