package config

import (
	"fmt"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const envPrefix = "SPENDWISE_"

// loadDotEnv imports path into the process environment. A missing file is
// fine; variables already set win.
func loadDotEnv(path string) {
	_ = godotenv.Load(path)
}

type lookupFunc func(string) (string, bool)

func applyEnv(cfg *Config, lookup lookupFunc) error {
	e := envReader{lookup: lookup}

	e.str("DB_PATH", &cfg.DatabasePath)
	e.str("REMOTE_URL", &cfg.RemoteURL)
	e.str("ANON_KEY", &cfg.AnonKey)
	e.boolean("SOFT_DELETE", &cfg.SoftDelete)
	e.duration("REQUEST_TIMEOUT", &cfg.RequestTimeout)
	e.duration("ONLINE_CHECK_INTERVAL", &cfg.OnlineCheckInterval)
	e.duration("GUEST_DATA_TTL", &cfg.GuestDataTTL)
	e.str("RATES_FILE", &cfg.RatesFile)
	e.str("RATES_URL", &cfg.RatesURL)
	e.str("LOG_BACKEND", &cfg.LogBackend)
	e.str("LOG_LEVEL", &cfg.LogLevel)

	e.boolean("MIRROR_ENABLED", &cfg.Mirror.Enabled)
	e.str("MIRROR_BUCKET", &cfg.Mirror.Bucket)
	e.str("MIRROR_PREFIX", &cfg.Mirror.Prefix)
	e.str("MIRROR_REGION", &cfg.Mirror.Region)
	e.str("MIRROR_ENDPOINT", &cfg.Mirror.Endpoint)
	e.str("MIRROR_ACCESS_KEY", &cfg.Mirror.AccessKey)
	e.str("MIRROR_SECRET_KEY", &cfg.Mirror.SecretKey)

	return e.err
}

// envReader stops at the first malformed value.
type envReader struct {
	lookup lookupFunc
	err    error
}

func (e *envReader) get(name string) (string, bool) {
	if e.err != nil {
		return "", false
	}
	v, ok := e.lookup(envPrefix + name)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

func (e *envReader) str(name string, dst *string) {
	if v, ok := e.get(name); ok {
		*dst = v
	}
}

func (e *envReader) boolean(name string, dst *bool) {
	v, ok := e.get(name)
	if !ok {
		return
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		e.err = fmt.Errorf("invalid boolean for %s%s: %q (%w)", envPrefix, name, v, err)
		return
	}
	*dst = b
}

func (e *envReader) duration(name string, dst *time.Duration) {
	v, ok := e.get(name)
	if !ok {
		return
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		e.err = fmt.Errorf("invalid duration for %s%s: %q (%w)", envPrefix, name, v, err)
		return
	}
	*dst = d
}
