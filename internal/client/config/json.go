package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/dmitrijs2005/spendwise/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. Pointer
// fields distinguish "absent" from zero values.
type JsonConfig struct {
	DatabasePath        *string         `json:"database_path"`
	RemoteURL           *string         `json:"remote_url"`
	AnonKey             *string         `json:"anon_key"`
	SoftDelete          *bool           `json:"soft_delete"`
	RequestTimeout      *timex.Duration `json:"request_timeout"`
	OnlineCheckInterval *timex.Duration `json:"online_check_interval"`
	GuestDataTTL        *timex.Duration `json:"guest_data_ttl"`
	RatesFile           *string         `json:"rates_file"`
	RatesURL            *string         `json:"rates_url"`
	LogBackend          *string         `json:"log_backend"`
	LogLevel            *string         `json:"log_level"`
	Mirror              *jsonMirror     `json:"mirror"`
}

type jsonMirror struct {
	Enabled   *bool   `json:"enabled"`
	Bucket    *string `json:"bucket"`
	Prefix    *string `json:"prefix"`
	Region    *string `json:"region"`
	Endpoint  *string `json:"endpoint"`
	AccessKey *string `json:"access_key"`
	SecretKey *string `json:"secret_key"`
}

// parseJSON overlays cfg with the fields present in the file at path. An
// empty path is a no-op.
func parseJSON(cfg *Config, path string) error {
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	setString(&cfg.DatabasePath, jc.DatabasePath)
	setString(&cfg.RemoteURL, jc.RemoteURL)
	setString(&cfg.AnonKey, jc.AnonKey)
	setBool(&cfg.SoftDelete, jc.SoftDelete)
	setDuration(&cfg.RequestTimeout, jc.RequestTimeout)
	setDuration(&cfg.OnlineCheckInterval, jc.OnlineCheckInterval)
	setDuration(&cfg.GuestDataTTL, jc.GuestDataTTL)
	setString(&cfg.RatesFile, jc.RatesFile)
	setString(&cfg.RatesURL, jc.RatesURL)
	setString(&cfg.LogBackend, jc.LogBackend)
	setString(&cfg.LogLevel, jc.LogLevel)

	if m := jc.Mirror; m != nil {
		setBool(&cfg.Mirror.Enabled, m.Enabled)
		setString(&cfg.Mirror.Bucket, m.Bucket)
		setString(&cfg.Mirror.Prefix, m.Prefix)
		setString(&cfg.Mirror.Region, m.Region)
		setString(&cfg.Mirror.Endpoint, m.Endpoint)
		setString(&cfg.Mirror.AccessKey, m.AccessKey)
		setString(&cfg.Mirror.SecretKey, m.SecretKey)
	}
	return nil
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}

func setDuration(dst *time.Duration, v *timex.Duration) {
	if v != nil {
		*dst = v.Duration
	}
}
