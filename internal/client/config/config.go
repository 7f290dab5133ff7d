package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/pflag"

	"github.com/dmitrijs2005/spendwise/internal/client/models"
)

// Config holds runtime settings for the SpendWise client.
type Config struct {
	DatabasePath string

	RemoteURL      string
	AnonKey        string
	SoftDelete     bool
	RequestTimeout time.Duration

	OnlineCheckInterval time.Duration
	GuestDataTTL        time.Duration

	RatesFile string
	RatesURL  string

	LogBackend string
	LogLevel   string

	Mirror MirrorConfig
}

// MirrorConfig configures the optional cloud mirror.
type MirrorConfig struct {
	Enabled   bool
	Bucket    string
	Prefix    string
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.DatabasePath = defaultDatabasePath()
	c.RemoteURL = "http://127.0.0.1:8080"
	c.AnonKey = ""
	c.SoftDelete = true
	c.RequestTimeout = 10 * time.Second
	c.OnlineCheckInterval = 3 * time.Second
	c.GuestDataTTL = models.GuestDataTTL
	c.RatesURL = "https://api.exchangerate-api.com/v4/latest/TRY"
	c.LogBackend = "slog"
	c.LogLevel = "info"
	c.Mirror = MirrorConfig{Prefix: "spendwise", Region: "us-east-1"}
}

func defaultDatabasePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "spendwise.db"
	}
	return filepath.Join(dir, "spendwise", "spendwise.db")
}

// LoadConfig builds a Config from defaults, the environment, the JSON file
// and the flags in fs, in that order. fs may be nil.
func LoadConfig(fs *pflag.FlagSet) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	loadDotEnv(".env")
	if err := applyEnv(cfg, os.LookupEnv); err != nil {
		return nil, err
	}
	if err := parseJSON(cfg, configFile(fs)); err != nil {
		return nil, err
	}
	if err := applyFlags(cfg, fs); err != nil {
		return nil, err
	}
	return cfg, nil
}
