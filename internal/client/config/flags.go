package config

import (
	"os"

	"github.com/spf13/pflag"
)

const (
	flagConfig         = "config"
	flagDatabase       = "db"
	flagRemoteURL      = "remote-url"
	flagAnonKey        = "anon-key"
	flagSoftDelete     = "soft-delete"
	flagRequestTimeout = "request-timeout"
	flagOnlineInterval = "online-interval"
	flagRatesFile      = "rates-file"
	flagLogBackend     = "log-backend"
	flagLogLevel       = "log-level"
)

// BindFlags registers the client flags on fs. Their defaults are only
// shown in help; unset flags never override other sources.
func BindFlags(fs *pflag.FlagSet) {
	var d Config
	d.LoadDefaults()

	fs.StringP(flagConfig, "c", "", "path to JSON config file")
	fs.StringP(flagDatabase, "d", d.DatabasePath, "path to the local database")
	fs.StringP(flagRemoteURL, "a", d.RemoteURL, "base URL of the backend")
	fs.String(flagAnonKey, d.AnonKey, "anonymous API key of the backend")
	fs.Bool(flagSoftDelete, d.SoftDelete, "mark remote rows deleted instead of removing them")
	fs.Duration(flagRequestTimeout, d.RequestTimeout, "timeout of a single backend request")
	fs.DurationP(flagOnlineInterval, "i", d.OnlineCheckInterval, "online status check interval")
	fs.String(flagRatesFile, d.RatesFile, "YAML file with exchange rates")
	fs.String(flagLogBackend, d.LogBackend, "log backend: slog, json or zap")
	fs.String(flagLogLevel, d.LogLevel, "log level")
}

// configFile resolves the JSON config path from fs, then SPENDWISE_CONFIG.
func configFile(fs *pflag.FlagSet) string {
	if fs != nil {
		if v, err := fs.GetString(flagConfig); err == nil && v != "" {
			return v
		}
	}
	return os.Getenv(envPrefix + "CONFIG")
}

// applyFlags copies every flag that was set on the command line into cfg.
func applyFlags(cfg *Config, fs *pflag.FlagSet) error {
	if fs == nil {
		return nil
	}

	var err error
	fs.Visit(func(f *pflag.Flag) {
		if err != nil {
			return
		}
		switch f.Name {
		case flagDatabase:
			cfg.DatabasePath, err = fs.GetString(f.Name)
		case flagRemoteURL:
			cfg.RemoteURL, err = fs.GetString(f.Name)
		case flagAnonKey:
			cfg.AnonKey, err = fs.GetString(f.Name)
		case flagSoftDelete:
			cfg.SoftDelete, err = fs.GetBool(f.Name)
		case flagRequestTimeout:
			cfg.RequestTimeout, err = fs.GetDuration(f.Name)
		case flagOnlineInterval:
			cfg.OnlineCheckInterval, err = fs.GetDuration(f.Name)
		case flagRatesFile:
			cfg.RatesFile, err = fs.GetString(f.Name)
		case flagLogBackend:
			cfg.LogBackend, err = fs.GetString(f.Name)
		case flagLogLevel:
			cfg.LogLevel, err = fs.GetString(f.Name)
		}
	})
	return err
}
