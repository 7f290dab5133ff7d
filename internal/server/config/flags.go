package config

import (
	"os"

	"github.com/spf13/pflag"
)

// BindFlags registers the server flags on fs.
//
//	-c, --config        JSON config file
//	-a, --address       REST bind address (e.g., ":8080")
//	-d, --database-dsn  PostgreSQL DSN
//	-s, --secret-key    JWT HMAC secret key
//	-t, --token-ttl     access token validity
//	    --anon-key      expected apikey header
//	    --log-level     log level
func BindFlags(fs *pflag.FlagSet) {
	var d Config
	d.LoadDefaults()

	fs.StringP("config", "c", "", "path to JSON config file")
	fs.StringP("address", "a", d.EndpointAddr, "address and port to run server")
	fs.StringP("database-dsn", "d", d.DatabaseDSN, "database DSN")
	fs.StringP("secret-key", "s", d.SecretKey, "secret key")
	fs.DurationP("token-ttl", "t", d.AccessTokenValidityDuration, "access token validity")
	fs.String("anon-key", d.AnonKey, "anonymous API key")
	fs.String("log-level", d.LogLevel, "log level")
}

func configFile(fs *pflag.FlagSet) string {
	if fs != nil {
		if v, err := fs.GetString("config"); err == nil && v != "" {
			return v
		}
	}
	return os.Getenv(envPrefix + "CONFIG")
}

// applyFlags copies the flags that were set into config.
func applyFlags(config *Config, fs *pflag.FlagSet) error {
	if fs == nil {
		return nil
	}

	var err error
	fs.Visit(func(f *pflag.Flag) {
		if err != nil {
			return
		}
		switch f.Name {
		case "address":
			config.EndpointAddr = f.Value.String()
		case "database-dsn":
			config.DatabaseDSN = f.Value.String()
		case "secret-key":
			config.SecretKey = f.Value.String()
		case "token-ttl":
			config.AccessTokenValidityDuration, err = fs.GetDuration(f.Name)
		case "anon-key":
			config.AnonKey = f.Value.String()
		case "log-level":
			config.LogLevel = f.Value.String()
		}
	})
	return err
}
