// Package config loads runtime configuration for the SpendWise client.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Environment: an optional .env file, then SPENDWISE_* variables.
//  3. Optional JSON file selected with -c or --config.
//  4. Command-line flags registered by BindFlags; only flags set on the
//     command line override earlier values.
//
// # JSON schema
//
// Intervals use timex.Duration, so values can be strings like "3s" or
// integer nanoseconds:
//
//	{
//	  "remote_url": "https://api.example.com",
//	  "anon_key": "public-anon-key",
//	  "online_check_interval": "3s",
//	  "mirror": {"enabled": true, "bucket": "spendwise"}
//	}
package config
