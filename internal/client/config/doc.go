// Package config loads runtime configuration for the ustory client.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional config file selected with -c/--config. Files ending in .toml
//     are decoded as TOML, anything else as JSON.
//  3. Command-line flags registered by BindFlags, applied only when set.
//
// Durations in files use timex.Duration, so they can be strings like "3s"
// or integer nanoseconds:
//
//	api_base_url = "https://story-api.dicoding.dev/v1"
//	online_check_interval = "5s"
//	precache_urls = ["/", "/index.html"]
//
// The loaded Config is read once at start-up and not changed afterwards.
package config
