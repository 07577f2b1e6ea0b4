package config

import (
	"time"

	"github.com/spf13/pflag"
)

// Config holds runtime settings for the ustory client.
type Config struct {
	APIBaseURL          string
	AppOrigin           string
	ListenAddr          string
	StaticDir           string
	DatabasePath        string
	CachePath           string
	AppShellCache       string
	RuntimeCache        string
	PrecacheURLs        []string
	FallbackImage       string
	OnlineCheckInterval time.Duration
	DevMode             bool
	LogLevel            string
	LogFormat           string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.APIBaseURL = "https://story-api.dicoding.dev/v1"
	c.AppOrigin = "http://127.0.0.1:8080"
	c.ListenAddr = "127.0.0.1:8080"
	c.StaticDir = "web"
	c.DatabasePath = "ustory.db"
	c.CachePath = "ustory-cache.db"
	c.AppShellCache = "ustory-static-v1"
	c.RuntimeCache = "ustory-runtime-v1"
	c.PrecacheURLs = []string{"/", "/index.html", "/images/logo.png", "/images/favicon.png", "/manifest.webmanifest"}
	c.FallbackImage = "/images/logo.png"
	c.OnlineCheckInterval = 3 * time.Second
	c.DevMode = false
	c.LogLevel = "info"
	c.LogFormat = "text"
}

// Load builds a Config from defaults, then the file named by the config
// flag (if any), then the flags in fs that were explicitly set. fs may be
// nil. Flags must have been registered with BindFlags.
func Load(fs *pflag.FlagSet) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if fs != nil {
		path, err := fs.GetString(flagConfig)
		if err != nil {
			return nil, err
		}
		if path != "" {
			if err := cfg.LoadFile(path); err != nil {
				return nil, err
			}
		}
		if err := applyFlags(cfg, fs); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}
