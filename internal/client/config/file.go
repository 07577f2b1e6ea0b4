package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/ustory/internal/timex"
	"github.com/pelletier/go-toml/v2"
)

// fileConfig is the on-disk shape of Config. Fields missing from the file
// keep the value they had before decoding.
type fileConfig struct {
	APIBaseURL          string         `json:"api_base_url" toml:"api_base_url"`
	AppOrigin           string         `json:"app_origin" toml:"app_origin"`
	ListenAddr          string         `json:"listen_addr" toml:"listen_addr"`
	StaticDir           string         `json:"static_dir" toml:"static_dir"`
	DatabasePath        string         `json:"database_path" toml:"database_path"`
	CachePath           string         `json:"cache_path" toml:"cache_path"`
	AppShellCache       string         `json:"app_shell_cache" toml:"app_shell_cache"`
	RuntimeCache        string         `json:"runtime_cache" toml:"runtime_cache"`
	PrecacheURLs        []string       `json:"precache_urls" toml:"precache_urls"`
	FallbackImage       string         `json:"fallback_image" toml:"fallback_image"`
	OnlineCheckInterval timex.Duration `json:"online_check_interval" toml:"online_check_interval"`
	DevMode             bool           `json:"dev_mode" toml:"dev_mode"`
	LogLevel            string         `json:"log_level" toml:"log_level"`
	LogFormat           string         `json:"log_format" toml:"log_format"`
}

// LoadFile overlays c with the values found in the file at path.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}

	fc := fileConfig{
		APIBaseURL:          c.APIBaseURL,
		AppOrigin:           c.AppOrigin,
		ListenAddr:          c.ListenAddr,
		StaticDir:           c.StaticDir,
		DatabasePath:        c.DatabasePath,
		CachePath:           c.CachePath,
		AppShellCache:       c.AppShellCache,
		RuntimeCache:        c.RuntimeCache,
		PrecacheURLs:        append([]string(nil), c.PrecacheURLs...),
		FallbackImage:       c.FallbackImage,
		OnlineCheckInterval: timex.Duration{Duration: c.OnlineCheckInterval},
		DevMode:             c.DevMode,
		LogLevel:            c.LogLevel,
		LogFormat:           c.LogFormat,
	}

	if strings.EqualFold(filepath.Ext(path), ".toml") {
		err = toml.Unmarshal(data, &fc)
	} else {
		err = json.Unmarshal(data, &fc)
	}
	if err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	c.APIBaseURL = fc.APIBaseURL
	c.AppOrigin = fc.AppOrigin
	c.ListenAddr = fc.ListenAddr
	c.StaticDir = fc.StaticDir
	c.DatabasePath = fc.DatabasePath
	c.CachePath = fc.CachePath
	c.AppShellCache = fc.AppShellCache
	c.RuntimeCache = fc.RuntimeCache
	c.PrecacheURLs = fc.PrecacheURLs
	c.FallbackImage = fc.FallbackImage
	c.OnlineCheckInterval = fc.OnlineCheckInterval.Duration
	c.DevMode = fc.DevMode
	c.LogLevel = fc.LogLevel
	c.LogFormat = fc.LogFormat
	return nil
}
