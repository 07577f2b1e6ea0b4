package config

import (
	"github.com/spf13/pflag"
)

const (
	flagConfig        = "config"
	flagAPI           = "api"
	flagOrigin        = "origin"
	flagListen        = "listen"
	flagStatic        = "static"
	flagDB            = "db"
	flagCache         = "cache"
	flagCheckInterval = "check-interval"
	flagDev           = "dev"
	flagLogLevel      = "log-level"
	flagLogFormat     = "log-format"
)

// BindFlags registers the configuration flags on fs. Their defaults are
// only informational; Load applies a flag only when it was set.
func BindFlags(fs *pflag.FlagSet) {
	var d Config
	d.LoadDefaults()

	fs.StringP(flagConfig, "c", "", "path to a JSON or TOML config file")
	fs.StringP(flagAPI, "a", d.APIBaseURL, "story API base URL")
	fs.String(flagOrigin, d.AppOrigin, "origin the app shell is served from")
	fs.String(flagListen, d.ListenAddr, "address the app shell listens on")
	fs.String(flagStatic, d.StaticDir, "directory holding the app shell files")
	fs.String(flagDB, d.DatabasePath, "path of the local story database")
	fs.String(flagCache, d.CachePath, "path of the request cache database")
	fs.DurationP(flagCheckInterval, "i", d.OnlineCheckInterval, "online status check interval")
	fs.Bool(flagDev, d.DevMode, "bypass dev-server traffic in the request cache")
	fs.String(flagLogLevel, d.LogLevel, "log level (debug, info, warn, error)")
	fs.String(flagLogFormat, d.LogFormat, "log format (text or json)")
}

func applyFlags(cfg *Config, fs *pflag.FlagSet) error {
	strs := map[string]*string{
		flagAPI:       &cfg.APIBaseURL,
		flagOrigin:    &cfg.AppOrigin,
		flagListen:    &cfg.ListenAddr,
		flagStatic:    &cfg.StaticDir,
		flagDB:        &cfg.DatabasePath,
		flagCache:     &cfg.CachePath,
		flagLogLevel:  &cfg.LogLevel,
		flagLogFormat: &cfg.LogFormat,
	}
	for name, dst := range strs {
		if !fs.Changed(name) {
			continue
		}
		v, err := fs.GetString(name)
		if err != nil {
			return err
		}
		*dst = v
	}

	if fs.Changed(flagCheckInterval) {
		v, err := fs.GetDuration(flagCheckInterval)
		if err != nil {
			return err
		}
		cfg.OnlineCheckInterval = v
	}
	if fs.Changed(flagDev) {
		v, err := fs.GetBool(flagDev)
		if err != nil {
			return err
		}
		cfg.DevMode = v
	}
	return nil
}
