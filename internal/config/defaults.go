package config

const (
	defaultConfigPath            = "~/.config/cuetrack/config.toml"
	defaultStateDir              = "~/.local/share/cuetrack"
	defaultLogDir                = "~/.local/share/cuetrack/logs"
	defaultCachePath             = "~/.cache/cuetrack/cues.db"
	defaultAPIBind               = "127.0.0.1:7491"
	defaultInitialDelayMillis    = 500
	defaultPollIntervalMillis    = 500
	defaultMonitorIntervalMillis = 2000
	defaultStableObservations    = 3
	defaultMaxAttempts           = 20
	defaultFinalCheckDelayMillis = 1000
	defaultUserAgent             = "cuetrack/dev"
	defaultFetchTimeoutSeconds   = 15
	defaultFetchAttempts         = 3
	defaultTickIntervalMillis    = 250
	defaultLogFormat             = "console"
	defaultLogLevel              = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StateDir:  defaultStateDir,
			LogDir:    defaultLogDir,
			CachePath: defaultCachePath,
			APIBind:   defaultAPIBind,
		},
		Loading: Loading{
			InitialDelayMillis:    defaultInitialDelayMillis,
			PollIntervalMillis:    defaultPollIntervalMillis,
			MonitorIntervalMillis: defaultMonitorIntervalMillis,
			StableObservations:    defaultStableObservations,
			MaxAttempts:           defaultMaxAttempts,
			RenderPartial:         true,
			FinalCheckDelayMillis: defaultFinalCheckDelayMillis,
		},
		Source: Source{
			UserAgent:           defaultUserAgent,
			FetchTimeoutSeconds: defaultFetchTimeoutSeconds,
			FetchAttempts:       defaultFetchAttempts,
			CacheEnabled:        true,
			Languages:           []string{"en"},
		},
		Playback: Playback{
			TickIntervalMillis: defaultTickIntervalMillis,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
