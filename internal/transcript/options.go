package transcript

import (
	"log/slog"
	"time"

	"cuetrack/internal/config"
	"cuetrack/internal/loading"
	"cuetrack/internal/source"
)

// Options configures a Session.
type Options struct {
	// Source feeds cues. Nil means cues are pushed with Load and Append.
	Source   source.CueSource
	Renderer Renderer
	// Player enables SeekToCue. Optional.
	Player Player
	// Clock lets the session re-resolve the active cue when cues arrive
	// between ticks. Optional.
	Clock Clock

	Loading         loading.Config
	InitialDelay    time.Duration
	PollInterval    time.Duration
	MonitorInterval time.Duration
	FinalCheckDelay time.Duration
	RenderPartial   bool

	Logger *slog.Logger
}

// OptionsFromConfig fills the loading settings from the application
// configuration. Callers still supply Source, Renderer, Player and Clock.
func OptionsFromConfig(cfg *config.Config) Options {
	opts := Options{Loading: loading.DefaultConfig(), PollInterval: 500 * time.Millisecond}
	if cfg == nil {
		return opts
	}
	opts.Loading = loading.Config{
		StableObservations: cfg.Loading.StableObservations,
		MaxAttempts:        cfg.Loading.MaxAttempts,
	}
	opts.InitialDelay = cfg.InitialDelay()
	opts.PollInterval = cfg.PollInterval()
	opts.MonitorInterval = cfg.MonitorInterval()
	opts.FinalCheckDelay = cfg.FinalCheckDelay()
	opts.RenderPartial = cfg.Loading.RenderPartial
	return opts
}
