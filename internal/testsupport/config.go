package testsupport

import (
	"path/filepath"
	"testing"

	"cuetrack/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test
// and fast loading intervals. It applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.CachePath = filepath.Join(base, "cache", "cues.db")
	cfgVal.Paths.APIBind = "127.0.0.1:0"
	cfgVal.Loading.InitialDelayMillis = 1
	cfgVal.Loading.PollIntervalMillis = 1
	cfgVal.Loading.MonitorIntervalMillis = 1
	cfgVal.Loading.FinalCheckDelayMillis = 1
	cfgVal.Playback.TickIntervalMillis = 1
	cfgVal.Source.FetchTimeoutSeconds = 2

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithStableObservations overrides the stabilization threshold.
func WithStableObservations(k int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Loading.StableObservations = k
	}
}

// WithMaxAttempts overrides the empty-observation budget.
func WithMaxAttempts(n int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Loading.MaxAttempts = n
	}
}

// WithCacheDisabled turns the cue cache off.
func WithCacheDisabled() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Source.CacheEnabled = false
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.StateDir)
}
