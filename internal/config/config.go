package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and bind address configuration.
type Paths struct {
	StateDir  string `toml:"state_dir"`
	LogDir    string `toml:"log_dir"`
	CachePath string `toml:"cache_path"`
	APIBind   string `toml:"api_bind"`
	// APIToken, when set, is required as a bearer token by the HTTP API.
	APIToken string `toml:"api_token"`
}

// Loading controls how the session polls a caption source until its cue
// count stabilizes.
type Loading struct {
	// InitialDelayMillis is the wait before the first observation.
	InitialDelayMillis int `toml:"initial_delay_ms"`
	// PollIntervalMillis is the fixed interval between observations while
	// waiting for the first cues.
	PollIntervalMillis int `toml:"poll_interval_ms"`
	// MonitorIntervalMillis is the interval used once cues have been seen, to
	// pick up late-loading captions.
	MonitorIntervalMillis int `toml:"monitor_interval_ms"`
	// StableObservations is how many consecutive observations must report the
	// same count before the transcript is considered complete.
	StableObservations int `toml:"stable_observations"`
	// MaxAttempts bounds observations that see no cues before giving up.
	MaxAttempts int `toml:"max_attempts"`
	// RenderPartial lets renderers draw cues before the count stabilizes.
	RenderPartial bool `toml:"render_partial"`
	// FinalCheckDelayMillis delays the last observation after playback ends.
	FinalCheckDelayMillis int `toml:"final_check_delay_ms"`
}

// Source contains caption retrieval settings.
type Source struct {
	UserAgent           string   `toml:"user_agent"`
	FetchTimeoutSeconds int      `toml:"fetch_timeout_seconds"`
	FetchAttempts       int      `toml:"fetch_attempts"`
	CacheEnabled        bool     `toml:"cache_enabled"`
	Languages           []string `toml:"languages"`
}

// Playback contains settings for the simulated playback clock.
type Playback struct {
	TickIntervalMillis int `toml:"tick_interval_ms"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for cuetrack.
//
// Configuration sections by subsystem:
//   - Paths: state, log and cache locations plus the API bind address
//   - Loading: cue polling and stabilization policy
//   - Source: caption fetch settings and the document cache toggle
//   - Playback: simulated clock tick rate
//   - Logging: log format and level
type Config struct {
	Paths    Paths    `toml:"paths"`
	Loading  Loading  `toml:"loading"`
	Source   Source   `toml:"source"`
	Playback Playback `toml:"playback"`
	Logging  Logging  `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. It returns the
// config, the resolved path, and whether a file existed at that path.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		if _, err := os.Stat(expanded); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("cuetrack.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the state and log directories and the parent of
// the cache database.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Paths.StateDir, c.Paths.LogDir}
	if c.Source.CacheEnabled && c.Paths.CachePath != "" {
		dirs = append(dirs, filepath.Dir(c.Paths.CachePath))
	}
	for _, dir := range dirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// InitialDelay returns the wait before the first cue observation.
func (c *Config) InitialDelay() time.Duration {
	return millis(c.Loading.InitialDelayMillis)
}

// PollInterval returns the interval between observations before cues appear.
func (c *Config) PollInterval() time.Duration {
	return millis(c.Loading.PollIntervalMillis)
}

// MonitorInterval returns the interval between observations once cues exist.
func (c *Config) MonitorInterval() time.Duration {
	return millis(c.Loading.MonitorIntervalMillis)
}

// FinalCheckDelay returns the wait before the observation that follows the end of playback.
func (c *Config) FinalCheckDelay() time.Duration {
	return millis(c.Loading.FinalCheckDelayMillis)
}

// FetchTimeout returns the per-request timeout for caption documents.
func (c *Config) FetchTimeout() time.Duration {
	return time.Duration(c.Source.FetchTimeoutSeconds) * time.Second
}

// TickInterval returns the simulated playback clock's time-update interval.
func (c *Config) TickInterval() time.Duration {
	return millis(c.Playback.TickIntervalMillis)
}

// LockPath returns the single-instance lock file used by `cuetrack serve`.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.StateDir, "cuetrack.lock")
}

// LogPath returns the log file written alongside console output.
func (c *Config) LogPath() string {
	return filepath.Join(c.Paths.LogDir, "cuetrack.log")
}

func millis(v int) time.Duration {
	return time.Duration(v) * time.Millisecond
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// SampleConfig returns the embedded sample configuration text.
func SampleConfig() string {
	return sampleConfig
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
