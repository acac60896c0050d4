package config

import (
	"errors"
	"fmt"
	"sort"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateLoading(); err != nil {
		return err
	}
	if err := c.validateSource(); err != nil {
		return err
	}
	if err := ensurePositiveMap(map[string]int{
		"playback.tick_interval_ms": c.Playback.TickIntervalMillis,
	}); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateLoading() error {
	if err := ensurePositiveMap(map[string]int{
		"loading.poll_interval_ms":    c.Loading.PollIntervalMillis,
		"loading.monitor_interval_ms": c.Loading.MonitorIntervalMillis,
		"loading.stable_observations": c.Loading.StableObservations,
		"loading.max_attempts":        c.Loading.MaxAttempts,
	}); err != nil {
		return err
	}
	if c.Loading.InitialDelayMillis < 0 {
		return errors.New("loading.initial_delay_ms must not be negative")
	}
	if c.Loading.FinalCheckDelayMillis < 0 {
		return errors.New("loading.final_check_delay_ms must not be negative")
	}
	return nil
}

func (c *Config) validateSource() error {
	return ensurePositiveMap(map[string]int{
		"source.fetch_timeout_seconds": c.Source.FetchTimeoutSeconds,
		"source.fetch_attempts":        c.Source.FetchAttempts,
	})
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q (use console or json)", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if values[key] <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
