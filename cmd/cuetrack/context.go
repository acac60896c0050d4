package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"cuetrack/internal/cache"
	"cuetrack/internal/config"
	"cuetrack/internal/logging"
	"cuetrack/internal/source"
)

type commandContext struct {
	configFlag *string
	verbose    *bool

	configOnce sync.Once
	config     *config.Config
	configPath string
	configSeen bool
	configErr  error
}

func newCommandContext(configFlag *string, verbose *bool) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		verbose:    verbose,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, resolved, exists, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		if c.verbose != nil && *c.verbose {
			cfg.Logging.Level = "debug"
		}
		c.config = cfg
		c.configPath = resolved
		c.configSeen = exists
	})
	return c.config, c.configErr
}

// logger builds a logger that writes to stderr and the log file.
func (c *commandContext) logger() (*slog.Logger, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return logging.NewFromConfig(cfg)
}

// fileLogger builds a logger that only writes to the log file, for flows
// that own the terminal.
func (c *commandContext) fileLogger() (*slog.Logger, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return logging.New(logging.Options{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		OutputPaths: []string{cfg.LogPath()},
	})
}

// openCache opens the cue cache. A disabled cache returns nil without error;
// other failures are reported to out and also yield nil so commands can run
// uncached.
func (c *commandContext) openCache(out io.Writer, logger *slog.Logger) *cache.Store {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil
	}
	store, err := cache.Open(cfg)
	if errors.Is(err, cache.ErrDisabled) {
		return nil
	}
	if err != nil {
		if logger != nil {
			logging.WarnWithContext(logger, "cue cache unavailable", "cache_open_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "fetched captions will not be cached"),
			)
		} else {
			fmt.Fprintf(out, "Warning: cue cache unavailable: %v\n", err)
		}
		return nil
	}
	return store
}

// sourceFor resolves a caption reference. URLs are written through to the
// cache and fall back to the cached copy when the fetch fails.
func (c *commandContext) sourceFor(ref string, store *cache.Store, logger *slog.Logger) (source.CueSource, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	var docs source.DocumentStore
	if store != nil {
		docs = store
	}
	primary, err := source.ForReference(cfg, ref, docs, logger)
	if err != nil {
		return nil, err
	}
	if !source.IsURL(ref) {
		return primary, nil
	}
	return cache.WithFallback(primary, store, strings.TrimSpace(ref)), nil
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func closeCache(store *cache.Store) {
	if store != nil {
		_ = store.Close()
	}
}
