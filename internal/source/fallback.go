package source

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"cuetrack/internal/config"
	"cuetrack/internal/cue"
	"cuetrack/internal/logging"
)

// Fallback tries sources in order and returns the first that yields cues.
// The chain reports ErrNoCaptionsAvailable only when every source did;
// otherwise the failures are joined under ErrSourceFetchFailed.
type Fallback struct {
	Sources []CueSource
	Logger  *slog.Logger
}

func (f Fallback) Describe() string {
	names := make([]string, len(f.Sources))
	for i, src := range f.Sources {
		names[i] = Describe(src)
	}
	return strings.Join(names, " | ")
}

// Cues walks the chain.
func (f Fallback) Cues(ctx context.Context) ([]cue.Cue, error) {
	if len(f.Sources) == 0 {
		return nil, Wrap(ErrNoCaptionsAvailable, "fallback", "no sources configured", nil)
	}
	logger := logging.NewComponentLogger(f.Logger, "source")
	var errs []error
	allUnavailable := true
	for i, src := range f.Sources {
		cues, err := src.Cues(ctx)
		if err == nil {
			if i > 0 {
				logger.Info("using alternate caption source",
					logging.String(logging.FieldSource, Describe(src)),
					logging.Int("position", i),
				)
			}
			return cues, nil
		}
		if ctx.Err() != nil {
			return nil, Wrap(ErrSourceFetchFailed, "fallback", "cancelled", ctx.Err())
		}
		if !errors.Is(err, ErrNoCaptionsAvailable) {
			allUnavailable = false
		}
		logger.Debug("caption source failed",
			logging.String(logging.FieldSource, Describe(src)),
			logging.Error(err),
		)
		errs = append(errs, err)
	}
	if allUnavailable {
		return nil, Wrap(ErrNoCaptionsAvailable, "fallback", "", errors.Join(errs...))
	}
	// Keep the result out of the ErrNoCaptionsAvailable class when any
	// source actually failed.
	failures := errs[:0]
	for _, err := range errs {
		if !errors.Is(err, ErrNoCaptionsAvailable) {
			failures = append(failures, err)
		}
	}
	return nil, Wrap(ErrSourceFetchFailed, "fallback", "all sources failed", errors.Join(failures...))
}

// ForReference builds a source for a caption reference: an http(s) URL, a
// caption file, or a directory of per-language caption files.
func ForReference(cfg *config.Config, ref string, store DocumentStore, logger *slog.Logger) (CueSource, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, errors.New("source: empty caption reference")
	}
	if IsURL(ref) {
		httpCfg := HTTPConfigFromConfig(cfg, ref)
		httpCfg.Store = store
		httpCfg.Logger = logger
		return NewHTTPSource(httpCfg)
	}
	path, err := config.ExpandPath(ref)
	if err != nil {
		return nil, fmt.Errorf("source: %w", err)
	}
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		var languages []string
		if cfg != nil {
			languages = cfg.Source.Languages
		}
		return DirectorySource{Dir: path, Languages: languages, Logger: logger}, nil
	}
	return FileSource{Path: path, Logger: logger}, nil
}

// IsURL reports whether ref names an http or https resource.
func IsURL(ref string) bool {
	lower := strings.ToLower(strings.TrimSpace(ref))
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}
