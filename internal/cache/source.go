package cache

import (
	"context"
	"errors"

	"cuetrack/internal/cue"
	"cuetrack/internal/source"
)

// CacheSource serves the cached copy of a document as a caption source.
type CacheSource struct {
	Store *Store
	URL   string
}

func (c CacheSource) Describe() string { return "cache:" + c.URL }

// Cues returns the cached cues. A missing entry reports
// ErrNoCaptionsAvailable, so a chain whose primary failed to fetch still
// reports the fetch failure.
func (c CacheSource) Cues(ctx context.Context) ([]cue.Cue, error) {
	if c.Store == nil {
		return nil, source.Wrap(source.ErrSourceFetchFailed, "cache", "cache not open", nil)
	}
	doc, err := c.Store.Get(ctx, c.URL)
	if errors.Is(err, ErrNotFound) {
		return nil, source.Wrap(source.ErrNoCaptionsAvailable, "cache", "no cached copy", err)
	}
	if err != nil {
		return nil, source.Wrap(source.ErrSourceFetchFailed, "cache", c.URL, err)
	}
	if len(doc.Cues) == 0 {
		return nil, source.Wrap(source.ErrNoCaptionsAvailable, "cache", c.URL, nil)
	}
	return doc.Cues, nil
}

// WithFallback wraps primary so that a failed fetch of url is served from
// the cache. A nil store returns primary unchanged.
func WithFallback(primary source.CueSource, store *Store, url string) source.CueSource {
	if store == nil {
		return primary
	}
	return source.Fallback{Sources: []source.CueSource{primary, CacheSource{Store: store, URL: url}}}
}
