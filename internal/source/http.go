package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"cuetrack/internal/config"
	"cuetrack/internal/cue"
	"cuetrack/internal/logging"
	"cuetrack/internal/webvtt"
)

const (
	defaultUserAgent     = "cuetrack/dev"
	defaultFetchTimeout  = 15 * time.Second
	defaultRetryInterval = time.Second
	maxDocumentBytes     = 16 << 20
)

// HTTPConfig describes an HTTP caption document source.
type HTTPConfig struct {
	URL       string
	UserAgent string
	// Timeout bounds each attempt.
	Timeout time.Duration
	// Attempts is the total number of tries for retriable failures.
	Attempts int
	// RetryInterval is the fixed wait between attempts.
	RetryInterval time.Duration
	HTTPClient    *http.Client
	// Store receives every successfully parsed document.
	Store  DocumentStore
	Logger *slog.Logger
}

// HTTPConfigFromConfig fills the request settings from the application
// configuration.
func HTTPConfigFromConfig(cfg *config.Config, rawURL string) HTTPConfig {
	out := HTTPConfig{URL: rawURL}
	if cfg == nil {
		return out
	}
	out.UserAgent = cfg.Source.UserAgent
	out.Timeout = cfg.FetchTimeout()
	out.Attempts = cfg.Source.FetchAttempts
	out.RetryInterval = cfg.PollInterval()
	return out
}

// HTTPSource fetches a caption document by URL.
type HTTPSource struct {
	url           string
	userAgent     string
	timeout       time.Duration
	attempts      int
	retryInterval time.Duration
	http          *http.Client
	store         DocumentStore
	logger        *slog.Logger

	mu          sync.Mutex
	storedCount int
}

// NewHTTPSource validates cfg and builds the source.
func NewHTTPSource(cfg HTTPConfig) (*HTTPSource, error) {
	raw := strings.TrimSpace(cfg.URL)
	parsed, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("source: parse url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("source: unsupported url scheme %q", parsed.Scheme)
	}
	userAgent := strings.TrimSpace(cfg.UserAgent)
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultFetchTimeout
	}
	attempts := max(cfg.Attempts, 1)
	retryInterval := cfg.RetryInterval
	if retryInterval <= 0 {
		retryInterval = defaultRetryInterval
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{}
	}
	logger := logging.NewComponentLogger(cfg.Logger, "source").With(logging.String(logging.FieldSource, raw))
	return &HTTPSource{
		url:           raw,
		userAgent:     userAgent,
		timeout:       timeout,
		attempts:      attempts,
		retryInterval: retryInterval,
		http:          client,
		store:         cfg.Store,
		logger:        logger,
	}, nil
}

func (s *HTTPSource) Describe() string { return s.url }

// Cues fetches and parses the document, retrying retriable failures on the
// fixed interval until the attempt budget runs out.
func (s *HTTPSource) Cues(ctx context.Context) ([]cue.Cue, error) {
	var lastErr error
	for attempt := 1; attempt <= s.attempts; attempt++ {
		cues, err := s.fetch(ctx)
		if err == nil {
			return cues, nil
		}
		lastErr = err
		if !IsRetriable(err) || attempt == s.attempts {
			break
		}
		s.logger.Debug("caption fetch retry",
			logging.Int("attempt", attempt),
			logging.Duration("wait", s.retryInterval),
			logging.Error(err),
		)
		if err := sleepWithContext(ctx, s.retryInterval); err != nil {
			return nil, Wrap(ErrSourceFetchFailed, "fetch", s.url, err)
		}
	}
	if errors.Is(lastErr, ErrNoCaptionsAvailable) || errors.Is(lastErr, ErrSourceFetchFailed) {
		return nil, lastErr
	}
	return nil, Wrap(ErrSourceFetchFailed, "fetch", s.url, lastErr)
}

func (s *HTTPSource) fetch(ctx context.Context) ([]cue.Cue, error) {
	reqCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", s.userAgent)
	req.Header.Set("Accept", "text/vtt, text/plain;q=0.9, */*;q=0.1")

	resp, err := s.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, statusError{code: resp.StatusCode, status: resp.Status, body: strings.TrimSpace(string(body))}
	}

	doc, err := webvtt.Parse(io.LimitReader(resp.Body, maxDocumentBytes))
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}
	logSkipped(s.logger, doc)
	if len(doc.Cues) == 0 {
		return nil, Wrap(ErrNoCaptionsAvailable, "parse", s.url+" has no cues", nil)
	}
	if s.store != nil && s.markStored(len(doc.Cues)) {
		if err := s.store.Put(ctx, s.url, doc.Cues); err != nil {
			s.logger.Warn("caption cache write failed",
				logging.Error(err),
				logging.String(logging.FieldEventType, "cache_write_failed"),
				logging.String(logging.FieldImpact, "cached fallback will be stale"),
			)
		}
	}
	return doc.Cues, nil
}

// markStored reports whether a document of count cues differs from the last
// one written to the store, and records it.
func (s *HTTPSource) markStored(count int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if count == s.storedCount {
		return false
	}
	s.storedCount = count
	return true
}

func logSkipped(logger *slog.Logger, doc *webvtt.Document) {
	for _, skipped := range doc.Skipped {
		logger.Warn("caption cue skipped",
			logging.Int("line", skipped.Line),
			logging.Error(skipped.Err),
			logging.String(logging.FieldEventType, "cue_skipped"),
		)
	}
}
