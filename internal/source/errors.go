package source

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"
)

var (
	// ErrSourceFetchFailed marks network and resource failures. Callers may
	// fall back to an alternate source.
	ErrSourceFetchFailed = errors.New("caption fetch failed")
	// ErrNoCaptionsAvailable marks media without any eligible track or cue.
	// It is terminal and not retried.
	ErrNoCaptionsAvailable = errors.New("no captions available")
)

// Wrap builds an error that carries the operation context and is tagged with
// marker for classification with errors.Is. A nil marker defaults to
// ErrSourceFetchFailed.
func Wrap(marker error, operation, message string, err error) error {
	detail := buildDetail(operation, message)
	if marker == nil {
		marker = ErrSourceFetchFailed
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

func buildDetail(operation, message string) string {
	parts := make([]string, 0, 2)
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "source failure"
	}
	return strings.Join(parts, ": ")
}

// IsRetriable reports whether err is a transient fetch condition worth
// another attempt: rate limits, timeouts, server errors, dropped connections.
func IsRetriable(err error) bool {
	if err == nil || errors.Is(err, ErrNoCaptionsAvailable) || errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var status statusError
	if errors.As(err, &status) {
		return status.code == 429 || status.code >= 500
	}
	message := strings.ToLower(err.Error())
	for _, token := range []string{
		"timeout",
		"deadline exceeded",
		"connection reset",
		"connection refused",
		"temporary failure",
	} {
		if strings.Contains(message, token) {
			return true
		}
	}
	return false
}

type statusError struct {
	code   int
	status string
	body   string
}

func (e statusError) Error() string {
	if e.body == "" {
		return "unexpected status " + e.status
	}
	return fmt.Sprintf("unexpected status %s: %s", e.status, e.body)
}

// sleepWithContext blocks for d, returning early if ctx is cancelled.
func sleepWithContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
