package logging

import (
	"context"
	"log/slog"
	"strings"
)

type fanoutHandler struct {
	handlers []slog.Handler
}

func newFanoutHandler(handlers ...slog.Handler) slog.Handler {
	filtered := make([]slog.Handler, 0, len(handlers))
	for _, h := range handlers {
		if h != nil {
			filtered = append(filtered, h)
		}
	}
	switch len(filtered) {
	case 0:
		return NoopHandler{}
	case 1:
		return filtered[0]
	default:
		return &fanoutHandler{handlers: filtered}
	}
}

func (h *fanoutHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, handler := range h.handlers {
		if handler.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (h *fanoutHandler) Handle(ctx context.Context, record slog.Record) error {
	var firstErr error
	for idx, handler := range h.handlers {
		if !handler.Enabled(ctx, record.Level) {
			continue
		}
		rec := record
		if idx < len(h.handlers)-1 {
			rec = record.Clone()
		}
		if err := handler.Handle(ctx, rec); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (h *fanoutHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		next[i] = handler.WithAttrs(attrs)
	}
	return &fanoutHandler{handlers: next}
}

func (h *fanoutHandler) WithGroup(name string) slog.Handler {
	next := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		next[i] = handler.WithGroup(name)
	}
	return &fanoutHandler{handlers: next}
}

// TeeLogger duplicates log output from base into the provided handlers.
func TeeLogger(base *slog.Logger, handlers ...slog.Handler) *slog.Logger {
	if base == nil {
		return slog.New(newFanoutHandler(handlers...))
	}
	all := append([]slog.Handler{base.Handler()}, handlers...)
	return slog.New(newFanoutHandler(all...))
}

// LineFunc receives a formatted log line: the level, the message, and the
// record's attributes rendered as key=value pairs.
type LineFunc func(level slog.Level, line string)

type lineHandler struct {
	min   slog.Level
	fn    LineFunc
	attrs []slog.Attr
}

// NewLineHandler returns a handler that renders records at or above min into
// single lines and passes them to fn. The terminal transcript panel uses it to
// surface warnings in its status line.
func NewLineHandler(min slog.Level, fn LineFunc) slog.Handler {
	if fn == nil {
		return NoopHandler{}
	}
	return &lineHandler{min: min, fn: fn}
}

func (h *lineHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.min
}

func (h *lineHandler) Handle(_ context.Context, record slog.Record) error {
	var b strings.Builder
	b.WriteString(strings.TrimSpace(record.Message))
	var kvs []kv
	flattenAttrs(&kvs, nil, h.attrs)
	record.Attrs(func(attr slog.Attr) bool {
		flattenAttr(&kvs, nil, attr)
		return true
	})
	for _, kv := range dedupeKVsByKey(kvs) {
		if kv.key == FieldComponent || kv.key == FieldSessionID {
			continue
		}
		b.WriteByte(' ')
		b.WriteString(kv.key)
		b.WriteByte('=')
		b.WriteString(formatValue(kv.value))
	}
	h.fn(record.Level, b.String())
	return nil
}

func (h *lineHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &lineHandler{min: h.min, fn: h.fn, attrs: append(append([]slog.Attr(nil), h.attrs...), attrs...)}
}

func (h *lineHandler) WithGroup(string) slog.Handler {
	return h
}
