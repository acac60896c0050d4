// Package logging assembles structured slog loggers and formatting helpers used
// across cuetrack packages.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing, and exposes helpers so session code can tag log lines with the
// transcript session identifier and caption source. The package also provides
// a no-op logger for tests and wiring code that cannot fail.
//
// Prefer these constructors over hand-rolled slog setup so every component
// emits records with the same shape.
package logging
