// Package config loads, normalizes, and validates cuetrack configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment overrides such as
// CUETRACK_LOG_LEVEL. The Config type centralizes the polling, fetch, and
// playback knobs the transcript session and CLI need.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, positive intervals, and clear validation errors.
package config
