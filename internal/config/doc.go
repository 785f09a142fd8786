// Package config loads, normalizes, and validates crnnprep configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment overrides such as
// CRNNPREP_LOG_LEVEL. The Config type centralizes every knob the conversion
// pipeline and CLI need: manifest encoding policy, discovery rules, the
// per-item error policy, character set emission, run history, and logging.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical enum values, and clear validation errors.
package config
