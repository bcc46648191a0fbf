// Package config loads, normalizes, and validates platen configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts and network share syntax), reads TOML files, and centralizes every
// knob the daemon and CLI need: drop-folder locations, pipeline timing and
// retry policy, stamp and imposition geometry, and print sink behaviour.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
