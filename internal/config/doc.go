// Package config loads, normalizes, and validates mapwatch configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files plus an optional .env next to them, merges the
// YAML roster file, and honours environment fallbacks such as
// TWITCH_CLIENT_ID. The Config type centralizes every knob the poller, the
// dashboard and the CLI need.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
