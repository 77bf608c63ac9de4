// Package config loads, normalizes, and validates animethreads configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// ANIMETHREADS_USER_AGENT. The Config type centralizes the matcher thresholds,
// archive settings, refresh circuit breaker, and upstream API endpoints so every
// command receives the same sanitized values.
package config
