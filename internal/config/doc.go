// Package config loads, normalizes, and validates sitepix configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// SITEPIX_PHOTOS_DIR. The Config type centralizes the size policy, format
// conversion settings, responsive variant boxes, and logging knobs so every
// command resolves them in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical extensions, and clear validation errors.
package config
