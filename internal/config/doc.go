// Package config loads, normalizes, and validates mokuro configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// MOKURO_OCR_URL. The Config type centralizes every knob the CLI needs, from
// the OCR service endpoint to the viewer defaults stamped into generated
// artifacts.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
