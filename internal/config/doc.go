// Package config loads, normalizes, and validates dubber configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// GEMINI_API_KEY, OPENAI_API_KEY, and MINIO_ACCESS_KEY. The Config type
// centralizes every knob the pipeline and CLI need.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, expanded defaults, and clear validation errors.
package config
