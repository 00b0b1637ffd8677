// Package config loads, normalizes, and validates beatframe configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// BEATFRAME_FFMPEG. The Config type centralizes every knob the CLI needs:
// beat detection tuning, slideshow pacing, export encoding, the preview
// server bind address, and the analysis cache location.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
