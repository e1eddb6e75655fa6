// Package config loads, normalizes, and validates meditate configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours MEDITATE_* environment overrides.
// The Config type centralizes every knob the render pipeline and CLI need:
// output/temp/state directories, the speech voice, ffmpeg settings, and the
// fade envelope.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
