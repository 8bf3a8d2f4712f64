// Package config loads, normalizes, and validates the TOML configuration
// that every pipeline component receives at construction.
package config
