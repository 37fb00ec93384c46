// Package config loads, validates, and normalizes service configuration
// from TOML files with environment overrides for secrets.
package config
