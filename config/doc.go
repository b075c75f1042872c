// Package config loads and validates the service configuration from
// defaults, an optional YAML file, and environment overrides.
package config
