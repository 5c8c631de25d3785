// Package config handles configuration loading, parsing, and validation
// from various sources (environment variables, .env files, config files). It
// provides type-safe access to the settings needed by the daemon and the
// terminal client while keeping configuration details separate from the
// scheduling and import logic.
package config
