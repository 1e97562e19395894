// Package config loads and validates the hbwrap TOML configuration file.
package config
