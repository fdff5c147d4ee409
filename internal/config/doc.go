// Package config loads and validates towlot's TOML configuration.
package config
