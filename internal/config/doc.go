// Package config loads, normalizes, and validates collator's TOML
// configuration. All path fields are expanded (home directory and environment
// variables) before any other package sees them, so consumers can treat the
// resulting Config as absolute and ready to use.
package config
