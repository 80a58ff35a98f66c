// Package config loads, normalizes, and validates hexfm configuration.
//
// Configuration lives in a TOML file. The account section replaces the
// singleton account row other scrobble importers keep in their database:
// components receive account values explicitly instead of reaching into
// ambient state. Load applies defaults, expands paths, and validates, so the
// rest of the program can treat the returned Config as trusted input.
package config
