package testsupport

import (
	"path/filepath"
	"testing"

	"hexfm/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Account.LastfmUser = "listener"
	cfg.Account.LastfmAPIKey = "test"
	cfg.Account.PlexAccountID = 1
	cfg.Account.PlexLibrarySectionID = 1
	cfg.Account.PlexDBFile = filepath.Join(base, "plex", "com.plexapp.plugins.library.db")
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.APIBind = "127.0.0.1:0"

	for _, opt := range opts {
		opt(&cfg)
	}

	return &cfg
}

// WithLastfmBaseURL points the last.fm client at a test server.
func WithLastfmBaseURL(url string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Lastfm.BaseURL = url
	}
}

// WithPlexDBFile overrides the Plex database location on the test config.
func WithPlexDBFile(path string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Account.PlexDBFile = path
	}
}
