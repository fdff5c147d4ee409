package testsupport

import (
	"path/filepath"
	"testing"

	"towlot/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.DocumentsDir = filepath.Join(base, "documents")

	for _, opt := range opts {
		opt(&cfg)
	}

	return &cfg
}

// WithPushEndpoint sets the outbound notification endpoint on the test config.
func WithPushEndpoint(endpoint string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Notifications.PushEndpoint = endpoint
	}
}

// WithDispositionRoute overrides the default route taken when an owner
// response deadline lapses.
func WithDispositionRoute(route string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Lifecycle.DefaultDispositionRoute = route
	}
}
