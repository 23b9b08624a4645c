package testsupport

import (
	"path/filepath"
	"testing"

	"collator/internal/config"
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
	cfg.Paths.StoreRoot = filepath.Join(base, "store")
	cfg.Paths.SpoolDir = filepath.Join(base, "spool")
	cfg.API.Bind = "127.0.0.1:0"
	cfg.IPC.SocketPath = filepath.Join(base, "collatord.sock")
	cfg.Notifications.NtfyTopic = ""

	for _, opt := range opts {
		opt(&cfg)
	}

	return &cfg
}

// WithNtfyTopic points notifications at the provided topic URL.
func WithNtfyTopic(topic string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Notifications.NtfyTopic = topic
	}
}

// WithoutSpool disables spool-directory intake on the test config.
func WithoutSpool() ConfigOption {
	return func(cfg *config.Config) {
		cfg.Paths.SpoolDir = ""
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.DataDir)
}
