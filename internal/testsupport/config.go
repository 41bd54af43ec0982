package testsupport

import (
	"path/filepath"
	"testing"

	"github.com/Kanjirito/mokuro/internal/config"
)

// ConfigOption mutates the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")

	for _, opt := range opts {
		opt(&cfg)
	}
	return &cfg
}

// WithOCRBaseURL points the test config at a stub inference server.
func WithOCRBaseURL(url string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.OCR.BaseURL = url
	}
}
