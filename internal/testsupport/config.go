package testsupport

import (
	"path/filepath"
	"testing"

	"cardscan/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Store.Path = filepath.Join(base, "data", "cardscan.db")

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	if err := builder.cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return builder.cfg
}

// WithStoreDisabled turns off scan persistence on the test config.
func WithStoreDisabled() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Store.Enabled = false
	}
}

// WithMatching replaces the matching thresholds on the test config.
func WithMatching(m config.Matching) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Matching = m
	}
}

// WithWarpSize overrides the normalized face size.
func WithWarpSize(width, height int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Warp = config.Warp{Width: width, Height: height}
	}
}
