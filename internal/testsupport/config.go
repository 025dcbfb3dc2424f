package testsupport

import (
	"path/filepath"
	"testing"

	"sitepix/internal/config"
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
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.Paths.PhotosDir = filepath.Join(base, "photos")
	cfgVal.Paths.PublishDir = filepath.Join(base, "public")
	// Fast encodes keep the suite quick; output sizes stay deterministic.
	cfgVal.Optimize.WebPMethod = 0

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithMaxSizeKB overrides the byte budget on the test config.
func WithMaxSizeKB(kb int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Optimize.MaxSizeKB = kb
	}
}

// WithMaxDimension overrides the dimension cap on the test config.
func WithMaxDimension(px int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Optimize.MaxDimension = px
	}
}

// WithArchiveDir routes converted sources into an archive directory under the base dir.
func WithArchiveDir() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Paths.ArchiveDir = filepath.Join(b.baseDir, "archive")
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.StateDir)
}
