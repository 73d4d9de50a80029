package testsupport

import (
	"path/filepath"
	"testing"

	"sleeperrecap/internal/config"
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
	cfgVal.Paths.OutputDir = filepath.Join(base, "recaps")
	cfgVal.Paths.CacheDir = filepath.Join(base, "cache")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.League.ID = "42"
	cfgVal.Providers.Perplexity.APIKey = "test"
	cfgVal.Providers.OpenAI.APIKey = "test"

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

// WithLeagueID overrides the default league id.
func WithLeagueID(id string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.League.ID = id
	}
}

// WithoutCredentials clears every provider API key.
func WithoutCredentials() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Providers.Perplexity.APIKey = ""
		b.cfg.Providers.OpenAI.APIKey = ""
	}
}

// WithSleeperURL points the Sleeper client at a test server.
func WithSleeperURL(url string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Sleeper.BaseURL = url
	}
}

// WithProviderURLs points both model providers at a test server.
func WithProviderURLs(url string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Providers.Perplexity.BaseURL = url
		b.cfg.Providers.OpenAI.BaseURL = url
	}
}

// WithFastRetry shrinks retry delays so failure paths run quickly.
func WithFastRetry() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Retry.BaseDelayMS = 1
		b.cfg.Retry.MaxDelayMS = 2
		b.cfg.Sleeper.MinIntervalMS = 0
		b.cfg.Providers.Perplexity.MinIntervalMS = 0
		b.cfg.Providers.OpenAI.MinIntervalMS = 0
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.OutputDir)
}
