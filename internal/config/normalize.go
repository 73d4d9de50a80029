package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeLeague()
	c.normalizeSleeper()
	c.normalizeProviders()
	c.normalizeSteps()
	c.normalizeLogging()
	c.normalizeNotifications()
	return nil
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeoutSeconds == 0 {
		c.Notifications.RequestTimeoutSeconds = defaultNtfyTimeoutSeconds
	}
}

func (c *Config) normalizePaths() error {
	defaults := map[*string]string{
		&c.Paths.OutputDir: defaultOutputDir,
		&c.Paths.CacheDir:  defaultCacheDir,
		&c.Paths.LogDir:    defaultLogDir,
		&c.Paths.StateDir:  defaultStateDir,
	}
	for field, fallback := range defaults {
		if strings.TrimSpace(*field) == "" {
			*field = fallback
		}
	}
	var err error
	if c.Paths.OutputDir, err = expandPath(c.Paths.OutputDir); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if c.Paths.CacheDir, err = expandPath(c.Paths.CacheDir); err != nil {
		return fmt.Errorf("paths.cache_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeLeague() {
	c.League.ID = strings.TrimSpace(c.League.ID)
	if c.League.ID == "" {
		if value, ok := os.LookupEnv("SLEEPER_LEAGUE_ID"); ok {
			c.League.ID = strings.TrimSpace(value)
		}
	}
	c.League.Timezone = strings.TrimSpace(c.League.Timezone)
	if c.League.Timezone == "" {
		c.League.Timezone = defaultTimezone
	}
}

func (c *Config) normalizeSleeper() {
	c.Sleeper.BaseURL = strings.TrimRight(strings.TrimSpace(c.Sleeper.BaseURL), "/")
	if c.Sleeper.BaseURL == "" {
		c.Sleeper.BaseURL = defaultSleeperBaseURL
	}
}

func (c *Config) normalizeProviders() {
	normalizeProvider(&c.Providers.Perplexity, "PERPLEXITY_API_KEY", defaultPerplexityBaseURL)
	normalizeProvider(&c.Providers.OpenAI, "OPENAI_API_KEY", defaultOpenAIBaseURL)
	c.Providers.Perplexity.SearchRecency = strings.ToLower(strings.TrimSpace(c.Providers.Perplexity.SearchRecency))
	domains := c.Providers.Perplexity.SearchDomains[:0]
	for _, domain := range c.Providers.Perplexity.SearchDomains {
		if d := strings.ToLower(strings.TrimSpace(domain)); d != "" {
			domains = append(domains, d)
		}
	}
	c.Providers.Perplexity.SearchDomains = domains
}

func normalizeProvider(p *Provider, envKey, defaultBaseURL string) {
	p.APIKey = strings.TrimSpace(p.APIKey)
	if p.APIKey == "" {
		if value, ok := os.LookupEnv(envKey); ok {
			p.APIKey = strings.TrimSpace(value)
		}
	}
	p.BaseURL = strings.TrimRight(strings.TrimSpace(p.BaseURL), "/")
	if p.BaseURL == "" {
		p.BaseURL = defaultBaseURL
	}
	if p.TimeoutSeconds <= 0 {
		p.TimeoutSeconds = defaultProviderTimeout
	}
}

func (c *Config) normalizeSteps() {
	c.Steps.Research = trimEntries(c.Steps.Research)
	c.Steps.Plan = trimEntries(c.Steps.Plan)
	c.Steps.Write = trimEntries(c.Steps.Write)
	c.Steps.Patch = trimEntries(c.Steps.Patch)
	if len(c.Steps.Patch) == 0 {
		c.Steps.Patch = append([]string(nil), c.Steps.Write...)
	}
}

func trimEntries(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
