package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Validate ensures the configuration is usable. Credentials are checked
// separately by RequireCredentials so offline commands keep working without
// provider keys.
func (c *Config) Validate() error {
	if err := c.validateLeague(); err != nil {
		return err
	}
	if err := c.validateSleeper(); err != nil {
		return err
	}
	if err := c.validateSteps(); err != nil {
		return err
	}
	if err := c.validateRetry(); err != nil {
		return err
	}
	if err := c.validateAudit(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateNotifications() error {
	if c.Notifications.RequestTimeoutSeconds < 0 {
		return errors.New("notifications.request_timeout_seconds must be >= 0")
	}
	topic := c.Notifications.NtfyTopic
	if topic != "" && !strings.HasPrefix(topic, "http://") && !strings.HasPrefix(topic, "https://") {
		return fmt.Errorf("notifications.ntfy_topic: %q must be an http(s) URL", topic)
	}
	return nil
}

func (c *Config) validateLeague() error {
	if _, err := time.LoadLocation(c.League.Timezone); err != nil {
		return fmt.Errorf("league.timezone: unknown zone %q", c.League.Timezone)
	}
	return nil
}

func (c *Config) validateSleeper() error {
	if c.Sleeper.TimeoutSeconds <= 0 {
		return errors.New("sleeper.timeout_seconds must be positive")
	}
	if c.Sleeper.PlayersTTLHours <= 0 {
		return errors.New("sleeper.players_ttl_hours must be positive")
	}
	if c.Sleeper.MinIntervalMS < 0 {
		return errors.New("sleeper.min_interval_ms must be >= 0")
	}
	if c.Providers.Perplexity.MinIntervalMS < 0 || c.Providers.OpenAI.MinIntervalMS < 0 {
		return errors.New("providers.*.min_interval_ms must be >= 0")
	}
	return nil
}

func (c *Config) validateSteps() error {
	for _, step := range []string{StepResearch, StepPlan, StepWrite, StepPatch} {
		targets, err := c.StepTargets(step)
		if err != nil {
			return err
		}
		if len(targets) == 0 {
			return fmt.Errorf("steps.%s must list at least one provider:model entry", step)
		}
	}
	return nil
}

func (c *Config) validateRetry() error {
	if c.Retry.MaxAttempts < 1 {
		return errors.New("retry.max_attempts must be at least 1")
	}
	if c.Retry.BaseDelayMS < 0 || c.Retry.MaxDelayMS < 0 {
		return errors.New("retry delays must be >= 0")
	}
	if c.Retry.MaxDelayMS > 0 && c.Retry.BaseDelayMS > c.Retry.MaxDelayMS {
		return errors.New("retry.base_delay_ms must not exceed retry.max_delay_ms")
	}
	return nil
}

func (c *Config) validateAudit() error {
	if c.Audit.ScoreTolerance < 0 {
		return errors.New("audit.score_tolerance must be >= 0")
	}
	if c.Audit.MinWords < 0 || c.Audit.MaxWords < 0 {
		return errors.New("audit word bounds must be >= 0")
	}
	if c.Audit.MaxWords > 0 && c.Audit.MinWords > c.Audit.MaxWords {
		return errors.New("audit.min_words must not exceed audit.max_words")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch strings.ToLower(c.Logging.Format) {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	if c.Logging.RetentionDays < 0 {
		return errors.New("logging.retention_days must be >= 0")
	}
	return nil
}
