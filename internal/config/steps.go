package config

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"sleeperrecap/internal/services"
)

// StepTarget is one provider/model attempt for a pipeline step.
type StepTarget struct {
	Provider string
	Model    string
}

func (t StepTarget) String() string {
	return t.Provider + ":" + t.Model
}

// StepTargets parses the ordered attempts configured for step.
func (c *Config) StepTargets(step string) ([]StepTarget, error) {
	var raw []string
	switch step {
	case StepResearch:
		raw = c.Steps.Research
	case StepPlan:
		raw = c.Steps.Plan
	case StepWrite:
		raw = c.Steps.Write
	case StepPatch:
		raw = c.Steps.Patch
	default:
		return nil, fmt.Errorf("steps: unknown step %q", step)
	}
	targets := make([]StepTarget, 0, len(raw))
	for _, entry := range raw {
		target, err := ParseStepTarget(entry)
		if err != nil {
			return nil, fmt.Errorf("steps.%s: %w", step, err)
		}
		targets = append(targets, target)
	}
	return targets, nil
}

// ParseStepTarget splits a "provider:model" entry.
func ParseStepTarget(entry string) (StepTarget, error) {
	provider, model, ok := strings.Cut(strings.TrimSpace(entry), ":")
	provider = strings.ToLower(strings.TrimSpace(provider))
	model = strings.TrimSpace(model)
	if !ok || provider == "" || model == "" {
		return StepTarget{}, fmt.Errorf("invalid entry %q (want provider:model)", entry)
	}
	switch provider {
	case ProviderPerplexity, ProviderOpenAI:
	default:
		return StepTarget{}, fmt.Errorf("unknown provider %q in %q", provider, entry)
	}
	return StepTarget{Provider: provider, Model: model}, nil
}

// ProviderSettings returns the connection settings for a provider name.
func (c *Config) ProviderSettings(name string) (Provider, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case ProviderPerplexity:
		return c.Providers.Perplexity, true
	case ProviderOpenAI:
		return c.Providers.OpenAI, true
	default:
		return Provider{}, false
	}
}

// RequireCredentials reports a configuration error when any provider referenced
// by the given steps has no API key. Call it before the first network request.
func (c *Config) RequireCredentials(steps ...string) error {
	missing := map[string]struct{}{}
	for _, step := range steps {
		targets, err := c.StepTargets(step)
		if err != nil {
			return services.Wrap(services.ErrConfiguration, "config", "steps", "", err)
		}
		for _, target := range targets {
			settings, _ := c.ProviderSettings(target.Provider)
			if settings.APIKey == "" {
				missing[target.Provider] = struct{}{}
			}
		}
	}
	if len(missing) == 0 {
		return nil
	}
	names := make([]string, 0, len(missing))
	for name := range missing {
		names = append(names, name)
	}
	sort.Strings(names)
	hints := make([]string, 0, len(names))
	for _, name := range names {
		hints = append(hints, fmt.Sprintf("%s (set %s or providers.%s.api_key)", name, envKeyFor(name), name))
	}
	return services.Wrap(services.ErrConfiguration, "config", "credentials",
		"missing API key for "+strings.Join(hints, ", "), nil)
}

func envKeyFor(provider string) string {
	switch provider {
	case ProviderPerplexity:
		return "PERPLEXITY_API_KEY"
	case ProviderOpenAI:
		return "OPENAI_API_KEY"
	default:
		return strings.ToUpper(provider) + "_API_KEY"
	}
}

// MinInterval returns the configured spacing between consecutive calls to a provider.
func (p Provider) MinInterval() time.Duration {
	return time.Duration(p.MinIntervalMS) * time.Millisecond
}

// Timeout returns the per-request timeout for a provider.
func (p Provider) Timeout() time.Duration {
	return time.Duration(p.TimeoutSeconds) * time.Second
}

// BaseDelay returns the first backoff delay.
func (r Retry) BaseDelay() time.Duration {
	return time.Duration(r.BaseDelayMS) * time.Millisecond
}

// MaxDelay returns the backoff ceiling.
func (r Retry) MaxDelay() time.Duration {
	return time.Duration(r.MaxDelayMS) * time.Millisecond
}
