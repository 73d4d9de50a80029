package llm

import (
	"fmt"
	"log/slog"

	"sleeperrecap/internal/config"
	"sleeperrecap/internal/services"
)

// Registry resolves step mappings into chains. One pacer is shared per
// provider so spacing holds across steps.
type Registry struct {
	cfg       *config.Config
	providers map[string]Provider
	pacers    map[string]*Pacer
	policy    RetryPolicy
	meter     *Meter
	logger    *slog.Logger
}

// RegistryOption customizes a Registry.
type RegistryOption func(*Registry)

// WithProvider replaces the provider registered under p.Name().
func WithProvider(p Provider) RegistryOption {
	return func(r *Registry) {
		if p != nil {
			r.providers[p.Name()] = p
		}
	}
}

// WithRetryPolicy overrides the policy derived from config.
func WithRetryPolicy(policy RetryPolicy) RegistryOption {
	return func(r *Registry) {
		r.policy = policy
	}
}

// WithPacer overrides the pacer used for a provider.
func WithPacer(provider string, pacer *Pacer) RegistryOption {
	return func(r *Registry) {
		r.pacers[provider] = pacer
	}
}

// NewRegistry builds the configured providers.
func NewRegistry(cfg *config.Config, logger *slog.Logger, opts ...RegistryOption) *Registry {
	pplx := cfg.Providers.Perplexity
	oai := cfg.Providers.OpenAI
	r := &Registry{
		cfg: cfg,
		providers: map[string]Provider{
			config.ProviderPerplexity: NewChatClient(ChatConfig{
				Name:          config.ProviderPerplexity,
				APIKey:        pplx.APIKey,
				BaseURL:       pplx.BaseURL,
				Timeout:       pplx.Timeout(),
				SearchDomains: pplx.SearchDomains,
				SearchRecency: pplx.SearchRecency,
			}),
			config.ProviderOpenAI: NewOpenAIProvider(OpenAIConfig{
				APIKey:  oai.APIKey,
				BaseURL: oai.BaseURL,
				Timeout: oai.Timeout(),
			}),
		},
		pacers: map[string]*Pacer{
			config.ProviderPerplexity: NewPacer(pplx.MinInterval()),
			config.ProviderOpenAI:     NewPacer(oai.MinInterval()),
		},
		policy: RetryPolicy{
			MaxAttempts: cfg.Retry.MaxAttempts,
			BaseDelay:   cfg.Retry.BaseDelay(),
			MaxDelay:    cfg.Retry.MaxDelay(),
		},
		meter:  &Meter{},
		logger: logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Chain returns the fallback chain configured for step.
func (r *Registry) Chain(step string) (*Chain, error) {
	targets, err := r.cfg.StepTargets(step)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, step, "resolve chain", "", err)
	}
	attempts := make([]Attempt, 0, len(targets))
	for _, target := range targets {
		provider, ok := r.providers[target.Provider]
		if !ok {
			return nil, services.Wrap(services.ErrConfiguration, step, "resolve chain",
				fmt.Sprintf("provider %q is not registered", target.Provider), nil)
		}
		attempts = append(attempts, Attempt{Provider: provider, Model: target.Model, Pacer: r.pacers[target.Provider]})
	}
	return NewChain(step, attempts, r.policy, r.meter, r.logger), nil
}

// Meter returns the run-wide cost meter shared by every chain.
func (r *Registry) Meter() *Meter { return r.meter }

// Policy returns the shared retry policy.
func (r *Registry) Policy() RetryPolicy { return r.policy }
