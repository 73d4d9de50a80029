package config

const (
	defaultOutputDir             = "~/.local/share/sleeperrecap/recaps"
	defaultCacheDir              = "~/.cache/sleeperrecap"
	defaultLogDir                = "~/.local/share/sleeperrecap/logs"
	defaultStateDir              = "~/.local/share/sleeperrecap"
	defaultTimezone              = "America/New_York"
	defaultSleeperBaseURL        = "https://api.sleeper.app/v1"
	defaultSleeperTimeoutSeconds = 30
	defaultPlayersTTLHours       = 24 * 7
	defaultPerplexityBaseURL     = "https://api.perplexity.ai"
	defaultPerplexityInterval    = 2000
	defaultPerplexityRecency     = "week"
	defaultOpenAIBaseURL         = "https://api.openai.com/v1"
	defaultOpenAIInterval        = 1500
	defaultProviderTimeout       = 120
	defaultRetryMaxAttempts      = 3
	defaultRetryBaseDelayMS      = 1000
	defaultRetryMaxDelayMS       = 10000
	defaultScoreTolerance        = 0.5
	defaultMinWords              = 900
	defaultMaxWords              = 1500
	defaultLogFormat             = "console"
	defaultLogLevel              = "info"
	defaultLogRetentionDays      = 30
	defaultNtfyTimeoutSeconds    = 10
)

// Step identifiers used by the step mapping and the on-disk cache.
const (
	StepResearch = "research"
	StepPlan     = "plan"
	StepWrite    = "write"
	StepPatch    = "patch"
)

// Provider identifiers accepted in step mappings.
const (
	ProviderPerplexity = "perplexity"
	ProviderOpenAI     = "openai"
)

var defaultSearchDomains = []string{"espn.com", "nfl.com", "fantasypros.com", "thescore.com"}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			OutputDir: defaultOutputDir,
			CacheDir:  defaultCacheDir,
			LogDir:    defaultLogDir,
			StateDir:  defaultStateDir,
		},
		League: League{
			Timezone: defaultTimezone,
		},
		Sleeper: Sleeper{
			BaseURL:         defaultSleeperBaseURL,
			TimeoutSeconds:  defaultSleeperTimeoutSeconds,
			PlayersTTLHours: defaultPlayersTTLHours,
		},
		Providers: Providers{
			Perplexity: Provider{
				BaseURL:        defaultPerplexityBaseURL,
				TimeoutSeconds: defaultProviderTimeout,
				MinIntervalMS:  defaultPerplexityInterval,
				SearchDomains:  append([]string(nil), defaultSearchDomains...),
				SearchRecency:  defaultPerplexityRecency,
			},
			OpenAI: Provider{
				BaseURL:        defaultOpenAIBaseURL,
				TimeoutSeconds: defaultProviderTimeout,
				MinIntervalMS:  defaultOpenAIInterval,
			},
		},
		Steps: Steps{
			Research: []string{"perplexity:sonar", "perplexity:sonar-mini"},
			Plan:     []string{"openai:gpt-5", "openai:gpt-4o"},
			Write:    []string{"openai:gpt-5", "openai:gpt-4o"},
			Patch:    []string{"openai:gpt-5"},
		},
		Retry: Retry{
			MaxAttempts: defaultRetryMaxAttempts,
			BaseDelayMS: defaultRetryBaseDelayMS,
			MaxDelayMS:  defaultRetryMaxDelayMS,
		},
		Audit: Audit{
			ScoreTolerance: defaultScoreTolerance,
			MinWords:       defaultMinWords,
			MaxWords:       defaultMaxWords,
			StyleChecks:    false,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
		Notifications: Notifications{
			RequestTimeoutSeconds: defaultNtfyTimeoutSeconds,
		},
	}
}
