package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	OutputDir string `toml:"output_dir"`
	CacheDir  string `toml:"cache_dir"`
	LogDir    string `toml:"log_dir"`
	StateDir  string `toml:"state_dir"`
}

// League identifies the default Sleeper league and the timezone used to
// derive the current season.
type League struct {
	ID       string `toml:"id"`
	Timezone string `toml:"timezone"`
}

// Sleeper contains configuration for the Sleeper public API.
type Sleeper struct {
	BaseURL         string `toml:"base_url"`
	TimeoutSeconds  int    `toml:"timeout_seconds"`
	PlayersTTLHours int    `toml:"players_ttl_hours"`
	MinIntervalMS   int    `toml:"min_interval_ms"`
}

// Provider holds connection settings for one model provider.
type Provider struct {
	APIKey         string   `toml:"api_key"`
	BaseURL        string   `toml:"base_url"`
	TimeoutSeconds int      `toml:"timeout_seconds"`
	MinIntervalMS  int      `toml:"min_interval_ms"`
	SearchDomains  []string `toml:"search_domains"`
	SearchRecency  string   `toml:"search_recency"`
}

// Providers groups the model providers the pipeline can route steps to.
type Providers struct {
	Perplexity Provider `toml:"perplexity"`
	OpenAI     Provider `toml:"openai"`
}

// Steps maps each model-backed pipeline step to an ordered list of
// "provider:model" attempts. The first entry is primary; the rest are
// fallbacks tried in order.
type Steps struct {
	Research []string `toml:"research"`
	Plan     []string `toml:"plan"`
	Write    []string `toml:"write"`
	Patch    []string `toml:"patch"`
}

// Retry is the shared retry policy applied to every external call.
type Retry struct {
	MaxAttempts int `toml:"max_attempts"`
	BaseDelayMS int `toml:"base_delay_ms"`
	MaxDelayMS  int `toml:"max_delay_ms"`
}

// Audit contains thresholds for the deterministic recap audit.
type Audit struct {
	ScoreTolerance float64 `toml:"score_tolerance"`
	MinWords       int     `toml:"min_words"`
	MaxWords       int     `toml:"max_words"`
	StyleChecks    bool    `toml:"style_checks"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Notifications configures ntfy delivery of run outcomes. An empty topic
// disables notifications.
type Notifications struct {
	NtfyTopic             string `toml:"ntfy_topic"`
	RequestTimeoutSeconds int    `toml:"request_timeout_seconds"`
}

// Config encapsulates all configuration values for sleeperrecap.
//
// Configuration sections by subsystem:
//   - Paths: recap output, caches, logs, and the run ledger
//   - League: default league id and season timezone
//   - Sleeper: public API endpoint and players database cache
//   - Providers: research and generation model credentials
//   - Steps: step to provider/model routing with fallbacks
//   - Retry: shared backoff policy
//   - Audit: recap verification thresholds
//   - Logging: log format and level
//   - Notifications: optional ntfy topic for run outcomes
type Config struct {
	Paths     Paths     `toml:"paths"`
	League    League    `toml:"league"`
	Sleeper   Sleeper   `toml:"sleeper"`
	Providers Providers `toml:"providers"`
	Steps     Steps     `toml:"steps"`
	Retry     Retry     `toml:"retry"`
	Audit     Audit     `toml:"audit"`
	Logging   Logging   `toml:"logging"`

	Notifications Notifications `toml:"notifications"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/sleeperrecap/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("sleeperrecap.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories a pipeline run writes into.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.OutputDir, c.Paths.CacheDir, c.Paths.LogDir, c.Paths.StateDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// Location returns the timezone used for season arithmetic.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.League.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// SleeperTimeout returns the per-request timeout for the Sleeper API.
func (c *Config) SleeperTimeout() time.Duration {
	return time.Duration(c.Sleeper.TimeoutSeconds) * time.Second
}

// PlayersTTL returns how long the cached players database stays fresh.
func (c *Config) PlayersTTL() time.Duration {
	return time.Duration(c.Sleeper.PlayersTTLHours) * time.Hour
}

// NtfyTimeout returns the per-request timeout for ntfy deliveries.
func (c *Config) NtfyTimeout() time.Duration {
	return time.Duration(c.Notifications.RequestTimeoutSeconds) * time.Second
}

// HistoryPath returns the location of the SQLite run ledger.
func (c *Config) HistoryPath() string {
	return filepath.Join(c.Paths.StateDir, "history.db")
}

// ResolveLeagueID picks the league for a run: an explicit override wins over
// the configured default (which already includes the SLEEPER_LEAGUE_ID
// fallback).
func (c *Config) ResolveLeagueID(override string) string {
	if v := strings.TrimSpace(override); v != "" {
		return v
	}
	return strings.TrimSpace(c.League.ID)
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
