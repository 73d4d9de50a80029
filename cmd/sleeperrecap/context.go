package main

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"sleeperrecap/internal/config"
	"sleeperrecap/internal/logging"
	"sleeperrecap/internal/services"
	"sleeperrecap/internal/truth"
)

type commandContext struct {
	configFlag *string
	verbose    *bool

	configOnce sync.Once
	config     *config.Config
	configPath string
	configErr  error

	loggerOnce sync.Once
	log        *slog.Logger
}

func newCommandContext(configFlag *string, verbose *bool) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		verbose:    verbose,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, resolved, _, err := config.Load(path)
		if err != nil {
			c.configErr = services.Wrap(services.ErrConfiguration, "cli", "load config", "", err)
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = services.Wrap(services.ErrConfiguration, "cli", "ensure directories", "", err)
			return
		}
		c.config = cfg
		c.configPath = resolved
	})
	return c.config, c.configErr
}

// logger builds the run logger once: console output on stderr plus a JSON
// run log under the configured log directory.
func (c *commandContext) logger() *slog.Logger {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil || cfg == nil {
			c.log = logging.NewNop()
			return
		}
		level := cfg.Logging.Level
		if c.verbose != nil && *c.verbose {
			level = "debug"
		}
		logName := logging.RunLogName(time.Now())
		logger, err := logging.New(logging.Options{
			Level:       level,
			Format:      cfg.Logging.Format,
			OutputPaths: []string{"stderr"},
			JSONFile:    filepath.Join(cfg.Paths.LogDir, logName),
		})
		if err != nil {
			c.log = logging.NewNop()
			return
		}
		logging.CleanupOldLogs(logger, cfg.Paths.LogDir, "sleeperrecap-*.log", logName, cfg.Logging.RetentionDays)
		c.log = logger
	})
	return c.log
}

// weekFlags are the league/season/week selectors shared by week commands.
type weekFlags struct {
	week     int
	season   int
	leagueID string
}

func (f *weekFlags) register(cmd *cobra.Command, persistent bool) {
	flags := cmd.Flags()
	if persistent {
		flags = cmd.PersistentFlags()
	}
	flags.IntVarP(&f.week, "week", "w", 0, "NFL week (1-18)")
	flags.IntVar(&f.season, "season", 0, "Season year (defaults to the current season)")
	flags.StringVar(&f.leagueID, "league-id", "", "Sleeper league id (defaults to the configured league)")
}

type weekSelection struct {
	LeagueID string
	Season   int
	Week     int
}

func (f *weekFlags) resolve(cfg *config.Config, now time.Time) (weekSelection, error) {
	sel := weekSelection{
		LeagueID: cfg.ResolveLeagueID(f.leagueID),
		Season:   f.season,
		Week:     f.week,
	}
	if sel.LeagueID == "" {
		return sel, services.Wrap(services.ErrConfiguration, "cli", "resolve league",
			"no league id configured; pass --league-id or run `sleeperrecap league set <id>`", nil)
	}
	if sel.Week < 1 || sel.Week > 18 {
		return sel, services.Wrap(services.ErrValidation, "cli", "resolve week",
			fmt.Sprintf("--week must be between 1 and 18 (got %d)", sel.Week), nil)
	}
	if sel.Season == 0 {
		sel.Season = truth.CurrentSeason(now, cfg.Location())
	}
	return sel, nil
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
