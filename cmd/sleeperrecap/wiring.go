package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"time"

	"sleeperrecap/internal/audit"
	"sleeperrecap/internal/config"
	"sleeperrecap/internal/evidence"
	"sleeperrecap/internal/history"
	"sleeperrecap/internal/logging"
	"sleeperrecap/internal/pipeline"
	"sleeperrecap/internal/planner"
	"sleeperrecap/internal/services"
	"sleeperrecap/internal/services/llm"
	"sleeperrecap/internal/sleeper"
	"sleeperrecap/internal/stepcache"
	"sleeperrecap/internal/truth"
	"sleeperrecap/internal/writer"
)

const playersCacheFile = "players_nfl.json"

func newSleeperClient(cfg *config.Config, logger *slog.Logger) *sleeper.Client {
	return sleeper.New(cfg.Sleeper.BaseURL,
		sleeper.WithHTTPClient(&http.Client{Timeout: cfg.SleeperTimeout()}),
		sleeper.WithRetryPolicy(llm.RetryPolicy{
			MaxAttempts: cfg.Retry.MaxAttempts,
			BaseDelay:   cfg.Retry.BaseDelay(),
			MaxDelay:    cfg.Retry.MaxDelay(),
		}),
		sleeper.WithPacer(llm.NewPacer(time.Duration(cfg.Sleeper.MinIntervalMS)*time.Millisecond)),
		sleeper.WithLogger(logger),
	)
}

func newPlayerCache(cfg *config.Config, client *sleeper.Client, logger *slog.Logger) *sleeper.PlayerCache {
	return sleeper.NewPlayerCache(filepath.Join(cfg.Paths.CacheDir, playersCacheFile), cfg.PlayersTTL(), client, logger)
}

func newTruthBuilder(cfg *config.Config, logger *slog.Logger) *truth.Builder {
	client := newSleeperClient(cfg, logger)
	return truth.NewBuilder(client, newPlayerCache(cfg, client, logger), logger)
}

func newAuditor(cfg *config.Config, logger *slog.Logger) *audit.Auditor {
	return audit.New(audit.Options{
		Tolerance:   cfg.Audit.ScoreTolerance,
		MinWords:    cfg.Audit.MinWords,
		MaxWords:    cfg.Audit.MaxWords,
		StyleChecks: cfg.Audit.StyleChecks,
	}, logger)
}

// recapApp is a fully wired pipeline plus the resources it owns.
type recapApp struct {
	pipeline *pipeline.Pipeline
	registry *llm.Registry
	history  *history.Store
}

func (a *recapApp) Close() error {
	if a == nil || a.history == nil {
		return nil
	}
	return a.history.Close()
}

func buildRecapApp(cfg *config.Config, logger *slog.Logger, outputDir string, withHistory bool, opts ...llm.RegistryOption) (*recapApp, error) {
	registry := llm.NewRegistry(cfg, logger, opts...)
	chains := make(map[string]*llm.Chain, 4)
	for _, step := range []string{config.StepResearch, config.StepPlan, config.StepWrite, config.StepPatch} {
		chain, err := registry.Chain(step)
		if err != nil {
			return nil, err
		}
		chains[step] = chain
	}

	deps := pipeline.Deps{
		Truth:     newTruthBuilder(cfg, logger),
		Evidence:  evidence.NewGatherer(chains[config.StepResearch], logger),
		Planner:   planner.New(chains[config.StepPlan], cfg.Audit.MinWords, cfg.Audit.MaxWords, logger),
		Writer:    writer.New(chains[config.StepWrite], chains[config.StepPatch], cfg.Audit.MinWords, cfg.Audit.MaxWords, logger),
		Auditor:   newAuditor(cfg, logger),
		Meter:     registry.Meter(),
		OutputDir: outputDir,
		Logger:    logger,
	}

	app := &recapApp{registry: registry}
	if withHistory {
		store, err := history.Open(cfg.HistoryPath())
		if err != nil {
			return nil, fmt.Errorf("open history: %w", err)
		}
		app.history = store
		deps.Ledger = store
	}

	p, err := pipeline.New(deps)
	if err != nil {
		_ = app.Close()
		return nil, err
	}
	app.pipeline = p
	return app, nil
}

// cachedWeek is what offline commands read back from a week directory.
type cachedWeek struct {
	Dir      string
	Truth    *truth.Record
	Evidence *evidence.Record
	Article  string
	Report   *audit.Report
}

// loadCachedWeek reads a week's artifacts without taking the run lock. The
// recap is only required when needArticle is set.
func missingRecap(dir string, week int) error {
	return services.Wrap(services.ErrNotFound, "cli", "load recap",
		fmt.Sprintf("no cached recap in %s; run `sleeperrecap week-recap --week %d` first", dir, week), nil)
}

func loadCachedWeek(cfg *config.Config, sel weekSelection, needArticle bool, logger *slog.Logger) (*cachedWeek, error) {
	view, err := stepcache.View(cfg.Paths.OutputDir, sel.LeagueID, sel.Season, sel.Week, logger)
	if err != nil {
		return nil, err
	}
	if needArticle && !view.Has(stepcache.FileRecap) {
		return nil, missingRecap(view.Dir(), sel.Week)
	}
	out := &cachedWeek{Dir: view.Dir()}

	var record truth.Record
	ok, err := view.LoadJSON(stepcache.FileTruth, &record)
	if err != nil {
		return nil, err
	}
	if ok {
		out.Truth = &record
	}

	var ev evidence.Record
	if ok, err := view.LoadJSON(stepcache.FileEvidence, &ev); err != nil {
		return nil, err
	} else if ok {
		out.Evidence = &ev
	}

	var report audit.Report
	if ok, err := view.LoadJSON(stepcache.FileAudit, &report); err != nil {
		return nil, err
	} else if ok {
		out.Report = &report
	}

	article, ok, err := view.LoadText(stepcache.FileRecap)
	if err != nil {
		return nil, err
	}
	out.Article = article
	if needArticle && !ok {
		return nil, missingRecap(view.Dir(), sel.Week)
	}
	if needArticle && out.Truth == nil {
		return nil, services.Wrap(services.ErrNotFound, "cli", "load truth",
			fmt.Sprintf("no cached truth in %s", view.Dir()), nil)
	}
	return out, nil
}

// truthForWeek prefers the cached truth and falls back to building it from
// the Sleeper API.
func truthForWeek(ctx context.Context, cfg *config.Config, sel weekSelection, logger *slog.Logger) (*truth.Record, error) {
	cached, err := loadCachedWeek(cfg, sel, false, logger)
	switch {
	case err == nil && cached.Truth != nil:
		return cached.Truth, nil
	case err != nil && !errors.Is(err, services.ErrNotFound):
		return nil, err
	}
	logger.Info("no cached truth; fetching from sleeper",
		logging.String(logging.FieldEventType, "truth_fetch"),
		logging.String("league_id", sel.LeagueID),
		logging.Int("season", sel.Season),
		logging.Int("week", sel.Week),
	)
	return newTruthBuilder(cfg, logger).Build(ctx, sel.LeagueID, sel.Season, sel.Week)
}

func weekDir(cfg *config.Config, sel weekSelection) string {
	return stepcache.Dir(cfg.Paths.OutputDir, sel.LeagueID, sel.Season, sel.Week)
}
