package preflight

import (
	"context"

	"sleeperrecap/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes every preflight check for the given config. A missing
// default league fails; the Sleeper lookup itself is skipped when leagues is nil.
func RunAll(ctx context.Context, cfg *config.Config, leagues LeagueFetcher) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Output directory", cfg.Paths.OutputDir),
		CheckDirectoryAccess("Cache directory", cfg.Paths.CacheDir),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
		CheckDirectoryAccess("State directory", cfg.Paths.StateDir),
	}
	results = append(results, CheckCredentials(cfg)...)

	switch leagueID := cfg.ResolveLeagueID(""); {
	case leagueID == "":
		results = append(results, Result{Name: "Sleeper league", Detail: "no default league configured"})
	case leagues != nil:
		results = append(results, CheckSleeperLeague(ctx, leagues, leagueID))
	}
	return results
}

// Failed counts results that did not pass.
func Failed(results []Result) int {
	n := 0
	for _, r := range results {
		if !r.Passed {
			n++
		}
	}
	return n
}
