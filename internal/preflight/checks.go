package preflight

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"sleeperrecap/internal/config"
	"sleeperrecap/internal/sleeper"
)

// LeagueFetcher loads league metadata; *sleeper.Client satisfies it.
type LeagueFetcher interface {
	League(ctx context.Context, leagueID string) (sleeper.League, error)
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

var providerLabels = map[string]string{
	config.ProviderOpenAI:     "OpenAI",
	config.ProviderPerplexity: "Perplexity",
}

// CheckCredentials reports one result per provider referenced by the step
// mapping, passing when an API key is configured.
func CheckCredentials(cfg *config.Config) []Result {
	used := map[string][]string{}
	for _, step := range []string{config.StepResearch, config.StepPlan, config.StepWrite, config.StepPatch} {
		targets, err := cfg.StepTargets(step)
		if err != nil {
			return []Result{{Name: "Step mapping", Detail: err.Error()}}
		}
		for _, target := range targets {
			steps := used[target.Provider]
			if len(steps) == 0 || steps[len(steps)-1] != step {
				used[target.Provider] = append(steps, step)
			}
		}
	}

	providers := make([]string, 0, len(used))
	for name := range used {
		providers = append(providers, name)
	}
	sort.Strings(providers)

	results := make([]Result, 0, len(providers))
	for _, name := range providers {
		label := providerLabels[name] + " API key"
		settings, _ := cfg.ProviderSettings(name)
		steps := strings.Join(used[name], ", ")
		if strings.TrimSpace(settings.APIKey) == "" {
			results = append(results, Result{Name: label, Detail: fmt.Sprintf("missing (needed for %s)", steps)})
			continue
		}
		results = append(results, Result{Name: label, Passed: true, Detail: fmt.Sprintf("configured (%s)", steps)})
	}
	return results
}

// CheckSleeperLeague verifies the league exists on Sleeper. It uses a
// 10-second timeout.
func CheckSleeperLeague(ctx context.Context, leagues LeagueFetcher, leagueID string) Result {
	const name = "Sleeper league"

	checkCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	league, err := leagues.League(checkCtx, leagueID)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", leagueID, err)}
	}
	label := strings.TrimSpace(league.Name)
	if label == "" {
		label = leagueID
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s, season %s, %d rosters", label, league.Season, league.TotalRosters)}
}
