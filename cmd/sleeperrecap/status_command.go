package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"sleeperrecap/internal/config"
	"sleeperrecap/internal/history"
	"sleeperrecap/internal/preflight"
	"sleeperrecap/internal/services"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var offline bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Check directories, credentials, and the Sleeper league",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			var leagues preflight.LeagueFetcher
			if !offline {
				leagues = newSleeperClient(cfg, ctx.logger())
			}
			results := preflight.RunAll(cmd.Context(), cfg, leagues)

			lines := sectionHeader("Configuration", colorize)
			lines = append(lines, statusLine("Config file", stateInfo, ctx.configPath, colorize))
			lines = append(lines, statusLine("Log level", stateInfo, cfg.Logging.Level, colorize))
			lines = append(lines, "")
			lines = append(lines, sectionHeader("Checks", colorize)...)
			for _, result := range results {
				lines = append(lines, checkLine(result, colorize))
			}
			lines = append(lines, "")
			lines = append(lines, sectionHeader("Last run", colorize)...)
			lines = append(lines, lastRunLine(cmd.Context(), cfg, colorize))
			for _, line := range lines {
				fmt.Fprintln(out, line)
			}

			if failed := preflight.Failed(results); failed > 0 {
				return services.Wrap(services.ErrConfiguration, "cli", "status",
					fmt.Sprintf("%d checks failed", failed), nil)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&offline, "offline", false, "Skip the Sleeper API check")
	return cmd
}

func lastRunLine(ctx context.Context, cfg *config.Config, colorize bool) string {
	store, err := history.Open(cfg.HistoryPath())
	if err != nil {
		return statusLine("History", stateWarn, err.Error(), colorize)
	}
	defer store.Close()
	runs, err := store.List(ctx, history.Filter{Limit: 1})
	if err != nil {
		return statusLine("History", stateWarn, err.Error(), colorize)
	}
	if len(runs) == 0 {
		return statusLine("History", stateInfo, "no runs recorded", colorize)
	}
	return runLine(runs[0], colorize)
}
