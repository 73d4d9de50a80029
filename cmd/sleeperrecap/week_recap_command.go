package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"sleeperrecap/internal/config"
	"sleeperrecap/internal/logging"
	"sleeperrecap/internal/notifications"
	"sleeperrecap/internal/pipeline"
)

func newWeekRecapCommand(ctx *commandContext) *cobra.Command {
	var sel weekFlags
	var output string
	var force bool
	var noHistory bool

	cmd := &cobra.Command{
		Use:   "week-recap",
		Short: "Generate, audit, and deliver the recap for one week",
		Long: `Builds the week's ground truth from Sleeper, researches key players, plans and
writes the article, then audits it. A failing audit triggers exactly one patch.
Steps already cached for the week are reused unless --force is given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			target, err := sel.resolve(cfg, time.Now())
			if err != nil {
				return err
			}
			outputDir := cfg.Paths.OutputDir
			if strings.TrimSpace(output) != "" {
				if outputDir, err = config.ExpandPath(output); err != nil {
					return fmt.Errorf("resolve output dir: %w", err)
				}
			}
			if err := cfg.RequireCredentials(config.StepResearch, config.StepPlan, config.StepWrite, config.StepPatch); err != nil {
				return err
			}

			logger := ctx.logger()
			app, err := buildRecapApp(cfg, logger, outputDir, !noHistory)
			if err != nil {
				return err
			}
			defer app.Close()

			notifier := notifications.NewService(cfg)
			result, err := app.pipeline.Run(cmd.Context(), pipeline.Options{
				LeagueID: target.LeagueID,
				Season:   target.Season,
				Week:     target.Week,
				Force:    force,
			})
			if err != nil {
				label := fmt.Sprintf("league %s week %d", target.LeagueID, target.Week)
				notifyOutcome(logger, notifier.NotifyRunFailed(context.WithoutCancel(cmd.Context()), err, label))
				return err
			}
			notifyOutcome(logger, notifier.NotifyRecapCompleted(cmd.Context(), runSummary(result)))

			out := cmd.OutOrStdout()
			renderRunSummary(out, result, shouldColorize(out))
			if !result.Report.Passed() {
				fmt.Fprintln(out, renderIssueTable(result.Report))
				fmt.Fprintln(out, "The recap was delivered with unresolved audit issues; review audit.json before publishing.")
			}
			return nil
		},
	}

	sel.register(cmd, false)
	_ = cmd.MarkFlagRequired("week")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output directory (defaults to paths.output_dir)")
	cmd.Flags().BoolVar(&force, "force", false, "Discard cached steps and regenerate everything")
	cmd.Flags().BoolVar(&noHistory, "no-history", false, "Do not record this run in the history ledger")
	return cmd
}

func runSummary(result *pipeline.Result) notifications.RunSummary {
	summary := notifications.RunSummary{
		Verdict:   string(result.Report.Verdict),
		Issues:    len(result.Report.Issues),
		Patched:   result.Patched,
		Degraded:  result.Degraded,
		RecapPath: result.RecapPath,
		Duration:  result.Duration,
		CostUSD:   result.CostUSD,
	}
	if result.Truth != nil {
		summary.League = result.Truth.LeagueName
		if summary.League == "" {
			summary.League = "league " + result.Truth.LeagueID
		}
		summary.Season = result.Truth.Season
		summary.Week = result.Truth.Week
	}
	return summary
}

func notifyOutcome(logger *slog.Logger, err error) {
	if err == nil {
		return
	}
	logging.WarnWithContext(logger, "run notification failed", "notification_failed",
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "check notifications.ntfy_topic and network access"),
		logging.String(logging.FieldImpact, "no push notification for this run"),
	)
}
