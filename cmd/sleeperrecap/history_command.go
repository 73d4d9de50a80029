package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"sleeperrecap/internal/history"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var filter history.Filter
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List past recap runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := history.Open(cfg.HistoryPath())
			if err != nil {
				return fmt.Errorf("open history: %w", err)
			}
			defer store.Close()

			runs, err := store.List(cmd.Context(), filter)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), runs)
			}
			out := cmd.OutOrStdout()
			if len(runs) == 0 {
				fmt.Fprintln(out, "No runs recorded")
				return nil
			}
			fmt.Fprintln(out, renderHistoryTable(runs))
			return nil
		},
	}

	cmd.Flags().StringVar(&filter.LeagueID, "league", "", "Only show runs for this league")
	cmd.Flags().IntVar(&filter.Season, "season", 0, "Only show runs for this season")
	cmd.Flags().IntVarP(&filter.Week, "week", "w", 0, "Only show runs for this week")
	cmd.Flags().IntVarP(&filter.Limit, "limit", "n", 20, "Maximum runs to show")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print runs as JSON")
	return cmd
}

func renderHistoryTable(runs []history.Run) string {
	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		verdict := run.Verdict
		if run.InitialVerdict != "" && run.InitialVerdict != run.Verdict {
			verdict = run.InitialVerdict + "→" + run.Verdict
		}
		if run.Status != history.StatusCompleted {
			verdict = string(run.Status)
		}
		duration := "-"
		if !run.FinishedAt.IsZero() {
			duration = run.Duration().Round(time.Second).String()
		}
		rows = append(rows, []string{
			run.StartedAt.Local().Format("2006-01-02 15:04"),
			run.LeagueID,
			fmt.Sprintf("%d W%02d", run.Season, run.Week),
			verdict,
			strconv.Itoa(run.IssueCount),
			yesNo(run.Patched),
			yesNo(run.Degraded),
			fmt.Sprintf("$%.4f", run.EstimatedCost),
			duration,
			run.Error,
		})
	}
	return renderTable([]column{
		{Title: "Started"},
		{Title: "League"},
		{Title: "Week"},
		{Title: "Verdict"},
		{Title: "Issues", Right: true},
		{Title: "Patched"},
		{Title: "Degraded"},
		{Title: "Cost", Right: true},
		{Title: "Took", Right: true},
		{Title: "Error", Width: 40},
	}, rows)
}
