package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"sleeperrecap/internal/services"
)

func newAuditCommand(ctx *commandContext) *cobra.Command {
	var sel weekFlags
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Re-run the deterministic audit on a cached recap",
		Long: `Audits the cached recap.md for a week against its cached truth and evidence.
No network calls are made. Exits non-zero when the audit fails.`,
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
			logger := ctx.logger()
			week, err := loadCachedWeek(cfg, target, true, logger)
			if err != nil {
				return err
			}

			report := newAuditor(cfg, logger).Audit(week.Article, week.Truth, week.Evidence)
			if asJSON {
				if err := writeJSON(cmd.OutOrStdout(), newAuditOutput(target, week.Dir, report)); err != nil {
					return err
				}
			} else {
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Recap:   %s\n", week.Dir)
				fmt.Fprintf(out, "Verdict: %s (%d issues, %d words)\n", report.Verdict, len(report.Issues), report.WordCount)
				if len(report.Issues) > 0 {
					fmt.Fprintln(out, renderIssueTable(report))
				}
			}
			if !report.Passed() {
				return services.Wrap(services.ErrAuditFailure, "audit", "offline",
					fmt.Sprintf("%d issues", len(report.Issues)), nil)
			}
			return nil
		},
	}

	sel.register(cmd, false)
	_ = cmd.MarkFlagRequired("week")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the report as JSON")
	return cmd
}
