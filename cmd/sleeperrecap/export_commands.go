package main

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"sleeperrecap/internal/config"
	"sleeperrecap/internal/export"
	"sleeperrecap/internal/logging"
	"sleeperrecap/internal/services"
	"sleeperrecap/internal/sleeper"
)

type exportFlags struct {
	weekFlags
	dir string
}

func (f *exportFlags) destination(fallback string) (string, error) {
	if strings.TrimSpace(f.dir) == "" {
		return fallback, nil
	}
	return config.ExpandPath(f.dir)
}

func newExportCommand(ctx *commandContext) *cobra.Command {
	flags := &exportFlags{}
	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Export a week as CSV, HTML, or a publishable post, or the league draft board",
	}
	flags.register(exportCmd, true)
	exportCmd.PersistentFlags().StringVarP(&flags.dir, "dir", "d", "", "Destination directory (defaults to the week's output directory)")

	exportCmd.AddCommand(newCSVExportCommand(ctx, flags, export.KindMatchups, "Export one row per matchup with records and starters"))
	exportCmd.AddCommand(newCSVExportCommand(ctx, flags, export.KindWeek, "Export one row per rostered player"))
	exportCmd.AddCommand(newCSVExportCommand(ctx, flags, export.KindStandings, "Export standings after the week"))
	exportCmd.AddCommand(newHTMLExportCommand(ctx, flags))
	exportCmd.AddCommand(newPublishExportCommand(ctx, flags))
	exportCmd.AddCommand(newDraftExportCommand(ctx, flags))
	return exportCmd
}

func newCSVExportCommand(ctx *commandContext, flags *exportFlags, kind export.Kind, short string) *cobra.Command {
	return &cobra.Command{
		Use:   string(kind),
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			target, err := flags.resolve(cfg, time.Now())
			if err != nil {
				return err
			}
			record, err := truthForWeek(cmd.Context(), cfg, target, ctx.logger())
			if err != nil {
				return err
			}
			dir, err := flags.destination(weekDir(cfg, target))
			if err != nil {
				return err
			}
			path := export.Path(dir, kind, record)
			if err := export.Save(path, func(w io.Writer) error {
				return export.WriteCSV(w, kind, record)
			}); err != nil {
				return fmt.Errorf("write %s export: %w", kind, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
			return nil
		},
	}
}

func newHTMLExportCommand(ctx *commandContext, flags *exportFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "html",
		Short: "Render the cached recap as a standalone HTML page",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			target, err := flags.resolve(cfg, time.Now())
			if err != nil {
				return err
			}
			week, err := loadCachedWeek(cfg, target, true, ctx.logger())
			if err != nil {
				return err
			}
			dir, err := flags.destination(week.Dir)
			if err != nil {
				return err
			}
			fm := export.NewFrontMatter(week.Truth, week.Article, week.Report, time.Now())
			footer := fmt.Sprintf("Generated %s", fm.Date.Format("2006-01-02"))
			if fm.Verdict != "" {
				footer += fmt.Sprintf(" · audit %s", fm.Verdict)
			}
			path := filepath.Join(dir, "recap.html")
			if err := export.Save(path, func(w io.Writer) error {
				return export.RenderHTML(w, week.Article, fm.Title, week.Evidence, footer)
			}); err != nil {
				return fmt.Errorf("write html export: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
			return nil
		},
	}
}

func newPublishExportCommand(ctx *commandContext, flags *exportFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "publish",
		Short: "Write the cached recap with YAML front matter for a static site",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			target, err := flags.resolve(cfg, time.Now())
			if err != nil {
				return err
			}
			week, err := loadCachedWeek(cfg, target, true, ctx.logger())
			if err != nil {
				return err
			}
			dir, err := flags.destination(filepath.Join(cfg.Paths.OutputDir, "posts"))
			if err != nil {
				return err
			}
			fm := export.NewFrontMatter(week.Truth, week.Article, week.Report, time.Now())
			path := filepath.Join(dir, fm.FileName())
			if err := export.Save(path, func(w io.Writer) error {
				return export.WritePost(w, fm, week.Article)
			}); err != nil {
				return fmt.Errorf("write post: %w", err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Wrote %s\n", path)
			if fm.Draft {
				fmt.Fprintln(out, "Audit did not pass; the post is marked draft: true.")
			}
			return nil
		},
	}
}

func newDraftExportCommand(ctx *commandContext, flags *exportFlags) *cobra.Command {
	var draftID string
	cmd := &cobra.Command{
		Use:   "draft",
		Short: "Export the league draft board as CSV (ignores --week)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			leagueID := cfg.ResolveLeagueID(flags.leagueID)
			if leagueID == "" {
				return services.Wrap(services.ErrConfiguration, "cli", "resolve league",
					"no league id configured; pass --league-id or run `sleeperrecap league set <id>`", nil)
			}
			logger := ctx.logger()
			client := newSleeperClient(cfg, logger)
			c := cmd.Context()

			draft, err := selectDraft(c, client, leagueID, draftID)
			if err != nil {
				return err
			}
			picks, err := client.DraftPicks(c, draft.DraftID)
			if err != nil {
				return err
			}
			users, err := client.Users(c, leagueID)
			if err != nil {
				return err
			}
			players, err := newPlayerCache(cfg, client, logger).Players(c)
			if err != nil {
				return err
			}
			logger.Info("draft board loaded",
				logging.String(logging.FieldEventType, "draft_export"),
				logging.String("league_id", leagueID),
				logging.String("draft_id", draft.DraftID),
				logging.String("status", draft.Status),
				logging.Int("picks", len(picks)),
			)

			dir, err := flags.destination(filepath.Join(cfg.Paths.OutputDir, leagueID))
			if err != nil {
				return err
			}
			path := filepath.Join(dir, export.DraftFileName(leagueID, draft.DraftID))
			rows := export.DraftRows(draft, picks, users, players)
			if err := export.Save(path, func(w io.Writer) error {
				return export.WriteDraftCSV(w, rows)
			}); err != nil {
				return fmt.Errorf("write draft export: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%d picks)\n", path, len(picks))
			return nil
		},
	}
	cmd.Flags().StringVar(&draftID, "draft-id", "", "Draft id (defaults to the latest completed draft)")
	return cmd
}

// selectDraft returns the named draft, or the league's latest one.
func selectDraft(ctx context.Context, client *sleeper.Client, leagueID, draftID string) (sleeper.Draft, error) {
	if draftID = strings.TrimSpace(draftID); draftID != "" {
		return sleeper.Draft{DraftID: draftID, LeagueID: leagueID}, nil
	}
	drafts, err := client.Drafts(ctx, leagueID)
	if err != nil {
		return sleeper.Draft{}, err
	}
	draft, ok := sleeper.LatestDraft(drafts)
	if !ok {
		return sleeper.Draft{}, services.Wrap(services.ErrNotFound, "cli", "select draft",
			fmt.Sprintf("no drafts found for league %s", leagueID), nil)
	}
	return draft, nil
}
