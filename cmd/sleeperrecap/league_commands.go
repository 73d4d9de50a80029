package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"sleeperrecap/internal/config"
	"sleeperrecap/internal/services"
)

func newLeagueCommand(ctx *commandContext) *cobra.Command {
	leagueCmd := &cobra.Command{
		Use:   "league",
		Short: "Manage the default Sleeper league",
	}
	leagueCmd.AddCommand(newLeagueSetCommand(ctx))
	leagueCmd.AddCommand(newLeagueShowCommand(ctx))
	return leagueCmd
}

func newLeagueSetCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "set <league-id>",
		Short: "Persist the default league id in the config file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := ctx.ensureConfig(); err != nil {
				return err
			}
			path := ctx.configPath
			if err := config.SetLeagueID(path, args[0]); err != nil {
				return services.Wrap(services.ErrValidation, "cli", "league set", "", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Default league set to %s in %s\n", strings.TrimSpace(args[0]), path)
			return nil
		},
	}
}

func newLeagueShowCommand(ctx *commandContext) *cobra.Command {
	var remote bool
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the default league id",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			id := cfg.ResolveLeagueID("")
			if id == "" {
				fmt.Fprintln(out, "No default league configured. Run `sleeperrecap league set <id>` or export SLEEPER_LEAGUE_ID.")
				return nil
			}
			source := ctx.configPath
			if env, ok := os.LookupEnv("SLEEPER_LEAGUE_ID"); ok && strings.TrimSpace(env) == id {
				source = "SLEEPER_LEAGUE_ID"
			}
			fmt.Fprintf(out, "League:  %s\n", id)
			fmt.Fprintf(out, "Source:  %s\n", source)
			if !remote {
				return nil
			}

			league, err := newSleeperClient(cfg, ctx.logger()).League(cmd.Context(), id)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Name:    %s\n", league.Name)
			fmt.Fprintf(out, "Season:  %s\n", league.Season)
			fmt.Fprintf(out, "Status:  %s\n", league.Status)
			fmt.Fprintf(out, "Rosters: %d\n", league.TotalRosters)
			return nil
		},
	}
	cmd.Flags().BoolVar(&remote, "remote", false, "Also fetch league details from Sleeper")
	return cmd
}
