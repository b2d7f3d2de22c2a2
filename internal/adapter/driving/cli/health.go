package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ericfisherdev/adoctl/internal/adapter/driving/render"
	"github.com/ericfisherdev/adoctl/internal/application"
)

func newTeamHealthCommand(a *app) *cobra.Command {
	var (
		out        outputFlags
		thresholds thresholdFlags
		limit      int
		all        bool
		noSave     bool
	)
	cmd := &cobra.Command{
		Use:   "health [team]",
		Short: "Analyze a team's work items and report on its health",
		Example: "  adoctl team health platform\n" +
			"  adoctl team health platform --stale-days 7 --limit 10\n" +
			"  adoctl team health platform --format markdown > health.md",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			opts, err := out.options(a)
			if err != nil {
				return err
			}
			opts.Limit = limit
			overrides, err := thresholds.overrides(cmd)
			if err != nil {
				return err
			}

			if err := a.open(); err != nil {
				return err
			}
			name, err := a.teamName(ctx, args)
			if err != nil {
				return err
			}
			// Fail on an unknown team before asking for credentials.
			if _, err := a.teams.Get(ctx, name); err != nil {
				return fmt.Errorf("load team %q: %w", name, err)
			}

			sources, err := a.sources(ctx)
			if err != nil {
				return err
			}
			report, err := a.healthService(sources.WorkItems).Analyze(ctx, application.HealthRequest{
				Team:             name,
				Overrides:        overrides,
				IncludeCompleted: all,
				SkipRecord:       noSave,
			})
			if err != nil {
				return err
			}
			return render.Render(cmd.OutOrStdout(), *report, opts)
		},
	}
	out.register(cmd)
	thresholds.register(cmd)
	f := cmd.Flags()
	f.IntVarP(&limit, "limit", "n", render.DefaultLimit, "Items listed per alert before summarizing (-1 for all)")
	f.BoolVar(&all, "all", false, "Include completed items (fills the closed counts in the activity summary)")
	f.BoolVar(&noSave, "no-save", false, "Do not record a history snapshot")
	return cmd
}

func newTeamHistoryCommand(a *app) *cobra.Command {
	var (
		out   outputFlags
		limit int
	)
	cmd := &cobra.Command{
		Use:   "history [team]",
		Short: "Show recorded health scores for a team, newest first",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			opts, err := out.options(a)
			if err != nil {
				return err
			}
			if err := a.open(); err != nil {
				return err
			}
			name, err := a.teamName(ctx, args)
			if err != nil {
				return err
			}
			snaps, err := a.healthService(nil).History(ctx, name, limit)
			if err != nil {
				return err
			}
			return render.History(cmd.OutOrStdout(), name, snaps, opts)
		},
	}
	out.register(cmd)
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of snapshots to show (0 for all)")
	return cmd
}
