package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ericfisherdev/adoctl/internal/adapter/driving/render"
	"github.com/ericfisherdev/adoctl/internal/domain/model"
)

func newTeamCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "team",
		Short: "Manage team rosters and report on team health",
	}
	cmd.AddCommand(
		newTeamInitCommand(a),
		newTeamListCommand(a),
		newTeamShowCommand(a),
		newTeamDeleteCommand(a),
		newTeamAddMemberCommand(a),
		newTeamRemoveMemberCommand(a),
		newTeamExportCommand(a),
		newTeamSetThresholdsCommand(a),
		newTeamSetStatesCommand(a),
		newTeamHealthCommand(a),
		newTeamHistoryCommand(a),
	)
	return cmd
}

// thresholdFlags binds the threshold override flags shared by `team health`
// and `team set-thresholds`.
type thresholdFlags struct {
	staleDays        int
	stuckDays        int
	maxItems         int
	minItems         int
	highPriorityDays int
}

func (f *thresholdFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.IntVar(&f.staleDays, "stale-days", 0, "Days without update before an item is stale")
	fs.IntVar(&f.stuckDays, "stuck-days", 0, "Days in one state before an item is stuck")
	fs.IntVar(&f.maxItems, "max-items", 0, "Open items per person above which workload is too high")
	fs.IntVar(&f.minItems, "min-items", 0, "Open items per person below which workload is too low")
	fs.IntVar(&f.highPriorityDays, "high-priority-days", 0, "Days without update before a P1/P2 item is at risk")
}

// overrides returns only the flags that were set on the command line.
func (f *thresholdFlags) overrides(cmd *cobra.Command) (model.ThresholdOverrides, error) {
	var o model.ThresholdOverrides
	fields := []struct {
		name  string
		value int
		dst   **int
	}{
		{"stale-days", f.staleDays, &o.StaleDays},
		{"stuck-days", f.stuckDays, &o.StuckInStateDays},
		{"max-items", f.maxItems, &o.MaxItemsPerPerson},
		{"min-items", f.minItems, &o.MinItemsPerPerson},
		{"high-priority-days", f.highPriorityDays, &o.HighPriorityDays},
	}
	for _, field := range fields {
		if !cmd.Flags().Changed(field.name) {
			continue
		}
		if field.value < 0 {
			return o, fmt.Errorf("--%s must not be negative", field.name)
		}
		v := field.value
		*field.dst = &v
	}
	return o, nil
}

func newTeamInitCommand(a *app) *cobra.Command {
	var fromFile string
	cmd := &cobra.Command{
		Use:   "init <name>",
		Short: "Create a team, optionally from a YAML or JSON file",
		Example: "  adoctl team init platform\n" +
			"  adoctl team init platform --from-file platform.yaml",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := a.open(); err != nil {
				return err
			}

			tf := &teamFile{}
			if fromFile != "" {
				loaded, err := loadTeamFile(fromFile)
				if err != nil {
					return err
				}
				tf = loaded
			}
			if len(args) > 0 {
				tf.Name = args[0]
			}
			tf.Name = strings.TrimSpace(tf.Name)
			if tf.Name == "" {
				return errors.New("team name is required")
			}

			if err := a.teams.Create(ctx, model.TeamConfig{Name: tf.Name, Members: tf.Members}); err != nil {
				return err
			}
			if tf.Thresholds != nil {
				if err := a.teams.SetThresholdOverrides(ctx, tf.Name, *tf.Thresholds); err != nil {
					return err
				}
			}
			if tf.States != nil {
				if err := a.teams.SetStateCategories(ctx, tf.Name, *tf.States); err != nil {
					return err
				}
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Created team %s with %d members\n", tf.Name, len(tf.Members))
			return nil
		},
	}
	cmd.Flags().StringVarP(&fromFile, "from-file", "f", "", "Team file (YAML or JSON) with members, thresholds and states")
	return cmd
}

func newTeamListCommand(a *app) *cobra.Command {
	var opts outputFlags
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List teams with their latest health score",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.open(); err != nil {
				return err
			}
			renderOpts, err := opts.options(a)
			if err != nil {
				return err
			}
			statuses, err := a.healthService(nil).Teams(cmd.Context())
			if err != nil {
				return err
			}
			return render.Teams(cmd.OutOrStdout(), statuses, renderOpts)
		},
	}
	opts.register(cmd)
	return cmd
}

func newTeamShowCommand(a *app) *cobra.Command {
	var opts outputFlags
	cmd := &cobra.Command{
		Use:   "show [name]",
		Short: "Show a team's members, thresholds and states",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := a.open(); err != nil {
				return err
			}
			renderOpts, err := opts.options(a)
			if err != nil {
				return err
			}
			name, err := a.teamName(ctx, args)
			if err != nil {
				return err
			}
			detail, err := a.teamDetail(ctx, name)
			if err != nil {
				return err
			}
			return render.Team(cmd.OutOrStdout(), *detail, renderOpts)
		},
	}
	opts.register(cmd)
	return cmd
}

func (a *app) teamDetail(ctx context.Context, name string) (*render.TeamDetail, error) {
	team, err := a.teams.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	overrides, err := a.teams.GetThresholdOverrides(ctx, name)
	if err != nil {
		return nil, err
	}
	categories, err := a.teams.GetStateCategories(ctx, name)
	if err != nil {
		return nil, err
	}
	return &render.TeamDetail{
		Team:       *team,
		Effective:  a.healthService(nil).EffectiveThresholdsFor(ctx, name, model.ThresholdOverrides{}),
		Overrides:  overrides,
		Categories: categories,
	}, nil
}

func newTeamDeleteCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a team and its health history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := a.open(); err != nil {
				return err
			}
			if err := a.teams.Delete(ctx, args[0]); err != nil {
				return err
			}
			if a.setting(ctx, model.SettingDefaultTeam) == args[0] {
				if err := a.settings.Set(ctx, model.SettingDefaultTeam, ""); err != nil {
					a.logger.Warn("failed to clear default team", "team", args[0], "error", err)
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted team %s\n", args[0])
			return nil
		},
	}
}

func newTeamAddMemberCommand(a *app) *cobra.Command {
	var member model.TeamMember
	cmd := &cobra.Command{
		Use:     "add-member <team>",
		Short:   "Add a member to a team, or update the member with the same email",
		Example: "  adoctl team add-member platform --name \"Alice Smith\" --email alice@contoso.com --alias alice",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.open(); err != nil {
				return err
			}
			member.Email = strings.TrimSpace(member.Email)
			member.Name = strings.TrimSpace(member.Name)
			if member.Name == "" {
				member.Name = member.Email
			}
			if err := a.teams.AddMember(cmd.Context(), args[0], member); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %s <%s> to %s\n", member.Name, member.Email, args[0])
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&member.Name, "name", "", "Display name")
	f.StringVar(&member.Email, "email", "", "Email, the member's unique key (required)")
	f.StringSliceVar(&member.Aliases, "alias", nil, "Alternate email, login or display name (repeatable)")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newTeamRemoveMemberCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "remove-member <team> <email>",
		Short: "Remove a member from a team",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.open(); err != nil {
				return err
			}
			if err := a.teams.RemoveMember(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %s from %s\n", args[1], args[0])
			return nil
		},
	}
}

func newTeamExportCommand(a *app) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "export <name>",
		Short: "Write a team as YAML (or JSON for a .json file)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := a.open(); err != nil {
				return err
			}
			detail, err := a.teamDetail(ctx, args[0])
			if err != nil {
				return err
			}

			tf := teamFile{Name: detail.Team.Name, Members: detail.Team.Members, States: &detail.Categories}
			if !detail.Overrides.IsZero() {
				tf.Thresholds = &detail.Overrides
			}
			data, err := encodeTeamFile(tf, filepath.Ext(output))
			if err != nil {
				return err
			}

			if output == "" || output == "-" {
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			if err := os.WriteFile(output, data, 0o600); err != nil {
				return fmt.Errorf("write %s: %w", output, err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Exported team %s to %s\n", detail.Team.Name, output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default standard output)")
	return cmd
}

func newTeamSetThresholdsCommand(a *app) *cobra.Command {
	var (
		flags  thresholdFlags
		global bool
		drop   bool
	)
	cmd := &cobra.Command{
		Use:   "set-thresholds [team]",
		Short: "Override health thresholds for a team, or set the global defaults",
		Example: "  adoctl team set-thresholds platform --stale-days 21 --max-items 8\n" +
			"  adoctl team set-thresholds --global --stale-days 10\n" +
			"  adoctl team set-thresholds platform --clear",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := a.open(); err != nil {
				return err
			}
			changes, err := flags.overrides(cmd)
			if err != nil {
				return err
			}

			if global {
				current, err := a.thresholds.GetGlobalThresholds(ctx)
				if err != nil {
					return err
				}
				if drop {
					current = model.DefaultHealthThresholds()
				}
				if err := a.thresholds.SetGlobalThresholds(ctx, current.Apply(changes)); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Updated global thresholds")
				return nil
			}

			name, err := a.teamName(ctx, args)
			if err != nil {
				return err
			}
			current, err := a.teams.GetThresholdOverrides(ctx, name)
			if err != nil {
				return err
			}
			if drop {
				current = model.ThresholdOverrides{}
			}
			merged := mergeOverrides(current, changes)
			if err := a.teams.SetThresholdOverrides(ctx, name, merged); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated thresholds for %s\n", name)
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().BoolVar(&global, "global", false, "Change the defaults shared by every team")
	cmd.Flags().BoolVar(&drop, "clear", false, "Drop existing overrides (or reset global values) before applying flags")
	return cmd
}

// mergeOverrides layers changes over base, field by field.
func mergeOverrides(base, changes model.ThresholdOverrides) model.ThresholdOverrides {
	pick := func(b, c *int) *int {
		if c != nil {
			return c
		}
		return b
	}
	return model.ThresholdOverrides{
		StaleDays:         pick(base.StaleDays, changes.StaleDays),
		StuckInStateDays:  pick(base.StuckInStateDays, changes.StuckInStateDays),
		MaxItemsPerPerson: pick(base.MaxItemsPerPerson, changes.MaxItemsPerPerson),
		MinItemsPerPerson: pick(base.MinItemsPerPerson, changes.MinItemsPerPerson),
		HighPriorityDays:  pick(base.HighPriorityDays, changes.HighPriorityDays),
	}
}

func newTeamSetStatesCommand(a *app) *cobra.Command {
	var (
		states model.StateCategories
		reset  bool
	)
	cmd := &cobra.Command{
		Use:   "set-states [team]",
		Short: "Set which work item states count as active, blocked or completed",
		Example: "  adoctl team set-states platform --blocked Blocked,Impeded --completed Done,Closed,Removed\n" +
			"  adoctl team set-states platform --reset",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := a.open(); err != nil {
				return err
			}
			name, err := a.teamName(ctx, args)
			if err != nil {
				return err
			}

			current := model.DefaultStateCategories()
			if !reset {
				if current, err = a.teams.GetStateCategories(ctx, name); err != nil {
					return err
				}
				if cmd.Flags().Changed("active") {
					current.Active = states.Active
				}
				if cmd.Flags().Changed("blocked") {
					current.Blocked = states.Blocked
				}
				if cmd.Flags().Changed("completed") {
					current.Completed = states.Completed
				}
			}

			if err := a.teams.SetStateCategories(ctx, name, current); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated states for %s\n", name)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringSliceVar(&states.Active, "active", nil, "States counted as active work")
	f.StringSliceVar(&states.Blocked, "blocked", nil, "States counted as blocked")
	f.StringSliceVar(&states.Completed, "completed", nil, "States counted as completed")
	f.BoolVar(&reset, "reset", false, "Restore the default states")
	return cmd
}
