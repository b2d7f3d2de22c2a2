package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ericfisherdev/adoctl/internal/adapter/driving/render"
	"github.com/ericfisherdev/adoctl/internal/domain/port/driven"
)

func newWorkItemCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "workitem",
		Aliases: []string{"wi"},
		Short:   "List and view work items",
	}
	cmd.AddCommand(newWorkItemListCommand(a), newWorkItemViewCommand(a))
	return cmd
}

func newWorkItemListCommand(a *app) *cobra.Command {
	var (
		out    outputFlags
		filter driven.WorkItemFilter
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List work items, most recently changed first",
		Example: "  adoctl workitem list --assignee @me\n" +
			"  adoctl workitem list --state Active --type Bug --limit 10",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			opts, err := out.options(a)
			if err != nil {
				return err
			}
			if filter.Limit < 0 {
				return fmt.Errorf("--limit must not be negative")
			}
			filter.AssignedTo = strings.TrimSpace(filter.AssignedTo)

			sources, err := a.sources(ctx)
			if err != nil {
				return err
			}
			items, err := sources.WorkItems.ListWorkItems(ctx, filter)
			if err != nil {
				return err
			}
			return render.WorkItems(cmd.OutOrStdout(), items, opts)
		},
	}
	out.register(cmd)
	f := cmd.Flags()
	f.StringVarP(&filter.AssignedTo, "assignee", "a", "", "Assignee email, or @me")
	f.StringVarP(&filter.State, "state", "s", "", "Work item state")
	f.StringVarP(&filter.Type, "type", "t", "", "Work item type, e.g. Bug or \"User Story\"")
	f.IntVarP(&filter.Limit, "limit", "n", 30, "Maximum number of items (0 for no limit)")
	return cmd
}

func newWorkItemViewCommand(a *app) *cobra.Command {
	var out outputFlags
	cmd := &cobra.Command{
		Use:   "view <id>",
		Short: "Show a single work item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id, err := strconv.Atoi(strings.TrimPrefix(args[0], "#"))
			if err != nil || id <= 0 {
				return fmt.Errorf("invalid work item id %q", args[0])
			}
			opts, err := out.options(a)
			if err != nil {
				return err
			}

			sources, err := a.sources(ctx)
			if err != nil {
				return err
			}
			item, err := sources.WorkItems.GetWorkItem(ctx, id)
			if err != nil {
				return fmt.Errorf("work item %d: %w", id, err)
			}
			return render.WorkItem(cmd.OutOrStdout(), *item, opts)
		},
	}
	out.register(cmd)
	return cmd
}
