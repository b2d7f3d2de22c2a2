package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ericfisherdev/adoctl/internal/adapter/driving/render"
	"github.com/ericfisherdev/adoctl/internal/domain/model"
	"github.com/ericfisherdev/adoctl/internal/domain/port/driven"
)

func newPRCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "pr",
		Aliases: []string{"pull-request"},
		Short:   "List pull requests",
	}
	cmd.AddCommand(newPRListCommand(a))
	return cmd
}

func newPRListCommand(a *app) *cobra.Command {
	var (
		out    outputFlags
		status string
		filter driven.PullRequestFilter
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List pull requests with their review status",
		Example: "  adoctl pr list\n" +
			"  adoctl pr list --status completed --repo web --limit 20",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			opts, err := out.options(a)
			if err != nil {
				return err
			}
			filter.Status, err = parsePRStatus(status)
			if err != nil {
				return err
			}
			if filter.Limit < 0 {
				return fmt.Errorf("--limit must not be negative")
			}

			sources, err := a.sources(ctx)
			if err != nil {
				return err
			}
			prs, err := sources.PullRequests.ListPullRequests(ctx, filter)
			if err != nil {
				return err
			}
			return render.PullRequests(cmd.OutOrStdout(), prs, opts)
		},
	}
	out.register(cmd)
	f := cmd.Flags()
	f.StringVarP(&status, "status", "s", "active", "Status: active, completed, abandoned or all")
	f.StringVarP(&filter.Repository, "repo-name", "r", "", "Only pull requests in this repository")
	f.IntVarP(&filter.Limit, "limit", "n", 30, "Maximum number of pull requests (0 for no limit)")
	return cmd
}

func parsePRStatus(s string) (model.PRStatus, error) {
	switch status := model.PRStatus(strings.ToLower(strings.TrimSpace(s))); status {
	case "":
		return model.PRStatusActive, nil
	case model.PRStatusActive, model.PRStatusCompleted, model.PRStatusAbandoned, model.PRStatusAll:
		return status, nil
	default:
		return "", fmt.Errorf("invalid status %q: expected active, completed, abandoned or all", s)
	}
}
