package cli

import (
	"context"

	"github.com/spf13/cobra"
)

// version is set at build time via -ldflags.
var version = "dev"

// Execute builds the command tree, runs it with args and closes the stores.
// Known failures are annotated with guidance on how to fix them.
func Execute(ctx context.Context, opts Options, args []string) error {
	a := newApp(opts)
	root := newRootCommand(a)
	root.SetArgs(args)
	defer a.close()

	return explain(root.ExecuteContext(ctx))
}

func newRootCommand(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "adoctl",
		Short: "Work with Azure DevOps work items, pull requests and team health",
		Long: "adoctl brings Azure DevOps (or GitHub issues) to the command line:\n" +
			"list and view work items and pull requests, keep team rosters and\n" +
			"report on team health.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			HiddenDefaultCmd: true,
		},
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.initLogging(cmd.ErrOrStderr())
		},
	}

	if a.opts.Stdout != nil {
		root.SetOut(a.opts.Stdout)
	}
	if a.opts.Stderr != nil {
		root.SetErr(a.opts.Stderr)
	}
	root.SetIn(a.opts.Stdin)

	f := root.PersistentFlags()
	f.StringVar(&a.flags.org, "org", "", "Azure DevOps organization (overrides ADOCTL_ORG)")
	f.StringVar(&a.flags.project, "project", "", "Azure DevOps project (overrides ADOCTL_PROJECT)")
	f.StringVar(&a.flags.provider, "provider", "", "Work tracking backend: azdo or github")
	f.StringVar(&a.flags.repo, "repo", "", "GitHub repository owner/repo for the github provider")
	f.StringVar(&a.flags.dbPath, "db", "", "Path to the adoctl database")
	f.StringVar(&a.flags.logLevel, "log-level", "", "Log level: debug, info, warn or error")
	f.StringVar(&a.flags.logFormat, "log-format", "", "Log format: text or json")

	root.AddCommand(
		newAuthCommand(a),
		newConfigCommand(a),
		newTeamCommand(a),
		newWorkItemCommand(a),
		newPRCommand(a),
		newServeCommand(a),
	)
	return root
}
