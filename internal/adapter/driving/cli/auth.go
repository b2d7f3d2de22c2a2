package cli

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ericfisherdev/adoctl/internal/domain/model"
)

func newAuthCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Authenticate adoctl with Azure DevOps or GitHub",
	}
	cmd.AddCommand(newAuthLoginCommand(a), newAuthStatusCommand(a), newAuthLogoutCommand(a))
	return cmd
}

type authLoginFlags struct {
	token     string
	withToken bool
}

func newAuthLoginCommand(a *app) *cobra.Command {
	var flags authLoginFlags
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Validate and store a personal access token",
		Long: "Validate a personal access token and store it encrypted in the adoctl\n" +
			"database (requires ADOCTL_SECRET_KEY). Connection flags given here\n" +
			"(--org, --project, --provider, --repo) are saved as settings.",
		Example: "  adoctl auth login --org contoso --project Platform --token $PAT\n" +
			"  echo $PAT | adoctl auth login --with-token",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runAuthLogin(cmd, a, flags)
		},
	}
	f := cmd.Flags()
	f.StringVar(&flags.token, "token", "", "Personal access token")
	f.BoolVar(&flags.withToken, "with-token", false, "Read the token from standard input")
	cmd.MarkFlagsMutuallyExclusive("token", "with-token")
	return cmd
}

func runAuthLogin(cmd *cobra.Command, a *app, flags authLoginFlags) error {
	ctx := cmd.Context()

	token := strings.TrimSpace(flags.token)
	if flags.withToken {
		line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		if err != nil && line == "" {
			return fmt.Errorf("read token from stdin: %w", err)
		}
		token = strings.TrimSpace(line)
	}
	if token == "" {
		return errors.New("no token given: pass --token or --with-token")
	}

	conn, err := a.connection(ctx)
	if err != nil {
		return err
	}
	conn.Token = token

	user, err := a.opts.Validate(ctx, conn)
	if err != nil {
		return fmt.Errorf("validate token: %w", err)
	}

	if err := a.credentials.Set(ctx, string(conn.Provider), token); err != nil {
		return fmt.Errorf("store token: %w", err)
	}

	saved := map[string]string{
		model.SettingOrganization: a.flags.org,
		model.SettingProject:      a.flags.project,
		model.SettingProvider:     a.flags.provider,
		model.SettingGitHubRepo:   a.flags.repo,
	}
	for _, key := range model.SettingKeys {
		if v := strings.TrimSpace(saved[key]); v != "" {
			if err := a.settings.Set(ctx, key, v); err != nil {
				return fmt.Errorf("save %s: %w", key, err)
			}
		}
	}

	a.logger.Info("token stored", "provider", conn.Provider, "user", user)
	fmt.Fprintf(cmd.OutOrStdout(), "Logged in to %s (%s) as %s\n", conn.Target(), conn.Provider, user)
	return nil
}

func newAuthStatusCommand(a *app) *cobra.Command {
	var offline bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the active connection and verify the token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			conn, err := a.connection(ctx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Provider:  %s\n", conn.Provider)
			fmt.Fprintf(out, "Target:    %s\n", conn.Target())
			if conn.Token == "" {
				fmt.Fprintln(out, "Token:     none")
				return errNotLoggedIn
			}
			fmt.Fprintf(out, "Token:     %s (%s)\n", maskToken(conn.Token), conn.TokenSource)

			if offline {
				return nil
			}
			user, err := a.opts.Validate(ctx, conn)
			if err != nil {
				return fmt.Errorf("validate token: %w", err)
			}
			fmt.Fprintf(out, "Logged in as %s\n", user)
			return nil
		},
	}
	cmd.Flags().BoolVar(&offline, "offline", false, "Skip validating the token against the server")
	return cmd
}

func newAuthLogoutCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove the stored token for the active provider",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			conn, err := a.connection(ctx)
			if err != nil {
				return err
			}
			if err := a.credentials.Delete(ctx, string(conn.Provider)); err != nil {
				return fmt.Errorf("remove token: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged out of %s\n", conn.Provider)
			return nil
		},
	}
}

// maskToken shows only the last four characters of a token.
func maskToken(token string) string {
	if len(token) <= 4 {
		return "****"
	}
	return "****" + token[len(token)-4:]
}
