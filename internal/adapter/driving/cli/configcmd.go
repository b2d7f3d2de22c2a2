package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ericfisherdev/adoctl/internal/domain/model"
)

func newConfigCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage stored settings",
		Long: "Manage stored settings. Known keys: " + strings.Join(model.SettingKeys, ", ") + ".\n" +
			"Command-line flags and ADOCTL_* environment variables take precedence.",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "get <key>",
			Short: "Print the stored value of a setting",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := checkSettingKey(args[0]); err != nil {
					return err
				}
				if err := a.open(); err != nil {
					return err
				}
				v, err := a.settings.Get(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), v)
				return nil
			},
		},
		&cobra.Command{
			Use:   "set <key> <value>",
			Short: "Store a setting; an empty value removes it",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				key, value := args[0], strings.TrimSpace(args[1])
				if err := checkSettingKey(key); err != nil {
					return err
				}
				if key == model.SettingProvider && value != "" {
					value = strings.ToLower(value)
					if !model.Provider(value).Valid() {
						return fmt.Errorf("invalid provider %q: expected azdo or github", args[1])
					}
				}
				if err := a.open(); err != nil {
					return err
				}
				return a.settings.Set(cmd.Context(), key, value)
			},
		},
		&cobra.Command{
			Use:   "list",
			Short: "Print every setting",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				if err := a.open(); err != nil {
					return err
				}
				all, err := a.settings.All(cmd.Context())
				if err != nil {
					return err
				}
				for _, key := range model.SettingKeys {
					fmt.Fprintf(cmd.OutOrStdout(), "%s=%s\n", key, all[key])
				}
				return nil
			},
		},
	)
	return cmd
}

func checkSettingKey(key string) error {
	if !model.IsSettingKey(key) {
		return fmt.Errorf("unknown setting %q: expected one of %s", key, strings.Join(model.SettingKeys, ", "))
	}
	return nil
}
