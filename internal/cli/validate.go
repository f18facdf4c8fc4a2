package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newValidateCommand(rootOpts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the config file",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			loaded, err := loadConfig(rootOpts.ConfigPath)
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "Validation failed:\n%v\n", err)
				return &exitError{code: ExitError}
			}
			if loaded.Path == "" {
				fmt.Fprintln(cmd.OutOrStdout(), "No config file found; defaults are valid")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Config OK")
			return nil
		},
	}
}
