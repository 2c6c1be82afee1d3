package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/macropower/pstart/pkg/launch"
)

func NewWhichCmd(ra *RootArgs) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "which <name>",
		Short: "Print the executable a name resolves to",
		Long: `Print the executable a name resolves to, searching the configured
directories before $PATH. Overrides are not consulted.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ra.LoadConfig()
			if err != nil {
				return err
			}

			path, ok := cfg.Resolver().Resolve(args[0])
			if !ok {
				return fmt.Errorf("%w: %q", launch.ErrNotFound, args[0])
			}

			mustN(fmt.Fprintln(cmd.OutOrStdout(), path))

			return nil
		},
	}

	bindEnvVars(cmd)

	return cmd
}
