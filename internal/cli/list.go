package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func NewListCmd(ra *RootArgs) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List the configured profiles",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := ra.LoadConfig()
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, name := range cfg.ProfileNames() {
				p, _ := cfg.Profile(name)
				mustN(fmt.Fprintf(tw, "%s\t%d\t%s\n", name, len(p), strings.Join(p.Names(), ", ")))
			}

			err = tw.Flush()
			if err != nil {
				return fmt.Errorf("write profiles: %w", err)
			}

			return nil
		},
	}

	bindEnvVars(cmd)

	return cmd
}
