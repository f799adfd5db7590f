// File: cmd/locators.go
package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newLocatorsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "locators",
		Short: "Print the effective locator table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := getConfigFromContext(cmd.Context())
			if err != nil {
				return err
			}
			set, err := cfg.LocatorSet()
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tSTRATEGY\tVALUE")
			for _, name := range set.Names() {
				l := set[name]
				fmt.Fprintf(tw, "%s\t%s\t%s\n", name, l.Strategy, l.Value)
			}
			return tw.Flush()
		},
	}
}
