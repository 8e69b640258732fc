package commands

import (
	"fmt"

	"issuereport/internal/version"

	"github.com/spf13/cobra"
)

// VersionCommand returns the command printing build information
func VersionCommand(service string) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		RunE: func(cmd *cobra.Command, _ []string) error {
			info := version.Get(service)
			if asJSON {
				return printJSON(cmd.OutOrStdout(), info)
			}
			fmt.Fprintln(cmd.OutOrStdout(), info.String())
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")

	return cmd
}
