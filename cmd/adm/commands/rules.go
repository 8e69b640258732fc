package commands

import (
	"fmt"
	"strings"

	"issuereport/internal/models"
	"issuereport/internal/services"

	"github.com/spf13/cobra"
)

// RulesCommand returns the command printing which form sections each issue type shows
func RulesCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Show the issue type rules",
		Long:  `Print which conditional sections of the form are shown and required for every issue type.`,
		RunE:  runRules(&asJSON),
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the rules as JSON")

	return cmd
}

// runRules returns a function that prints the rule table
func runRules(asJSON *bool) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		out := cmd.OutOrStdout()

		if *asJSON {
			return printJSON(out, services.RuleTable())
		}

		fmt.Fprintf(out, "%-22s %-8s %-8s %-10s %-8s\n", "Issue Type", "Other", "Charger", "Connector", "Station")
		fmt.Fprintln(out, strings.Repeat("-", 60))
		for _, option := range models.IssueTypes {
			rules := services.RulesFor(models.IssueType(option.Value))
			fmt.Fprintf(out, "%-22s %-8s %-8s %-10s %-8s\n",
				option.Value,
				yesNo(rules.RequiresOtherDescription),
				yesNo(rules.RequiresChargerInfo),
				yesNo(rules.RequiresConnectorInfo),
				yesNo(rules.ShowsStationID),
			)
		}
		return nil
	}
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}
