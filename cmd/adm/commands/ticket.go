package commands

import (
	"context"
	"fmt"
	"strings"

	"issuereport/internal/models"
	"issuereport/internal/observability"
	"issuereport/internal/services"
	contextutils "issuereport/internal/utils"

	"github.com/spf13/cobra"
)

// TicketCommands returns the ticket number commands
func TicketCommands(logger *observability.Logger) *cobra.Command {
	ticketCmd := &cobra.Command{
		Use:   "ticket",
		Short: "Ticket number commands",
		Long: `Ticket number commands for the issue reporting service.

Available commands:
  preview  - Print ticket numbers as they would be issued for a report`,
	}

	ticketCmd.AddCommand(previewTicketCmd(logger))

	return ticketCmd
}

// previewTicketCmd returns the preview command
func previewTicketCmd(logger *observability.Logger) *cobra.Command {
	var (
		operator string
		date     string
		count    int
	)

	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Preview ticket numbers",
		Long:  `Generate ticket numbers for an operator and date of issue without sending anything.`,
		RunE:  runPreviewTicket(logger, &operator, &date, &count),
	}

	cmd.Flags().StringVar(&operator, "operator", string(models.OperatorBulgaria), "operator code (BG, RO, LT)")
	cmd.Flags().StringVar(&date, "date", "", "date of issue as YYYY-MM-DD (defaults to today)")
	cmd.Flags().IntVar(&count, "count", 1, "number of ticket numbers to generate")

	return cmd
}

// runPreviewTicket returns a function that prints generated ticket numbers
func runPreviewTicket(logger *observability.Logger, operator, date *string, count *int) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		ctx := context.Background()

		op := models.Operator(strings.ToUpper(strings.TrimSpace(*operator)))
		if op != "" && !op.Valid() {
			return contextutils.ErrorWithContextf("unknown operator %q", *operator)
		}
		if *count < 1 {
			return contextutils.ErrorWithContextf("count must be at least 1, got %d", *count)
		}

		generator := services.NewTicketGenerator()
		for i := 0; i < *count; i++ {
			fmt.Fprintln(cmd.OutOrStdout(), generator.Generate(op, *date))
		}

		logger.Info(ctx, "Previewed ticket numbers", map[string]interface{}{
			"operator": string(op),
			"count":    *count,
		})
		return nil
	}
}
