package commands

import (
	"context"
	"fmt"
	"strings"
	"time"

	"issuereport/internal/config"
	"issuereport/internal/observability"
	"issuereport/internal/services/mailer"
	contextutils "issuereport/internal/utils"

	"github.com/spf13/cobra"
)

// EmailCommands returns the mail transport commands
func EmailCommands(m mailer.Mailer, cfg *config.Config, logger *observability.Logger) *cobra.Command {
	emailCmd := &cobra.Command{
		Use:   "email",
		Short: "Mail transport commands",
		Long: `Mail transport commands for the issue reporting service.

Available commands:
  test  - Send a test message through the configured transport`,
	}

	emailCmd.AddCommand(testEmailCmd(m, cfg, logger))

	return emailCmd
}

// testEmailCmd returns the test command
func testEmailCmd(m mailer.Mailer, cfg *config.Config, logger *observability.Logger) *cobra.Command {
	var to string

	cmd := &cobra.Command{
		Use:   "test",
		Short: "Send a test email",
		Long:  `Send a short test message through the configured provider. Recipients default to email.to.`,
		RunE:  runTestEmail(m, cfg, logger, &to),
	}
	cmd.Flags().StringVar(&to, "to", "", "comma separated recipients (defaults to the configured support address)")

	return cmd
}

// runTestEmail returns a function that sends one test message
func runTestEmail(m mailer.Mailer, cfg *config.Config, logger *observability.Logger, to *string) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Email.Timeout()+5*time.Second)
		defer cancel()

		recipients := splitAddresses(*to)
		if len(recipients) == 0 {
			recipients = splitAddresses(cfg.Email.To)
		}
		if len(recipients) == 0 {
			return contextutils.ErrorWithContextf("no recipients: pass --to or set email.to")
		}

		if !m.IsEnabled() {
			fmt.Fprintf(cmd.OutOrStdout(), "Provider %q is not delivering mail; the message will only be logged\n", m.Provider())
		}

		msg := &mailer.Message{
			From:     cfg.Email.From,
			FromName: cfg.Email.FromName,
			To:       recipients,
			Subject:  "Issue report service test message",
			TextBody: fmt.Sprintf("This is a test message sent by the issue report admin tool at %s using the %s provider.",
				time.Now().UTC().Format(time.RFC3339), m.Provider()),
		}

		messageID, err := m.Send(ctx, msg)
		if err != nil {
			logger.Error(ctx, "Failed to send test email", err, map[string]interface{}{
				"provider": m.Provider(),
			})
			return contextutils.WrapError(err, "failed to send test email")
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Sent test email to %s via %s (message id %s)\n",
			strings.Join(recipients, ", "), m.Provider(), messageID)
		return nil
	}
}
