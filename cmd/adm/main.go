// Package main provides the admin CLI of the issue reporting service.
package main

import (
	"context"
	"fmt"
	"os"

	_ "time/tzdata"

	"issuereport/cmd/adm/commands"
	"issuereport/internal/config"
	"issuereport/internal/di"
	"issuereport/internal/observability"

	"github.com/spf13/cobra"
)

const adminServiceName = "issue-report-admin"

func main() {
	ctx := context.Background()

	// Set default config file if not already set
	if os.Getenv(config.ConfigFileEnv) == "" {
		defaultPaths := []string{
			"../../config.yaml", // From cmd/adm/
			"config.yaml",       // Current directory
		}

		for _, path := range defaultPaths {
			if _, err := os.Stat(path); err == nil {
				if err := os.Setenv(config.ConfigFileEnv, path); err != nil {
					fmt.Fprintf(os.Stderr, "Failed to set %s environment variable: %v\n", config.ConfigFileEnv, err)
					os.Exit(1)
				}
				break
			}
		}
	}

	// Load configuration
	cfg, err := config.NewConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Override log level for admin tool
	cfg.Server.LogLevel = "error"
	cfg.OpenTelemetry.LogLevel = cfg.Server.LogLevel

	// Disable all OpenTelemetry features for admin CLI to avoid connection errors
	cfg.OpenTelemetry.EnableTracing = false
	cfg.OpenTelemetry.EnableMetrics = false
	cfg.OpenTelemetry.EnableLogging = false

	tp, mp, logger, err := observability.SetupObservability(&cfg.OpenTelemetry, adminServiceName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize observability: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		if sdkTP, ok := tp.(interface{ Shutdown(context.Context) error }); ok {
			if err := sdkTP.Shutdown(context.TODO()); err != nil {
				logger.Warn(ctx, "Error shutting down tracer provider", map[string]interface{}{"error": err.Error(), "provider": "tracer"})
			}
		}
		if mp != nil {
			if err := mp.Shutdown(context.TODO()); err != nil {
				logger.Warn(ctx, "Error shutting down meter provider", map[string]interface{}{"error": err.Error(), "provider": "meter"})
			}
		}
	}()

	container := di.NewServiceContainer(cfg, logger)
	if err := container.Initialize(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize services: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = container.Shutdown(ctx)
	}()

	m, err := container.GetMailer()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to get mailer: %v\n", err)
		os.Exit(1)
	}

	rootCmd := newRootCommand()
	rootCmd.AddCommand(commands.TicketCommands(logger))
	rootCmd.AddCommand(commands.RulesCommand())
	rootCmd.AddCommand(commands.EmailCommands(m, cfg, logger))
	rootCmd.AddCommand(commands.SubmitCommand(cfg, logger))
	rootCmd.AddCommand(commands.ConfigCommands(cfg))
	rootCmd.AddCommand(commands.VersionCommand(cfg.OpenTelemetry.ServiceName))

	if err := rootCmd.Execute(); err != nil {
		// Deferred cleanup is skipped by os.Exit
		_ = container.Shutdown(ctx)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "adm",
		Short: "Issue Report Administration Tool",
		Long: `Issue Report Administration Tool

Inspects the configuration and issue type rules, previews ticket numbers,
tests the mail transport and submits smoke-test reports to a running server.`,
		SilenceUsage: true,

		Run: func(cmd *cobra.Command, _ []string) {
			// Show help if no subcommand provided
			if err := cmd.Help(); err != nil {
				fmt.Printf("Error showing help: %v\n", err)
			}
		},
	}
}
