package commands

import (
	"fmt"
	"os"

	"issuereport/internal/config"
	contextutils "issuereport/internal/utils"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// ConfigCommands returns the configuration commands
func ConfigCommands(cfg *config.Config) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration commands",
		Long: `Configuration commands for the issue reporting service.

Available commands:
  show      - Print the effective configuration with credentials masked
  validate  - Check the effective configuration`,
	}

	configCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Long:  `Print the configuration after defaults and environment overrides. Credentials are masked.`,
		RunE:  runShowConfig(cfg),
	})
	configCmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate the effective configuration",
		RunE:  runValidateConfig(cfg),
	})

	return configCmd
}

// runShowConfig returns a function that prints the masked configuration as YAML
func runShowConfig(cfg *config.Config) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		masked := maskedConfig(cfg)

		fmt.Fprintf(cmd.OutOrStdout(), "# config file: %s\n", configFileName())
		enc := yaml.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent(2)
		if err := enc.Encode(masked); err != nil {
			return contextutils.WrapError(err, "failed to encode configuration")
		}
		return enc.Close()
	}
}

// runValidateConfig returns a function that reports whether the configuration is usable
func runValidateConfig(cfg *config.Config) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		if err := cfg.Validate(); err != nil {
			return contextutils.WrapError(err, "configuration is invalid")
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Configuration is valid (email provider %s)\n", cfg.Email.Provider)
		return nil
	}
}

// maskedConfig returns a copy of cfg with credentials hidden
func maskedConfig(cfg *config.Config) config.Config {
	masked := *cfg
	if masked.Email.Password != "" {
		masked.Email.Password = contextutils.MaskSecret(masked.Email.Password)
	}
	if masked.Email.SendGridAPIKey != "" {
		masked.Email.SendGridAPIKey = contextutils.MaskSecret(masked.Email.SendGridAPIKey)
	}
	if len(cfg.OpenTelemetry.Headers) > 0 {
		masked.OpenTelemetry.Headers = make(map[string]string, len(cfg.OpenTelemetry.Headers))
		for k, v := range cfg.OpenTelemetry.Headers {
			masked.OpenTelemetry.Headers[k] = contextutils.MaskSecret(v)
		}
	}
	return masked
}

func configFileName() string {
	if path := os.Getenv(config.ConfigFileEnv); path != "" {
		return path
	}
	return "config.yaml"
}
