package services

import (
	"context"

	"issuereport/internal/config"
	"issuereport/internal/observability"
	"issuereport/internal/services/mailer"
)

// CreateEmailService creates an appropriate email service based on configuration.
// Test mode and the "log" provider get a TestEmailService, "sendgrid" gets a
// SendGridMailer and anything else is delivered over SMTP.
func CreateEmailService(cfg *config.Config, logger *observability.Logger) mailer.Mailer {
	if cfg.IsTest {
		logger.Info(context.Background(), "Using test email service", map[string]interface{}{
			"test_mode": true,
		})
		return NewTestEmailService(cfg, logger)
	}

	switch cfg.Email.Provider {
	case config.EmailProviderLog:
		logger.Info(context.Background(), "Using log email service", map[string]interface{}{
			"provider": cfg.Email.Provider,
		})
		return NewTestEmailService(cfg, logger)
	case config.EmailProviderSendGrid:
		return NewSendGridMailer(cfg, logger)
	default:
		return NewEmailService(cfg, logger)
	}
}
