package services

import (
	"testing"

	"issuereport/internal/config"
	"issuereport/internal/observability"

	"github.com/stretchr/testify/assert"
)

func TestCreateEmailService(t *testing.T) {
	logger := observability.NewLogger(&config.OpenTelemetryConfig{EnableLogging: false})

	tests := []struct {
		name     string
		cfg      *config.Config
		expected interface{}
		provider string
	}{
		{
			name:     "test mode wins over provider",
			cfg:      &config.Config{IsTest: true, Email: config.EmailConfig{Provider: config.EmailProviderSendGrid}},
			expected: &TestEmailService{},
			provider: config.EmailProviderLog,
		},
		{
			name:     "log provider",
			cfg:      &config.Config{Email: config.EmailConfig{Provider: config.EmailProviderLog}},
			expected: &TestEmailService{},
			provider: config.EmailProviderLog,
		},
		{
			name:     "sendgrid provider",
			cfg:      &config.Config{Email: config.EmailConfig{Provider: config.EmailProviderSendGrid, SendGridAPIKey: "SG.key"}},
			expected: &SendGridMailer{},
			provider: config.EmailProviderSendGrid,
		},
		{
			name:     "smtp provider",
			cfg:      &config.Config{Email: config.EmailConfig{Provider: config.EmailProviderSMTP, Host: "smtp.example.com"}},
			expected: &EmailService{},
			provider: config.EmailProviderSMTP,
		},
		{
			name:     "empty provider defaults to smtp",
			cfg:      &config.Config{Email: config.EmailConfig{Host: "smtp.example.com"}},
			expected: &EmailService{},
			provider: config.EmailProviderSMTP,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := CreateEmailService(tt.cfg, logger)
			assert.IsType(t, tt.expected, service)
			assert.Equal(t, tt.provider, service.Provider())
			assert.True(t, service.IsEnabled())
		})
	}
}
