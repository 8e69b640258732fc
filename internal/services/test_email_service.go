package services

import (
	"context"
	"strings"
	"sync"

	"issuereport/internal/config"
	"issuereport/internal/observability"
	"issuereport/internal/services/mailer"
	contextutils "issuereport/internal/utils"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// TestEmailService implements the Mailer interface without delivering anything.
// It logs each message and keeps a copy so tests and local runs can inspect it.
type TestEmailService struct {
	cfg    *config.Config
	logger *observability.Logger

	mu   sync.Mutex
	sent []mailer.Message
}

// NewTestEmailService creates a new TestEmailService instance
func NewTestEmailService(cfg *config.Config, logger *observability.Logger) *TestEmailService {
	return &TestEmailService{
		cfg:    cfg,
		logger: logger,
	}
}

// Send logs msg and records it (test mode)
func (e *TestEmailService) Send(ctx context.Context, msg *mailer.Message) (string, error) {
	if msg == nil {
		return "", contextutils.ErrorWithContextf("message is nil")
	}

	ctx, span := otel.Tracer("test-email-service").Start(ctx, "Send",
		trace.WithAttributes(
			attribute.String("email.to", strings.Join(msg.To, ",")),
			attribute.String("email.subject", msg.Subject),
			attribute.Int("email.attachments", len(msg.Attachments)),
		),
	)
	defer span.End()

	if len(msg.To) == 0 {
		err := contextutils.ErrorWithContextf("message has no recipients")
		span.RecordError(err)
		return "", err
	}

	messageID := newMessageID(msg.From)

	e.mu.Lock()
	e.sent = append(e.sent, *msg)
	e.mu.Unlock()

	e.logger.Info(ctx, "TEST MODE: Would send email", map[string]interface{}{
		"to":          strings.Join(msg.To, ","),
		"reply_to":    contextutils.MaskEmail(msg.ReplyTo),
		"subject":     msg.Subject,
		"attachments": len(msg.Attachments),
		"message_id":  messageID,
		"test_mode":   true,
	})

	return messageID, nil
}

// Sent returns a copy of every message handed to Send so far
func (e *TestEmailService) Sent() []mailer.Message {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]mailer.Message, len(e.sent))
	copy(out, e.sent)
	return out
}

// IsEnabled returns whether email functionality is enabled (always true for test service)
func (e *TestEmailService) IsEnabled() bool {
	return true
}

// Provider returns the transport name
func (e *TestEmailService) Provider() string {
	return config.EmailProviderLog
}

var _ mailer.Mailer = (*TestEmailService)(nil)
