package services

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"

	"issuereport/internal/config"
	"issuereport/internal/observability"
	"issuereport/internal/services/mailer"
	contextutils "issuereport/internal/utils"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.opentelemetry.io/otel/attribute"
)

// sendGridClient is the subset of the SendGrid client used for delivery
type sendGridClient interface {
	SendWithContext(ctx context.Context, email *sgmail.SGMailV3) (*rest.Response, error)
}

// SendGridMailer delivers messages through the SendGrid v3 API
type SendGridMailer struct {
	cfg    *config.Config
	logger *observability.Logger
	client sendGridClient
}

// NewSendGridMailer creates a SendGridMailer using the configured API key
func NewSendGridMailer(cfg *config.Config, logger *observability.Logger) *SendGridMailer {
	var client sendGridClient
	if cfg.Email.SendGridAPIKey != "" {
		client = sendgrid.NewSendClient(cfg.Email.SendGridAPIKey)
	}
	return &SendGridMailer{cfg: cfg, logger: logger, client: client}
}

// Send posts msg to SendGrid once and returns the X-Message-Id it assigns
func (s *SendGridMailer) Send(ctx context.Context, msg *mailer.Message) (result0 string, err error) {
	ctx, span := observability.TraceEmailFunction(ctx, "send_sendgrid",
		observability.AttributeEmailProvider(config.EmailProviderSendGrid),
		observability.AttributeAttachmentCount(len(msg.Attachments)),
	)
	defer observability.FinishSpan(span, &err)

	if !s.IsEnabled() {
		return "", contextutils.ErrEmailNotConfigured
	}

	resp, err := s.client.SendWithContext(ctx, buildSendGridMessage(msg))
	if err != nil {
		s.logger.Error(ctx, "SendGrid request failed", err, map[string]interface{}{
			"to":      strings.Join(msg.To, ","),
			"subject": msg.Subject,
		})
		return "", contextutils.NewAppErrorWithCause(
			contextutils.ErrorCodeEmailSendFailed,
			contextutils.SeverityError,
			"Failed to send email",
			err.Error(),
			err,
		)
	}

	span.SetAttributes(attribute.Int("sendgrid.status_code", resp.StatusCode))
	if resp.StatusCode >= http.StatusMultipleChoices {
		s.logger.Error(ctx, "SendGrid rejected message", nil, map[string]interface{}{
			"status_code": resp.StatusCode,
			"body":        resp.Body,
		})
		return "", contextutils.NewAppError(
			contextutils.ErrorCodeEmailSendFailed,
			contextutils.SeverityError,
			"Failed to send email",
			fmt.Sprintf("sendgrid returned status %d: %s", resp.StatusCode, resp.Body),
		)
	}

	messageID := ""
	if ids := resp.Headers["X-Message-Id"]; len(ids) > 0 {
		messageID = ids[0]
	}

	s.logger.Info(ctx, "Email sent successfully", map[string]interface{}{
		"provider":   config.EmailProviderSendGrid,
		"subject":    msg.Subject,
		"message_id": messageID,
	})

	return messageID, nil
}

// IsEnabled returns whether an API key is configured
func (s *SendGridMailer) IsEnabled() bool {
	return s.client != nil
}

// Provider returns the transport name
func (s *SendGridMailer) Provider() string {
	return config.EmailProviderSendGrid
}

func buildSendGridMessage(msg *mailer.Message) *sgmail.SGMailV3 {
	m := sgmail.NewV3Mail()
	m.SetFrom(sgmail.NewEmail(msg.FromName, msg.From))
	m.Subject = msg.Subject

	p := sgmail.NewPersonalization()
	for _, to := range msg.To {
		p.AddTos(sgmail.NewEmail("", to))
	}
	m.AddPersonalizations(p)

	if msg.ReplyTo != "" {
		m.SetReplyTo(sgmail.NewEmail("", msg.ReplyTo))
	}

	// SendGrid requires text/plain before text/html
	if msg.TextBody != "" {
		m.AddContent(sgmail.NewContent("text/plain", msg.TextBody))
	}
	if msg.HTMLBody != "" {
		m.AddContent(sgmail.NewContent("text/html", msg.HTMLBody))
	}

	for k, v := range msg.Headers {
		m.SetHeader(k, v)
	}

	for _, a := range msg.Attachments {
		att := sgmail.NewAttachment()
		att.SetContent(base64.StdEncoding.EncodeToString(a.Data))
		att.SetType(a.ContentType)
		att.SetFilename(a.Name)
		att.SetDisposition("attachment")
		m.AddAttachment(att)
	}

	return m
}

var _ mailer.Mailer = (*SendGridMailer)(nil)
