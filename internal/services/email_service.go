// Package services provides the business logic of the issue reporting service.
package services

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"issuereport/internal/config"
	"issuereport/internal/observability"
	"issuereport/internal/services/mailer"
	contextutils "issuereport/internal/utils"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"gopkg.in/mail.v2"
)

// EmailService delivers messages over SMTP
type EmailService struct {
	cfg    *config.Config
	logger *observability.Logger
	dialer *mail.Dialer
	// send performs the actual SMTP exchange; replaced in tests
	send func(d *mail.Dialer, m ...*mail.Message) error
}

// NewEmailService creates a new SMTP EmailService instance
func NewEmailService(cfg *config.Config, logger *observability.Logger) *EmailService {
	var dialer *mail.Dialer
	if cfg.Email.Host != "" {
		dialer = mail.NewDialer(cfg.Email.Host, cfg.Email.Port, cfg.Email.User, cfg.Email.Password)
		dialer.SSL = cfg.Email.Secure
		dialer.Timeout = cfg.Email.Timeout()
		if !cfg.Email.Secure {
			dialer.StartTLSPolicy = mail.OpportunisticStartTLS
		}
	}

	return &EmailService{
		cfg:    cfg,
		logger: logger,
		dialer: dialer,
		send:   (*mail.Dialer).DialAndSend,
	}
}

// Send delivers msg over SMTP exactly once and returns the generated Message-ID
func (e *EmailService) Send(ctx context.Context, msg *mailer.Message) (result0 string, err error) {
	ctx, span := observability.TraceEmailFunction(ctx, "send_smtp",
		observability.AttributeEmailProvider(config.EmailProviderSMTP),
		observability.AttributeAttachmentCount(len(msg.Attachments)),
		attribute.String("email.subject", msg.Subject),
	)
	defer observability.FinishSpan(span, &err)

	if !e.IsEnabled() {
		return "", contextutils.ErrEmailNotConfigured
	}

	m, messageID := buildSMTPMessage(msg)

	if err := e.send(e.dialer, m); err != nil {
		e.logger.Error(ctx, "Failed to send email", err, map[string]interface{}{
			"host":    e.cfg.Email.Host,
			"port":    e.cfg.Email.Port,
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

	span.SetAttributes(attribute.String("email.message_id", messageID))
	e.logger.Info(ctx, "Email sent successfully", map[string]interface{}{
		"to":          strings.Join(msg.To, ","),
		"subject":     msg.Subject,
		"message_id":  messageID,
		"attachments": len(msg.Attachments),
	})

	return messageID, nil
}

// IsEnabled returns whether an SMTP host is configured
func (e *EmailService) IsEnabled() bool {
	return e.dialer != nil
}

// Provider returns the transport name
func (e *EmailService) Provider() string {
	return config.EmailProviderSMTP
}

func buildSMTPMessage(msg *mailer.Message) (*mail.Message, string) {
	m := mail.NewMessage()

	if msg.FromName != "" {
		m.SetAddressHeader("From", msg.From, msg.FromName)
	} else {
		m.SetHeader("From", msg.From)
	}
	m.SetHeader("To", msg.To...)
	if msg.ReplyTo != "" {
		m.SetHeader("Reply-To", msg.ReplyTo)
	}
	m.SetHeader("Subject", msg.Subject)

	messageID := newMessageID(msg.From)
	m.SetHeader("Message-ID", messageID)
	for k, v := range msg.Headers {
		m.SetHeader(k, v)
	}

	switch {
	case msg.TextBody != "" && msg.HTMLBody != "":
		m.SetBody("text/plain", msg.TextBody)
		m.AddAlternative("text/html", msg.HTMLBody)
	case msg.HTMLBody != "":
		m.SetBody("text/html", msg.HTMLBody)
	default:
		m.SetBody("text/plain", msg.TextBody)
	}

	for _, a := range msg.Attachments {
		m.AttachReader(a.Name, bytes.NewReader(a.Data), mail.SetHeader(map[string][]string{
			"Content-Type": {fmt.Sprintf("%s; name=%q", a.ContentType, a.Name)},
		}))
	}

	return m, messageID
}

// newMessageID returns an RFC 5322 Message-ID scoped to the sender's domain
func newMessageID(from string) string {
	domain := "localhost"
	if at := strings.LastIndex(from, "@"); at >= 0 && at < len(from)-1 {
		domain = strings.TrimSuffix(from[at+1:], ">")
	}
	return fmt.Sprintf("<%s@%s>", uuid.NewString(), domain)
}

var _ mailer.Mailer = (*EmailService)(nil)
