// Package mailer defines the outbound mail abstraction of the issue reporting service.
package mailer

import (
	"context"

	"issuereport/internal/models"
)

// Message is a fully composed email ready for a transport.
type Message struct {
	From        string
	FromName    string
	To          []string
	ReplyTo     string
	Subject     string
	TextBody    string
	HTMLBody    string
	Headers     map[string]string
	Attachments []models.Attachment
}

// Mailer defines the interface for email sending functionality
type Mailer interface {
	// Send delivers msg once and returns the transport's message identifier.
	Send(ctx context.Context, msg *Message) (messageID string, err error)

	// IsEnabled returns whether the transport is configured to deliver mail
	IsEnabled() bool

	// Provider names the transport ("smtp", "sendgrid", "log")
	Provider() string
}
