package mailer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

// MockMailer implements Mailer for testing
type MockMailer struct {
	Sent            []*Message
	MessageID       string
	Err             error
	IsEnabledResult bool
}

func (m *MockMailer) Send(_ context.Context, msg *Message) (string, error) {
	if m.Err != nil {
		return "", m.Err
	}
	m.Sent = append(m.Sent, msg)
	return m.MessageID, nil
}

func (m *MockMailer) IsEnabled() bool {
	return m.IsEnabledResult
}

func (m *MockMailer) Provider() string {
	return "mock"
}

func TestMailerInterface_Implementation(t *testing.T) {
	var _ Mailer = (*MockMailer)(nil)

	mock := &MockMailer{MessageID: "<abc@example.com>"}
	ctx := context.Background()

	id, err := mock.Send(ctx, &Message{
		From:    "noreply@example.com",
		To:      []string{"support@eldrive.eu"},
		ReplyTo: "ivan@example.com",
		Subject: "Issue Type (BG): Payment issues - Ticket #BG-20240305-1234",
	})
	assert.NoError(t, err)
	assert.Equal(t, "<abc@example.com>", id)
	assert.Len(t, mock.Sent, 1)
	assert.Equal(t, "ivan@example.com", mock.Sent[0].ReplyTo)

	assert.False(t, mock.IsEnabled()) // Default value
	mock.IsEnabledResult = true
	assert.True(t, mock.IsEnabled())
}

func TestMailerInterface_PropagatesError(t *testing.T) {
	mock := &MockMailer{Err: assert.AnError}

	id, err := mock.Send(context.Background(), &Message{})
	assert.ErrorIs(t, err, assert.AnError)
	assert.Empty(t, id)
	assert.Empty(t, mock.Sent)
}
