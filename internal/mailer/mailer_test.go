package mailer

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"gopkg.in/gomail.v2"
)

func TestTemplates(t *testing.T) {
	e := VerifyOTPEmail("a@example.com", "123456", time.Hour)
	assert.Equal(t, []string{"a@example.com"}, e.To)
	assert.Contains(t, e.Body, "123456")
	assert.Contains(t, e.Body, "1 hour")

	r := ResetOTPEmail("a@example.com", "654321", 30*time.Minute)
	assert.Equal(t, "Account Password Reset OTP", r.Subject)
	assert.Contains(t, r.Body, "30 minutes")

	w := WelcomeEmail("a@example.com")
	assert.Contains(t, w.Body, "a@example.com")
}

func TestHumanize(t *testing.T) {
	assert.Equal(t, "2 hours", humanize(2*time.Hour))
	assert.Equal(t, "1 minute", humanize(time.Minute))
	assert.Equal(t, "1m30s", humanize(90*time.Second))
}

func TestLogMailer(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	m := NewLogMailer(zap.New(core))

	err := m.Send(context.Background(), VerifyOTPEmail("a@example.com", "123456", time.Hour))
	assert.NoError(t, err)
	assert.Equal(t, 1, logs.Len())

	assert.Error(t, m.Send(context.Background(), Email{Subject: "nobody"}))
}

func TestSMTPMailer_BuildsMessage(t *testing.T) {
	m := NewSMTPMailer(Config{Host: "localhost", Port: 2525, From: "coach@example.com"})
	msg := gomail.NewMessage()
	m.setEmailMessage(msg, Email{To: []string{"a@example.com"}, Subject: "Hi", Body: "plain", HTMLBody: "<p>html</p>"})

	assert.Equal(t, []string{"coach@example.com"}, msg.GetHeader("From"))
	assert.Equal(t, []string{"a@example.com"}, msg.GetHeader("To"))
	assert.Equal(t, []string{"Hi"}, msg.GetHeader("Subject"))
}

func TestSMTPMailer_RejectsWithoutRecipients(t *testing.T) {
	m := NewSMTPMailer(Config{Host: "localhost", Port: 2525, From: "coach@example.com"})
	assert.Error(t, m.Send(context.Background(), Email{Subject: "x"}))
}

func TestSMTPMailer_HonoursCancelledContext(t *testing.T) {
	m := NewSMTPMailer(Config{Host: "localhost", Port: 2525, From: "coach@example.com"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, m.Send(ctx, WelcomeEmail("a@example.com")), context.Canceled)
}
