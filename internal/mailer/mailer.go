package mailer

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

// Email represents an email message.
type Email struct {
	To       []string
	Subject  string
	Body     string
	HTMLBody string
}

// Sender delivers emails.
type Sender interface {
	Send(ctx context.Context, email Email) error
}

type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTPMailer sends mail through an SMTP relay.
type SMTPMailer struct {
	from   string
	dialer *gomail.Dialer
}

func NewSMTPMailer(cfg Config) *SMTPMailer {
	return &SMTPMailer{
		from:   cfg.From,
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
	}
}

// Send sends a single email. gomail has no context support, so ctx is only
// checked before dialing.
func (m *SMTPMailer) Send(ctx context.Context, email Email) error {
	if len(email.To) == 0 {
		return errors.New("no recipients specified")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := gomail.NewMessage()
	m.setEmailMessage(msg, email)

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("send email %q: %w", email.Subject, err)
	}
	return nil
}

func (m *SMTPMailer) setEmailMessage(msg *gomail.Message, email Email) {
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", email.To...)
	msg.SetHeader("Subject", email.Subject)

	if email.HTMLBody != "" {
		msg.SetBody("text/html", email.HTMLBody)
		if email.Body != "" {
			msg.AddAlternative("text/plain", email.Body)
		}
	} else {
		msg.SetBody("text/plain", email.Body)
	}
}

// LogMailer writes emails to the log instead of sending them. Used when no
// SMTP host is configured.
type LogMailer struct {
	logger *zap.Logger
}

func NewLogMailer(logger *zap.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

func (m *LogMailer) Send(ctx context.Context, email Email) error {
	if len(email.To) == 0 {
		return errors.New("no recipients specified")
	}
	m.logger.Info("email not sent, smtp disabled",
		zap.Strings("to", email.To),
		zap.String("subject", email.Subject),
		zap.String("body", email.Body),
	)
	return nil
}
