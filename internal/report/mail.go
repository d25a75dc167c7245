package report

import (
	"context"
	"fmt"

	"github.com/wneessen/go-mail"

	apperrors "github.com/shuhanlo/tcm-linebot-go/internal/errors"
)

// SMTPMailer delivers reports over SMTP with STARTTLS.
type SMTPMailer struct {
	host     string
	port     int
	username string
	password string
	from     string
	to       string
}

// SMTPConfig holds the SMTP connection and addressing settings.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	To       string
}

// NewSMTPMailer creates a mailer from SMTP settings.
func NewSMTPMailer(cfg SMTPConfig) *SMTPMailer {
	return &SMTPMailer{
		host:     cfg.Host,
		port:     cfg.Port,
		username: cfg.Username,
		password: cfg.Password,
		from:     cfg.From,
		to:       cfg.To,
	}
}

// Send delivers one plain-text message to the configured recipient.
func (m *SMTPMailer) Send(ctx context.Context, subject, body string) error {
	msg := mail.NewMsg()
	if err := msg.From(m.from); err != nil {
		return fmt.Errorf("invalid sender address %q: %w", m.from, err)
	}
	if err := msg.To(m.to); err != nil {
		return fmt.Errorf("invalid recipient address %q: %w", m.to, err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, body)

	client, err := mail.NewClient(m.host,
		mail.WithPort(m.port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(m.username),
		mail.WithPassword(m.password),
		mail.WithTLSPolicy(mail.TLSMandatory),
	)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return apperrors.NewUpstreamError("smtp", 0, fmt.Errorf("send report: %w", err))
	}
	return nil
}
