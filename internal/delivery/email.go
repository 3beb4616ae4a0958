package delivery

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/Elevated-Garage/contact-solomon/internal/domain"
	"github.com/wneessen/go-mail"
)

// EmailSink mails the summary PDF to the project team.
type EmailSink struct {
	client *mail.Client
	from   string
	to     string
}

// EmailConfig holds SMTP settings for the email sink.
type EmailConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	To       string
}

// NewEmailSink builds an SMTP-backed email sink. PLAIN auth is used only
// when a username is configured; an unauthenticated relay gets none.
func NewEmailSink(cfg EmailConfig) (*EmailSink, error) {
	opts := []mail.Option{mail.WithPort(cfg.Port)}
	if cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password),
		)
	}

	client, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("create mail client: %w", err)
	}
	return &EmailSink{client: client, from: cfg.From, to: cfg.To}, nil
}

// Name identifies the sink in logs and delivery records.
func (e *EmailSink) Name() string { return "email" }

// Deliver sends the summary PDF as an attachment with a short plain-text
// digest of the collected fields in the body.
func (e *EmailSink) Deliver(ctx context.Context, s Summary) error {
	msg := mail.NewMsg()
	if err := msg.From(e.from); err != nil {
		return fmt.Errorf("set sender: %w", err)
	}
	if err := msg.To(e.to); err != nil {
		return fmt.Errorf("set recipient: %w", err)
	}

	name := s.Fields[domain.FieldFullName]
	if name == "" {
		name = "a new visitor"
	}
	msg.Subject(fmt.Sprintf("New garage intake from %s", name))
	msg.SetBodyString(mail.TypeTextPlain, digest(s))
	if err := msg.AttachReader("intake-summary.pdf", bytes.NewReader(s.Document)); err != nil {
		return fmt.Errorf("attach summary: %w", err)
	}

	if err := e.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("send summary email: %w", err)
	}
	return nil
}

func digest(s Summary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Intake session %s completed at %s with %d photo(s).\n\n",
		s.SessionID, s.CompletedAt.Format("Jan 2 2006 15:04 MST"), s.PhotoCount)
	for _, field := range domain.FieldOrder {
		value := s.Fields[field]
		if value == "" {
			value = "N/A"
		}
		fmt.Fprintf(&b, "%s: %s\n", domain.FieldLabel(field), value)
	}
	b.WriteString("\nThe full summary PDF is attached.\n")
	return b.String()
}
