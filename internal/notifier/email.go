package notifier

import (
	"context"
	"fmt"
	"io"

	"github.com/gdg-garage/groupy-loopy-api/internal/config"
	"gopkg.in/gomail.v2"
)

type Attachment struct {
	Filename string
	Data     []byte
}

type Email struct {
	To          string
	Subject     string
	HTMLBody    string
	Attachments []Attachment
}

type Mailer interface {
	Send(ctx context.Context, email Email) error
}

type SMTPMailer struct {
	from   string
	dialer *gomail.Dialer
}

func NewSMTPMailer(cfg *config.Config) *SMTPMailer {
	return &SMTPMailer{
		from:   cfg.SMTPFrom,
		dialer: gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword),
	}
}

func buildMessage(from string, email Email) *gomail.Message {
	m := gomail.NewMessage()
	m.SetHeader("From", from)
	m.SetHeader("To", email.To)
	m.SetHeader("Subject", email.Subject)
	m.SetBody("text/html", email.HTMLBody)
	for _, a := range email.Attachments {
		data := a.Data
		m.Attach(a.Filename, gomail.SetCopyFunc(func(w io.Writer) error {
			_, err := w.Write(data)
			return err
		}))
	}
	return m
}

func (m *SMTPMailer) Send(ctx context.Context, email Email) error {
	if email.To == "" {
		return fmt.Errorf("email has no recipient")
	}
	if m.dialer.Host == "" {
		return fmt.Errorf("SMTP is not configured")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := m.dialer.DialAndSend(buildMessage(m.from, email)); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}
