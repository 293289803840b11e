package notify

import (
	"bytes"
	"context"
	"fmt"
	"net/smtp"
	"text/template"
)

// TemplateVars holds the substitution values for an email body template.
type TemplateVars map[string]string

// Mailer sends a templated message to an address.
type Mailer interface {
	SendTemplated(ctx context.Context, toAddress, subject, bodyTemplate string, vars TemplateVars) error
}

// SMTPConfig configures the SMTP mailer. Username may be empty for servers
// that accept unauthenticated relay (local dev).
type SMTPConfig struct {
	Host     string
	Port     int
	From     string
	Username string
	Password string
}

// SMTPMailer delivers mail over plain SMTP.
type SMTPMailer struct {
	cfg SMTPConfig
	// sendFunc is swappable for tests; defaults to smtp.SendMail.
	sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewSMTPMailer(cfg SMTPConfig) *SMTPMailer {
	return &SMTPMailer{cfg: cfg, sendFunc: smtp.SendMail}
}

var _ Mailer = (*SMTPMailer)(nil)

func (m *SMTPMailer) SendTemplated(ctx context.Context, toAddress, subject, bodyTemplate string, vars TemplateVars) error {
	tmpl, err := template.New("email").Parse(bodyTemplate)
	if err != nil {
		return fmt.Errorf("failed to parse email template: %w", err)
	}
	var body bytes.Buffer
	if err := tmpl.Execute(&body, vars); err != nil {
		return fmt.Errorf("failed to render email template: %w", err)
	}

	var msg bytes.Buffer
	fmt.Fprintf(&msg, "From: %s\r\n", m.cfg.From)
	fmt.Fprintf(&msg, "To: %s\r\n", toAddress)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n")
	msg.Write(body.Bytes())

	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}
	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)
	if err := m.sendFunc(addr, auth, m.cfg.From, []string{toAddress}, msg.Bytes()); err != nil {
		return fmt.Errorf("smtp send to %s failed: %w", toAddress, err)
	}
	return nil
}
