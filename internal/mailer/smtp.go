package mailer

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
)

// SMTPConfig holds connection details for a plain SMTP relay.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string

	// BaseURL is the public web origin used to build links in message
	// bodies, e.g. https://console.aiforge.dev.
	BaseURL string
}

// SMTPMailer sends mail through a relay using AUTH PLAIN. It is deliberately
// minimal: one message per connection, text/plain bodies.
type SMTPMailer struct {
	cfg SMTPConfig
}

func NewSMTPMailer(cfg SMTPConfig) *SMTPMailer {
	return &SMTPMailer{cfg: cfg}
}

func (m *SMTPMailer) SendInvitation(ctx context.Context, to, teamName, inviterEmail, token string) error {
	subject := fmt.Sprintf("You've been invited to join %s", teamName)
	body := fmt.Sprintf(
		"%s has invited you to join the team %q.\n\nAccept the invitation:\n%s/invitations/accept?token=%s\n\nThis link expires in 7 days.\n",
		inviterEmail, teamName, m.cfg.BaseURL, token)
	return m.send(ctx, to, subject, body)
}

func (m *SMTPMailer) SendPasswordReset(ctx context.Context, to, token string) error {
	body := fmt.Sprintf(
		"A password reset was requested for your account.\n\nReset your password:\n%s/reset-password?token=%s\n\nIf you did not request this, you can ignore this message.\n",
		m.cfg.BaseURL, token)
	return m.send(ctx, to, "Reset your password", body)
}

func (m *SMTPMailer) SendEmailVerification(ctx context.Context, to, token string) error {
	body := fmt.Sprintf(
		"Confirm your email address:\n%s/verify-email?token=%s\n",
		m.cfg.BaseURL, token)
	return m.send(ctx, to, "Verify your email", body)
}

func (m *SMTPMailer) send(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", m.cfg.From)
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(body)

	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)
	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}
	if err := smtp.SendMail(addr, auth, m.cfg.From, []string{to}, []byte(msg.String())); err != nil {
		return fmt.Errorf("smtp send to %s: %w", to, err)
	}
	return nil
}
