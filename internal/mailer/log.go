package mailer

import (
	"context"
	"log/slog"
)

// LogMailer writes would-be deliveries to the log. Used in development and in
// tests, where a relay is not available.
type LogMailer struct {
	log *slog.Logger
}

func NewLogMailer(log *slog.Logger) *LogMailer {
	return &LogMailer{log: log}
}

func (m *LogMailer) SendInvitation(ctx context.Context, to, teamName, inviterEmail, token string) error {
	m.log.InfoContext(ctx, "mail: team invitation",
		"to", to, "team", teamName, "invited_by", inviterEmail)
	return nil
}

func (m *LogMailer) SendPasswordReset(ctx context.Context, to, token string) error {
	m.log.InfoContext(ctx, "mail: password reset", "to", to)
	return nil
}

func (m *LogMailer) SendEmailVerification(ctx context.Context, to, token string) error {
	m.log.InfoContext(ctx, "mail: email verification", "to", to)
	return nil
}
