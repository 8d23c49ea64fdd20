// Package mailer delivers transactional email for team invitations, password
// resets and address verification. Delivery failures are the caller's to log;
// none of the flows treat a failed send as fatal.
package mailer

import "context"

type Mailer interface {
	// SendInvitation mails a join link for a team. The token is the raw
	// invitation secret; only its fingerprint is stored server side.
	SendInvitation(ctx context.Context, to, teamName, inviterEmail, token string) error

	SendPasswordReset(ctx context.Context, to, token string) error

	SendEmailVerification(ctx context.Context, to, token string) error
}
