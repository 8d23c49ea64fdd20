package sqlite

import (
	"context"
	"time"

	"github.com/aiforge-cloud/aiforge/internal/domain"
)

type verificationGatesRepo struct {
	db dbtx
}

func (r *verificationGatesRepo) UpsertGate(ctx context.Context, userID string, expiresAt time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO verification_gates (user_id, expires_at) VALUES (?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET expires_at = excluded.expires_at`,
		userID, expiresAt.UTC())
	return err
}

func (r *verificationGatesRepo) GetGate(ctx context.Context, userID string) (domain.VerificationGate, error) {
	var g domain.VerificationGate
	err := r.db.QueryRowContext(ctx,
		`SELECT user_id, expires_at FROM verification_gates WHERE user_id = ? AND expires_at > ?`,
		userID, now()).
		Scan(&g.UserID, &g.ExpiresAt)
	if err != nil {
		return domain.VerificationGate{}, mapNotFound(err)
	}
	return g, nil
}

func (r *verificationGatesRepo) DeleteExpiredGates(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM verification_gates WHERE expires_at <= ?`, now())
	return err
}
