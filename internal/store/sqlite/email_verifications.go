package sqlite

import (
	"context"

	"github.com/aiforge-cloud/aiforge/internal/domain"
	"github.com/aiforge-cloud/aiforge/internal/store"
)

type emailVerificationsRepo struct {
	db dbtx
}

func (r *emailVerificationsRepo) CreateEmailVerification(ctx context.Context, ev domain.EmailVerification) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO email_verifications (id, user_id, token_hash, expires_at, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		ev.ID, ev.UserID, ev.TokenHash, ev.ExpiresAt.UTC(), now())
	return mapConstraint(err)
}

func (r *emailVerificationsRepo) ConsumeEmailVerification(ctx context.Context, tokenHash string) (domain.EmailVerification, error) {
	var ev domain.EmailVerification
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, token_hash, expires_at, created_at
		 FROM email_verifications WHERE token_hash = ? AND expires_at > ?`,
		tokenHash, now()).
		Scan(&ev.ID, &ev.UserID, &ev.TokenHash, &ev.ExpiresAt, &ev.CreatedAt)
	if err != nil {
		return domain.EmailVerification{}, mapNotFound(err)
	}

	res, err := r.db.ExecContext(ctx,
		`DELETE FROM email_verifications WHERE token_hash = ?`, tokenHash)
	if err != nil {
		return domain.EmailVerification{}, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return domain.EmailVerification{}, err
	}
	if n == 0 {
		return domain.EmailVerification{}, store.ErrNotFound
	}
	return ev, nil
}

func (r *emailVerificationsRepo) DeleteExpiredEmailVerifications(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM email_verifications WHERE expires_at <= ?`, now())
	return err
}
