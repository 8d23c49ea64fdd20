package sqlite

import (
	"context"

	"github.com/aiforge-cloud/aiforge/internal/domain"
	"github.com/aiforge-cloud/aiforge/internal/store"
)

type passwordResetsRepo struct {
	db dbtx
}

func (r *passwordResetsRepo) CreatePasswordReset(ctx context.Context, pr domain.PasswordReset) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO password_resets (id, user_id, token_hash, expires_at, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		pr.ID, pr.UserID, pr.TokenHash, pr.ExpiresAt.UTC(), now())
	return mapConstraint(err)
}

// ConsumePasswordReset fetches then deletes the row keyed by the token
// fingerprint. The DELETE is conditioned on the fingerprint, so a racing
// consumer sees zero rows affected and reports not found.
func (r *passwordResetsRepo) ConsumePasswordReset(ctx context.Context, tokenHash string) (domain.PasswordReset, error) {
	var pr domain.PasswordReset
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, token_hash, expires_at, created_at
		 FROM password_resets WHERE token_hash = ? AND expires_at > ?`,
		tokenHash, now()).
		Scan(&pr.ID, &pr.UserID, &pr.TokenHash, &pr.ExpiresAt, &pr.CreatedAt)
	if err != nil {
		return domain.PasswordReset{}, mapNotFound(err)
	}

	res, err := r.db.ExecContext(ctx,
		`DELETE FROM password_resets WHERE token_hash = ?`, tokenHash)
	if err != nil {
		return domain.PasswordReset{}, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return domain.PasswordReset{}, err
	}
	if n == 0 {
		return domain.PasswordReset{}, store.ErrNotFound
	}
	return pr, nil
}

func (r *passwordResetsRepo) DeleteExpiredPasswordResets(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM password_resets WHERE expires_at <= ?`, now())
	return err
}
