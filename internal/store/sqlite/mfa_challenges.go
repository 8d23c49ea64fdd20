package sqlite

import (
	"context"

	"github.com/aiforge-cloud/aiforge/internal/domain"
)

type mfaChallengesRepo struct {
	db dbtx
}

const mfaChallengeColumns = `id, user_id, attempts, expires_at, created_at`

func scanMFAChallenge(scan func(dest ...any) error) (domain.MFAChallenge, error) {
	var c domain.MFAChallenge
	err := scan(&c.ID, &c.UserID, &c.Attempts, &c.ExpiresAt, &c.CreatedAt)
	if err != nil {
		return domain.MFAChallenge{}, mapNotFound(err)
	}
	return c, nil
}

func (r *mfaChallengesRepo) CreateChallenge(ctx context.Context, c domain.MFAChallenge) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO mfa_challenges (id, user_id, attempts, expires_at, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		c.ID, c.UserID, c.Attempts, c.ExpiresAt.UTC(), now())
	return mapConstraint(err)
}

func (r *mfaChallengesRepo) GetChallenge(ctx context.Context, id string) (domain.MFAChallenge, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+mfaChallengeColumns+` FROM mfa_challenges WHERE id = ? AND expires_at > ?`,
		id, now())
	return scanMFAChallenge(row.Scan)
}

func (r *mfaChallengesRepo) IncrementChallengeAttempts(ctx context.Context, id string) (domain.MFAChallenge, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE mfa_challenges SET attempts = attempts + 1 WHERE id = ?`, id)
	if err != nil {
		return domain.MFAChallenge{}, err
	}
	if err := requireRow(res); err != nil {
		return domain.MFAChallenge{}, err
	}
	row := r.db.QueryRowContext(ctx,
		`SELECT `+mfaChallengeColumns+` FROM mfa_challenges WHERE id = ?`, id)
	return scanMFAChallenge(row.Scan)
}

func (r *mfaChallengesRepo) DeleteChallenge(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM mfa_challenges WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *mfaChallengesRepo) DeleteExpiredChallenges(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM mfa_challenges WHERE expires_at <= ?`, now())
	return err
}
