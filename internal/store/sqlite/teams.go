package sqlite

import (
	"context"

	"github.com/aiforge-cloud/aiforge/internal/domain"
)

type teamsRepo struct {
	db dbtx
}

func (r *teamsRepo) CreateTeam(ctx context.Context, t domain.Team) error {
	ts := now()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO teams (id, slug, name, icon, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		t.ID, t.Slug, t.Name, t.Icon, ts, ts)
	return mapConstraint(err)
}

func (r *teamsRepo) GetTeamByID(ctx context.Context, id string) (domain.Team, error) {
	var t domain.Team
	err := r.db.QueryRowContext(ctx,
		`SELECT id, slug, name, icon, created_at, updated_at FROM teams WHERE id = ?`, id).
		Scan(&t.ID, &t.Slug, &t.Name, &t.Icon, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return domain.Team{}, mapNotFound(err)
	}
	return t, nil
}

func (r *teamsRepo) UpdateTeam(ctx context.Context, teamID, name, icon string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE teams SET name = ?, icon = ?, updated_at = ? WHERE id = ?`,
		name, icon, now(), teamID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *teamsRepo) DeleteTeam(ctx context.Context, teamID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM teams WHERE id = ?`, teamID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *teamsRepo) ListTeamsForUser(ctx context.Context, userID string) ([]domain.Team, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT t.id, t.slug, t.name, t.icon, t.created_at, t.updated_at
		 FROM teams t
		 JOIN memberships m ON m.team_id = t.id
		 WHERE m.user_id = ?
		 ORDER BY t.created_at`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var teams []domain.Team
	for rows.Next() {
		var t domain.Team
		if err := rows.Scan(&t.ID, &t.Slug, &t.Name, &t.Icon, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		teams = append(teams, t)
	}
	return teams, rows.Err()
}
