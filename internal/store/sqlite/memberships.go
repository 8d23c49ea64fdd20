package sqlite

import (
	"context"
	"strings"

	"github.com/aiforge-cloud/aiforge/internal/domain"
	"github.com/aiforge-cloud/aiforge/internal/rbac"
)

type membershipsRepo struct {
	db dbtx
}

const membershipColumns = `id, team_id, user_id, role, created_at, updated_at`

func (r *membershipsRepo) CreateMembership(ctx context.Context, m domain.Membership) error {
	ts := now()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO memberships (id, team_id, user_id, role, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		m.ID, m.TeamID, m.UserID, string(m.Role), ts, ts)
	return mapConstraint(err)
}

func (r *membershipsRepo) GetMembershipByID(ctx context.Context, id string) (domain.Membership, error) {
	var m domain.Membership
	var role string
	err := r.db.QueryRowContext(ctx,
		`SELECT `+membershipColumns+` FROM memberships WHERE id = ?`, id).
		Scan(&m.ID, &m.TeamID, &m.UserID, &role, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return domain.Membership{}, mapNotFound(err)
	}
	m.Role = rbac.Role(role)
	return m, nil
}

func (r *membershipsRepo) GetMembership(ctx context.Context, teamID, userID string) (domain.Membership, error) {
	var m domain.Membership
	var role string
	err := r.db.QueryRowContext(ctx,
		`SELECT `+membershipColumns+` FROM memberships WHERE team_id = ? AND user_id = ?`,
		teamID, userID).
		Scan(&m.ID, &m.TeamID, &m.UserID, &role, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return domain.Membership{}, mapNotFound(err)
	}
	m.Role = rbac.Role(role)
	return m, nil
}

func (r *membershipsRepo) GetMembershipByEmail(ctx context.Context, teamID, email string) (domain.Membership, error) {
	var m domain.Membership
	var role string
	err := r.db.QueryRowContext(ctx,
		`SELECT m.id, m.team_id, m.user_id, m.role, m.created_at, m.updated_at
		 FROM memberships m
		 JOIN users u ON u.id = m.user_id
		 WHERE m.team_id = ? AND u.email = ?`,
		teamID, strings.ToLower(email)).
		Scan(&m.ID, &m.TeamID, &m.UserID, &role, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return domain.Membership{}, mapNotFound(err)
	}
	m.Role = rbac.Role(role)
	return m, nil
}

func (r *membershipsRepo) ListTeamMemberships(ctx context.Context, teamID string) ([]domain.Membership, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+membershipColumns+` FROM memberships WHERE team_id = ? ORDER BY created_at`,
		teamID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []domain.Membership
	for rows.Next() {
		var m domain.Membership
		var role string
		if err := rows.Scan(&m.ID, &m.TeamID, &m.UserID, &role, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, err
		}
		m.Role = rbac.Role(role)
		members = append(members, m)
	}
	return members, rows.Err()
}

func (r *membershipsRepo) UpdateMembershipRole(ctx context.Context, membershipID string, role rbac.Role) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE memberships SET role = ?, updated_at = ? WHERE id = ?`,
		string(role), now(), membershipID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *membershipsRepo) DeleteMembership(ctx context.Context, membershipID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM memberships WHERE id = ?`, membershipID)
	if err != nil {
		return err
	}
	return requireRow(res)
}
