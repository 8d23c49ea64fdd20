package sqlite

import (
	"context"
	"strings"
	"time"

	"github.com/aiforge-cloud/aiforge/internal/domain"
	"github.com/aiforge-cloud/aiforge/internal/rbac"
)

type invitationsRepo struct {
	db dbtx
}

const invitationColumns = `id, team_id, email, role, token_hash, status, invited_by, expires_at, created_at, updated_at`

func scanInvitation(scan func(dest ...any) error) (domain.Invitation, error) {
	var inv domain.Invitation
	var role, status string
	err := scan(&inv.ID, &inv.TeamID, &inv.Email, &role, &inv.TokenHash,
		&status, &inv.InvitedBy, &inv.ExpiresAt, &inv.CreatedAt, &inv.UpdatedAt)
	if err != nil {
		return domain.Invitation{}, mapNotFound(err)
	}
	inv.Role = rbac.Role(role)
	inv.Status = domain.InvitationStatus(status)
	return inv, nil
}

func (r *invitationsRepo) CreateInvitation(ctx context.Context, inv domain.Invitation) error {
	ts := now()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO invitations (id, team_id, email, role, token_hash, status, invited_by, expires_at, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		inv.ID, inv.TeamID, strings.ToLower(inv.Email), string(inv.Role), inv.TokenHash,
		string(inv.Status), inv.InvitedBy, inv.ExpiresAt, ts, ts)
	return mapConstraint(err)
}

func (r *invitationsRepo) GetInvitationByID(ctx context.Context, id string) (domain.Invitation, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+invitationColumns+` FROM invitations WHERE id = ?`, id)
	return scanInvitation(row.Scan)
}

func (r *invitationsRepo) GetInvitationByTokenHash(ctx context.Context, hash string) (domain.Invitation, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+invitationColumns+` FROM invitations WHERE token_hash = ?`, hash)
	return scanInvitation(row.Scan)
}

func (r *invitationsRepo) ListTeamInvitations(ctx context.Context, teamID string) ([]domain.Invitation, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+invitationColumns+` FROM invitations WHERE team_id = ? ORDER BY created_at DESC`,
		teamID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var invs []domain.Invitation
	for rows.Next() {
		inv, err := scanInvitation(rows.Scan)
		if err != nil {
			return nil, err
		}
		invs = append(invs, inv)
	}
	return invs, rows.Err()
}

func (r *invitationsRepo) TransitionInvitation(ctx context.Context, id string, from, to domain.InvitationStatus) error {
	// The status guard in the WHERE clause is what makes terminal states
	// terminal; losing a race means zero rows and ErrNotFound.
	res, err := r.db.ExecContext(ctx,
		`UPDATE invitations SET status = ?, updated_at = ? WHERE id = ? AND status = ?`,
		string(to), now(), id, string(from))
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *invitationsRepo) ExpireStalePending(ctx context.Context, nowAt time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE invitations SET status = ?, updated_at = ?
		 WHERE status = ? AND expires_at < ?`,
		string(domain.InvitationExpired), nowAt.UTC(),
		string(domain.InvitationPending), nowAt.UTC())
	return err
}

func (r *invitationsRepo) ExpireStalePendingFor(ctx context.Context, teamID, email string, nowAt time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE invitations SET status = ?, updated_at = ?
		 WHERE team_id = ? AND email = ? AND status = ? AND expires_at < ?`,
		string(domain.InvitationExpired), nowAt.UTC(),
		teamID, email, string(domain.InvitationPending), nowAt.UTC())
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
