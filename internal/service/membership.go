package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aiforge-cloud/aiforge/internal/domain"
	"github.com/aiforge-cloud/aiforge/internal/rbac"
	"github.com/aiforge-cloud/aiforge/internal/store"
	"github.com/aiforge-cloud/aiforge/pkg/slogx"
)

var (
	ErrCannotModifyOwner        = errors.New("the owner's role cannot be changed")
	ErrCannotRemoveOwner        = errors.New("the owner cannot be removed")
	ErrCannotRemoveSelf         = errors.New("members cannot remove themselves")
	ErrOnlyOwnerPromotesToAdmin = errors.New("only the owner can promote members to admin")
)

type MembershipService struct {
	Store store.Store
}

// UpdateRole changes a member's role to ADMIN or MEMBER. Checks run in a
// fixed order so callers see deterministic, specific failures: existence,
// the owner special case, role hierarchy, then the actor's capability.
// Promotion to ADMIN is additionally restricted to the owner.
func (s *MembershipService) UpdateRole(
	ctx context.Context,
	actor domain.Actor,
	teamID string,
	membershipID string,
	newRole rbac.Role,
) error {
	log := slogx.FromContext(ctx)

	if newRole != rbac.RoleAdmin && newRole != rbac.RoleMember {
		return ErrInvalidRole
	}

	target, err := s.Store.Memberships().GetMembershipByID(ctx, membershipID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrMembershipNotFound
		}
		return fmt.Errorf("fetch membership: %w", err)
	}
	if target.TeamID != teamID {
		return ErrMembershipNotFound
	}

	if target.Role == rbac.RoleOwner {
		return ErrCannotModifyOwner
	}

	actorMembership, err := requireMembership(ctx, s.Store, actor, teamID)
	if err != nil {
		return err
	}
	if !rbac.CanManageRole(actorMembership.Role, target.Role, rbac.ActionChangeRole) {
		return ErrForbidden
	}
	if !rbac.Can(actorMembership.Role, rbac.CapUpdateMemberRoles) {
		return ErrForbidden
	}
	if newRole == rbac.RoleAdmin && actorMembership.Role != rbac.RoleOwner {
		return ErrOnlyOwnerPromotesToAdmin
	}

	if err := s.Store.Memberships().UpdateMembershipRole(ctx, membershipID, newRole); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrMembershipNotFound
		}
		return fmt.Errorf("update membership role: %w", err)
	}

	log.Info("membership role updated",
		slog.String("membership_id", membershipID),
		slog.String("team_id", teamID),
		slog.String("new_role", string(newRole)),
		slog.String("actor_id", actor.UserID),
	)
	return nil
}

// Remove deletes a membership. Same check order as UpdateRole, with the
// additional self-removal guard.
func (s *MembershipService) Remove(
	ctx context.Context,
	actor domain.Actor,
	teamID string,
	membershipID string,
) error {
	log := slogx.FromContext(ctx)

	target, err := s.Store.Memberships().GetMembershipByID(ctx, membershipID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrMembershipNotFound
		}
		return fmt.Errorf("fetch membership: %w", err)
	}
	if target.TeamID != teamID {
		return ErrMembershipNotFound
	}

	if target.Role == rbac.RoleOwner {
		return ErrCannotRemoveOwner
	}
	if target.UserID == actor.UserID {
		return ErrCannotRemoveSelf
	}

	actorMembership, err := requireMembership(ctx, s.Store, actor, teamID)
	if err != nil {
		return err
	}
	if !rbac.CanManageRole(actorMembership.Role, target.Role, rbac.ActionRemove) {
		return ErrForbidden
	}
	if !rbac.Can(actorMembership.Role, rbac.CapRemoveMembers) {
		return ErrForbidden
	}

	if err := s.Store.Memberships().DeleteMembership(ctx, membershipID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrMembershipNotFound
		}
		return fmt.Errorf("delete membership: %w", err)
	}

	log.Info("membership removed",
		slog.String("membership_id", membershipID),
		slog.String("team_id", teamID),
		slog.String("removed_user_id", target.UserID),
		slog.String("actor_id", actor.UserID),
	)
	return nil
}

// List returns a team's memberships. Any member may view the roster.
func (s *MembershipService) List(ctx context.Context, actor domain.Actor, teamID string) ([]domain.Membership, error) {
	if _, err := requireMembership(ctx, s.Store, actor, teamID); err != nil {
		return nil, err
	}
	return s.Store.Memberships().ListTeamMemberships(ctx, teamID)
}
