package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aiforge-cloud/aiforge/internal/domain"
	"github.com/aiforge-cloud/aiforge/internal/mailer"
	"github.com/aiforge-cloud/aiforge/internal/rbac"
	"github.com/aiforge-cloud/aiforge/internal/store"
	"github.com/aiforge-cloud/aiforge/pkg/cryptox"
	"github.com/aiforge-cloud/aiforge/pkg/idx"
	"github.com/aiforge-cloud/aiforge/pkg/slogx"
)

const (
	invitationTTL        = 7 * 24 * time.Hour
	invitationTokenBytes = cryptox.TokenSize256
)

var (
	ErrInvitationNotFound  = errors.New("invitation not found")
	ErrDuplicateInvitation = errors.New("a pending invitation already exists for this email")
	ErrAlreadyMember       = errors.New("email already belongs to a team member")
	ErrEmailMismatch       = errors.New("invitation was issued for a different email")
	ErrEmailNotVerified    = errors.New("email address is not verified")
	ErrInvalidRole         = errors.New("invalid role")

	// Status-verbatim failures returned by Validate for terminal
	// invitations.
	ErrInvitationExpired   = errors.New("invitation has expired")
	ErrInvitationAccepted  = errors.New("invitation has already been accepted")
	ErrInvitationDeclined  = errors.New("invitation has been declined")
	ErrInvitationCancelled = errors.New("invitation has been cancelled")
)

type InvitationService struct {
	Store  store.Store
	Mailer mailer.Mailer
}

// Create issues a PENDING invitation and mails the raw token to the invitee.
// The raw token is also returned so the caller can offer a copy-link action;
// a failed send never rolls the invitation back.
func (s *InvitationService) Create(
	ctx context.Context,
	actor domain.Actor,
	teamID string,
	email string,
	role rbac.Role,
) (domain.Invitation, string, error) {
	log := slogx.FromContext(ctx)
	email = strings.ToLower(strings.TrimSpace(email))

	// 1. Only ADMIN and MEMBER can be granted by invitation. OWNER is
	// written once, at team creation.
	if role != rbac.RoleAdmin && role != rbac.RoleMember {
		return domain.Invitation{}, "", ErrInvalidRole
	}

	// 2. The actor needs the invite capability in this team. Granting
	// ADMIN by invitation is a promotion, so it carries the owner-only
	// rule too.
	membership, err := requireCapability(ctx, s.Store, actor, teamID, rbac.CapInviteMembers)
	if err != nil {
		return domain.Invitation{}, "", err
	}
	if role == rbac.RoleAdmin && membership.Role != rbac.RoleOwner {
		return domain.Invitation{}, "", ErrOnlyOwnerPromotesToAdmin
	}

	// 3. An existing member cannot be invited.
	_, err = s.Store.Memberships().GetMembershipByEmail(ctx, teamID, email)
	if err == nil {
		return domain.Invitation{}, "", ErrAlreadyMember
	}
	if !errors.Is(err, store.ErrNotFound) {
		return domain.Invitation{}, "", fmt.Errorf("check membership: %w", err)
	}

	// 4. Generate the bearer token; only the fingerprint is stored.
	token, err := cryptox.GenerateHexToken(invitationTokenBytes)
	if err != nil {
		return domain.Invitation{}, "", fmt.Errorf("generate invitation token: %w", err)
	}

	inv := domain.Invitation{
		ID:        idx.New().String(),
		TeamID:    teamID,
		Email:     email,
		Role:      role,
		TokenHash: cryptox.FingerprintToken(token),
		Status:    domain.InvitationPending,
		InvitedBy: actor.UserID,
		ExpiresAt: time.Now().UTC().Add(invitationTTL),
	}

	// 5. A partial unique index over (team_id, email) for PENDING rows
	// makes the one-pending-invitation rule atomic under concurrent
	// creates. A lapsed PENDING row still occupies the index slot until
	// something observes it, so on conflict expire it conditionally and
	// retry the insert once. Only a live PENDING invitation is a duplicate.
	if err := s.Store.Invitations().CreateInvitation(ctx, inv); err != nil {
		if !errors.Is(err, store.ErrAlreadyExists) {
			return domain.Invitation{}, "", fmt.Errorf("create invitation: %w", err)
		}
		expired, err := s.Store.Invitations().ExpireStalePendingFor(ctx, teamID, email, time.Now().UTC())
		if err != nil {
			return domain.Invitation{}, "", fmt.Errorf("expire stale invitation: %w", err)
		}
		if !expired {
			return domain.Invitation{}, "", ErrDuplicateInvitation
		}
		if err := s.Store.Invitations().CreateInvitation(ctx, inv); err != nil {
			if errors.Is(err, store.ErrAlreadyExists) {
				return domain.Invitation{}, "", ErrDuplicateInvitation
			}
			return domain.Invitation{}, "", fmt.Errorf("create invitation: %w", err)
		}
	}

	// 6. Mail delivery is a side effect; the invitation stands either way.
	team, err := s.Store.Teams().GetTeamByID(ctx, teamID)
	teamName := teamID
	if err == nil {
		teamName = team.Name
	}
	if err := s.Mailer.SendInvitation(ctx, email, teamName, actor.Email, token); err != nil {
		log.Warn("invitation email failed to send",
			slog.String("invitation_id", inv.ID),
			slog.Any("error", err),
		)
	}

	log.Info("invitation created",
		slog.String("invitation_id", inv.ID),
		slog.String("team_id", teamID),
		slog.String("role", string(role)),
	)
	return inv, token, nil
}

// Validate fetches an invitation by its bearer token and reports whether it
// can still be acted on. A PENDING invitation past its expiry is flipped to
// EXPIRED here; that mutation is part of this read's contract. Terminal
// statuses come back as their own errors.
func (s *InvitationService) Validate(ctx context.Context, token string) (domain.Invitation, error) {
	inv, err := s.Store.Invitations().GetInvitationByTokenHash(ctx, cryptox.FingerprintToken(token))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Invitation{}, ErrInvitationNotFound
		}
		return domain.Invitation{}, fmt.Errorf("fetch invitation: %w", err)
	}

	if inv.Status == domain.InvitationPending && time.Now().After(inv.ExpiresAt) {
		err := s.Store.Invitations().TransitionInvitation(ctx, inv.ID,
			domain.InvitationPending, domain.InvitationExpired)
		// A concurrent request may have flipped it already; either way
		// the invitation is expired.
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return domain.Invitation{}, fmt.Errorf("expire invitation: %w", err)
		}
		inv.Status = domain.InvitationExpired
		return inv, ErrInvitationExpired
	}

	switch inv.Status {
	case domain.InvitationPending:
		return inv, nil
	case domain.InvitationAccepted:
		return inv, ErrInvitationAccepted
	case domain.InvitationDeclined:
		return inv, ErrInvitationDeclined
	case domain.InvitationExpired:
		return inv, ErrInvitationExpired
	case domain.InvitationCancelled:
		return inv, ErrInvitationCancelled
	default:
		return inv, ErrInvitationNotFound
	}
}

// Accept redeems an invitation for the acting user: the membership insert
// and the PENDING→ACCEPTED flip happen in one transaction. When the user
// already joined through another path the invitation is closed out as
// ACCEPTED anyway and ErrAlreadyMember is reported.
func (s *InvitationService) Accept(ctx context.Context, token string, actor domain.Actor) (domain.Membership, error) {
	log := slogx.FromContext(ctx)

	inv, err := s.Validate(ctx, token)
	if err != nil {
		return domain.Membership{}, err
	}

	if !actor.EmailVerified {
		return domain.Membership{}, ErrEmailNotVerified
	}
	if !strings.EqualFold(actor.Email, inv.Email) {
		return domain.Membership{}, ErrEmailMismatch
	}

	// Idempotent cleanup: an existing membership closes the invitation
	// without creating anything.
	_, err = s.Store.Memberships().GetMembership(ctx, inv.TeamID, actor.UserID)
	if err == nil {
		if err := s.Store.Invitations().TransitionInvitation(ctx, inv.ID,
			domain.InvitationPending, domain.InvitationAccepted); err != nil && !errors.Is(err, store.ErrNotFound) {
			return domain.Membership{}, fmt.Errorf("close invitation: %w", err)
		}
		return domain.Membership{}, ErrAlreadyMember
	}
	if !errors.Is(err, store.ErrNotFound) {
		return domain.Membership{}, fmt.Errorf("check membership: %w", err)
	}

	membership := domain.Membership{
		ID:     idx.New().String(),
		TeamID: inv.TeamID,
		UserID: actor.UserID,
		Role:   inv.Role,
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		// The conditional transition loses the race to any concurrent
		// accept, keeping the membership insert from applying twice.
		if err := tx.Invitations().TransitionInvitation(ctx, inv.ID,
			domain.InvitationPending, domain.InvitationAccepted); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrInvitationAccepted
			}
			return fmt.Errorf("transition invitation: %w", err)
		}
		if err := tx.Memberships().CreateMembership(ctx, membership); err != nil {
			return fmt.Errorf("create membership: %w", err)
		}
		return nil
	})
	if err != nil {
		return domain.Membership{}, err
	}

	log.Info("invitation accepted",
		slog.String("invitation_id", inv.ID),
		slog.String("team_id", inv.TeamID),
		slog.String("user_id", actor.UserID),
		slog.String("role", string(inv.Role)),
	)
	return membership, nil
}

// Decline flips a PENDING invitation to DECLINED. The same email-match rule
// as Accept applies.
func (s *InvitationService) Decline(ctx context.Context, token string, actor domain.Actor) error {
	inv, err := s.Validate(ctx, token)
	if err != nil {
		return err
	}

	if !actor.EmailVerified {
		return ErrEmailNotVerified
	}
	if !strings.EqualFold(actor.Email, inv.Email) {
		return ErrEmailMismatch
	}

	err = s.Store.Invitations().TransitionInvitation(ctx, inv.ID,
		domain.InvitationPending, domain.InvitationDeclined)
	if errors.Is(err, store.ErrNotFound) {
		return ErrInvitationNotFound
	}
	return err
}

// Cancel withdraws a PENDING invitation. Works on expired-but-still-PENDING
// rows too; terminal rows report their status.
func (s *InvitationService) Cancel(ctx context.Context, actor domain.Actor, invitationID string) error {
	inv, err := s.Store.Invitations().GetInvitationByID(ctx, invitationID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrInvitationNotFound
		}
		return fmt.Errorf("fetch invitation: %w", err)
	}

	if _, err := requireCapability(ctx, s.Store, actor, inv.TeamID, rbac.CapManageInvitations); err != nil {
		return err
	}

	switch inv.Status {
	case domain.InvitationPending:
	case domain.InvitationAccepted:
		return ErrInvitationAccepted
	case domain.InvitationDeclined:
		return ErrInvitationDeclined
	case domain.InvitationExpired:
		return ErrInvitationExpired
	case domain.InvitationCancelled:
		return ErrInvitationCancelled
	default:
		return ErrInvitationNotFound
	}

	err = s.Store.Invitations().TransitionInvitation(ctx, inv.ID,
		domain.InvitationPending, domain.InvitationCancelled)
	if errors.Is(err, store.ErrNotFound) {
		// Lost a race with another transition; report it as no longer
		// cancellable.
		return ErrInvitationNotFound
	}
	return err
}

// List returns a team's invitations, newest last. Requires the
// invitation-management capability.
func (s *InvitationService) List(ctx context.Context, actor domain.Actor, teamID string) ([]domain.Invitation, error) {
	if _, err := requireCapability(ctx, s.Store, actor, teamID, rbac.CapManageInvitations); err != nil {
		return nil, err
	}
	return s.Store.Invitations().ListTeamInvitations(ctx, teamID)
}
