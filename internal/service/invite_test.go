package service

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/aiforge-cloud/aiforge/internal/domain"
	"github.com/aiforge-cloud/aiforge/internal/mailer"
	"github.com/aiforge-cloud/aiforge/internal/rbac"
	"github.com/aiforge-cloud/aiforge/internal/store"
	"github.com/aiforge-cloud/aiforge/pkg/cryptox"
	"github.com/aiforge-cloud/aiforge/pkg/idx"
)

func newInvitationService(st store.Store) *InvitationService {
	return &InvitationService{
		Store:  st,
		Mailer: mailer.NewLogMailer(slog.Default()),
	}
}

func TestInvitationRoundTrip(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	svc := newInvitationService(st)

	owner := createTestUser(t, st, "owner@example.com")
	team := createTestTeam(t, st, owner, "acme")
	invitee := createTestUser(t, st, "a@x.com")

	inv, token, err := svc.Create(ctx, actorFor(owner), team.ID, "a@x.com", rbac.RoleMember)
	require.NoError(t, err)
	require.NotEmpty(t, token)
	require.Equal(t, domain.InvitationPending, inv.Status)

	validated, err := svc.Validate(ctx, token)
	require.NoError(t, err)
	require.Equal(t, domain.InvitationPending, validated.Status)

	membership, err := svc.Accept(ctx, token, actorFor(invitee))
	require.NoError(t, err)
	require.Equal(t, rbac.RoleMember, membership.Role)
	require.Equal(t, team.ID, membership.TeamID)

	stored, err := st.Invitations().GetInvitationByID(ctx, inv.ID)
	require.NoError(t, err)
	require.Equal(t, domain.InvitationAccepted, stored.Status)

	_, err = st.Memberships().GetMembership(ctx, team.ID, invitee.ID)
	require.NoError(t, err)
}

func TestInvitationAcceptIsNotIdempotent(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	svc := newInvitationService(st)

	owner := createTestUser(t, st, "owner@example.com")
	team := createTestTeam(t, st, owner, "acme")
	invitee := createTestUser(t, st, "a@x.com")

	_, token, err := svc.Create(ctx, actorFor(owner), team.ID, "a@x.com", rbac.RoleMember)
	require.NoError(t, err)

	_, err = svc.Accept(ctx, token, actorFor(invitee))
	require.NoError(t, err)

	// The second accept must fail, not silently succeed. The invitee is a
	// member by now, so the already-member path reports first.
	_, err = svc.Accept(ctx, token, actorFor(invitee))
	require.Error(t, err)
	require.ErrorIs(t, err, ErrInvitationAccepted)
}

func TestInvitationExpiry(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	svc := newInvitationService(st)

	owner := createTestUser(t, st, "owner@example.com")
	team := createTestTeam(t, st, owner, "acme")
	invitee := createTestUser(t, st, "late@x.com")

	// Insert an already-expired PENDING invitation directly.
	token, err := cryptox.GenerateHexToken(cryptox.TokenSize256)
	require.NoError(t, err)
	inv := domain.Invitation{
		ID:        idx.New().String(),
		TeamID:    team.ID,
		Email:     "late@x.com",
		Role:      rbac.RoleMember,
		TokenHash: cryptox.FingerprintToken(token),
		Status:    domain.InvitationPending,
		InvitedBy: owner.ID,
		ExpiresAt: time.Now().UTC().Add(-time.Hour),
	}
	require.NoError(t, st.Invitations().CreateInvitation(ctx, inv))

	validated, err := svc.Validate(ctx, token)
	require.ErrorIs(t, err, ErrInvitationExpired)
	require.Equal(t, domain.InvitationExpired, validated.Status)

	// The flip is persisted, and re-validating does not re-transition.
	stored, err := st.Invitations().GetInvitationByID(ctx, inv.ID)
	require.NoError(t, err)
	require.Equal(t, domain.InvitationExpired, stored.Status)

	_, err = svc.Validate(ctx, token)
	require.ErrorIs(t, err, ErrInvitationExpired)

	_, err = svc.Accept(ctx, token, actorFor(invitee))
	require.ErrorIs(t, err, ErrInvitationExpired)
}

func TestInvitationDuplicateGuard(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	svc := newInvitationService(st)

	owner := createTestUser(t, st, "owner@example.com")
	team := createTestTeam(t, st, owner, "acme")

	_, _, err := svc.Create(ctx, actorFor(owner), team.ID, "a@x.com", rbac.RoleMember)
	require.NoError(t, err)

	_, _, err = svc.Create(ctx, actorFor(owner), team.ID, "a@x.com", rbac.RoleMember)
	require.ErrorIs(t, err, ErrDuplicateInvitation)

	// The uniqueness rule is enforced by the database, so racing inserts
	// collide there too, not only in the service pre-check.
	dup := domain.Invitation{
		ID:        idx.New().String(),
		TeamID:    team.ID,
		Email:     "a@x.com",
		Role:      rbac.RoleMember,
		TokenHash: cryptox.FingerprintToken("other-token"),
		Status:    domain.InvitationPending,
		InvitedBy: owner.ID,
		ExpiresAt: time.Now().UTC().Add(time.Hour),
	}
	err = st.Invitations().CreateInvitation(ctx, dup)
	require.ErrorIs(t, err, store.ErrAlreadyExists)

	invs, err := st.Invitations().ListTeamInvitations(ctx, team.ID)
	require.NoError(t, err)

	var pending int
	for _, i := range invs {
		if i.Status == domain.InvitationPending {
			pending++
		}
	}
	require.Equal(t, 1, pending)
}

func TestInvitationReissueAfterLapse(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	svc := newInvitationService(st)

	owner := createTestUser(t, st, "owner@example.com")
	team := createTestTeam(t, st, owner, "acme")

	// A lapsed PENDING invitation still occupies the unique index slot.
	stale := domain.Invitation{
		ID:        idx.New().String(),
		TeamID:    team.ID,
		Email:     "late@x.com",
		Role:      rbac.RoleMember,
		TokenHash: cryptox.FingerprintToken("stale-token"),
		Status:    domain.InvitationPending,
		InvitedBy: owner.ID,
		ExpiresAt: time.Now().UTC().Add(-time.Hour),
	}
	require.NoError(t, st.Invitations().CreateInvitation(ctx, stale))

	// Re-inviting succeeds: only a live PENDING invitation is a duplicate.
	inv, _, err := svc.Create(ctx, actorFor(owner), team.ID, "late@x.com", rbac.RoleMember)
	require.NoError(t, err)
	require.Equal(t, domain.InvitationPending, inv.Status)
	require.NotEqual(t, stale.ID, inv.ID)

	// The stale row got flipped to EXPIRED along the way.
	old, err := st.Invitations().GetInvitationByID(ctx, stale.ID)
	require.NoError(t, err)
	require.Equal(t, domain.InvitationExpired, old.Status)

	// The fresh invitation is live, so re-inviting again is a duplicate.
	_, _, err = svc.Create(ctx, actorFor(owner), team.ID, "late@x.com", rbac.RoleMember)
	require.ErrorIs(t, err, ErrDuplicateInvitation)
}

func TestInvitationEmailChecks(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	svc := newInvitationService(st)

	owner := createTestUser(t, st, "owner@example.com")
	team := createTestTeam(t, st, owner, "acme")

	_, token, err := svc.Create(ctx, actorFor(owner), team.ID, "A@X.com", rbac.RoleMember)
	require.NoError(t, err)

	t.Run("wrong email", func(t *testing.T) {
		stranger := createTestUser(t, st, "b@x.com")
		_, err := svc.Accept(ctx, token, actorFor(stranger))
		require.ErrorIs(t, err, ErrEmailMismatch)
	})

	t.Run("unverified email", func(t *testing.T) {
		actor := domain.Actor{UserID: idx.New().String(), Email: "a@x.com", EmailVerified: false}
		_, err := svc.Accept(ctx, token, actor)
		require.ErrorIs(t, err, ErrEmailNotVerified)
	})

	t.Run("match is case-insensitive", func(t *testing.T) {
		invitee := createTestUser(t, st, "a@x.com")
		_, err := svc.Accept(ctx, token, actorFor(invitee))
		require.NoError(t, err)
	})
}

func TestInvitationCreateAuthorization(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	svc := newInvitationService(st)

	owner := createTestUser(t, st, "owner@example.com")
	team := createTestTeam(t, st, owner, "acme")
	member := createTestUser(t, st, "member@example.com")
	addTestMember(t, st, team.ID, member, rbac.RoleMember)
	admin := createTestUser(t, st, "admin@example.com")
	addTestMember(t, st, team.ID, admin, rbac.RoleAdmin)

	t.Run("members cannot invite", func(t *testing.T) {
		_, _, err := svc.Create(ctx, actorFor(member), team.ID, "x@x.com", rbac.RoleMember)
		require.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("non-members cannot invite", func(t *testing.T) {
		outsider := createTestUser(t, st, "out@example.com")
		_, _, err := svc.Create(ctx, actorFor(outsider), team.ID, "x@x.com", rbac.RoleMember)
		require.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("admins cannot invite admins", func(t *testing.T) {
		_, _, err := svc.Create(ctx, actorFor(admin), team.ID, "x@x.com", rbac.RoleAdmin)
		require.ErrorIs(t, err, ErrOnlyOwnerPromotesToAdmin)
	})

	t.Run("existing members cannot be invited", func(t *testing.T) {
		_, _, err := svc.Create(ctx, actorFor(owner), team.ID, member.Email, rbac.RoleMember)
		require.ErrorIs(t, err, ErrAlreadyMember)
	})

	t.Run("owner role cannot be granted", func(t *testing.T) {
		_, _, err := svc.Create(ctx, actorFor(owner), team.ID, "x@x.com", rbac.RoleOwner)
		require.ErrorIs(t, err, ErrInvalidRole)
	})
}

func TestInvitationDecline(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	svc := newInvitationService(st)

	owner := createTestUser(t, st, "owner@example.com")
	team := createTestTeam(t, st, owner, "acme")
	invitee := createTestUser(t, st, "a@x.com")

	inv, token, err := svc.Create(ctx, actorFor(owner), team.ID, "a@x.com", rbac.RoleMember)
	require.NoError(t, err)

	require.NoError(t, svc.Decline(ctx, token, actorFor(invitee)))

	stored, err := st.Invitations().GetInvitationByID(ctx, inv.ID)
	require.NoError(t, err)
	require.Equal(t, domain.InvitationDeclined, stored.Status)

	_, err = svc.Validate(ctx, token)
	require.ErrorIs(t, err, ErrInvitationDeclined)

	_, err = st.Memberships().GetMembership(ctx, team.ID, invitee.ID)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestInvitationCancel(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	svc := newInvitationService(st)

	owner := createTestUser(t, st, "owner@example.com")
	team := createTestTeam(t, st, owner, "acme")
	member := createTestUser(t, st, "member@example.com")
	addTestMember(t, st, team.ID, member, rbac.RoleMember)
	admin := createTestUser(t, st, "admin@example.com")
	addTestMember(t, st, team.ID, admin, rbac.RoleAdmin)

	inv, token, err := svc.Create(ctx, actorFor(owner), team.ID, "a@x.com", rbac.RoleMember)
	require.NoError(t, err)

	t.Run("members cannot cancel", func(t *testing.T) {
		require.ErrorIs(t, svc.Cancel(ctx, actorFor(member), inv.ID), ErrForbidden)
	})

	t.Run("admins can cancel", func(t *testing.T) {
		require.NoError(t, svc.Cancel(ctx, actorFor(admin), inv.ID))

		stored, err := st.Invitations().GetInvitationByID(ctx, inv.ID)
		require.NoError(t, err)
		require.Equal(t, domain.InvitationCancelled, stored.Status)
	})

	t.Run("cancelled invitations cannot be accepted", func(t *testing.T) {
		invitee := createTestUser(t, st, "a@x.com")
		_, err := svc.Accept(ctx, token, actorFor(invitee))
		require.ErrorIs(t, err, ErrInvitationCancelled)
	})

	t.Run("cancel reports terminal status", func(t *testing.T) {
		require.ErrorIs(t, svc.Cancel(ctx, actorFor(owner), inv.ID), ErrInvitationCancelled)
	})

	t.Run("unknown invitation", func(t *testing.T) {
		require.ErrorIs(t, svc.Cancel(ctx, actorFor(owner), idx.New().String()), ErrInvitationNotFound)
	})
}

func TestInvitationAcceptAlreadyMemberClosesInvitation(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	svc := newInvitationService(st)

	owner := createTestUser(t, st, "owner@example.com")
	team := createTestTeam(t, st, owner, "acme")

	inv, token, err := svc.Create(ctx, actorFor(owner), team.ID, "a@x.com", rbac.RoleMember)
	require.NoError(t, err)

	// The invitee joins through another path before accepting.
	invitee := createTestUser(t, st, "a@x.com")
	addTestMember(t, st, team.ID, invitee, rbac.RoleMember)

	_, err = svc.Accept(ctx, token, actorFor(invitee))
	require.ErrorIs(t, err, ErrAlreadyMember)

	// The invitation is closed out as ACCEPTED anyway.
	stored, err := st.Invitations().GetInvitationByID(ctx, inv.ID)
	require.NoError(t, err)
	require.Equal(t, domain.InvitationAccepted, stored.Status)
}
