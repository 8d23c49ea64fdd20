package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aiforge-cloud/aiforge/internal/rbac"
	"github.com/aiforge-cloud/aiforge/internal/store"
	"github.com/aiforge-cloud/aiforge/pkg/idx"
)

func TestUpdateRole(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	svc := &MembershipService{Store: st}

	owner := createTestUser(t, st, "owner@example.com")
	team := createTestTeam(t, st, owner, "acme")
	ownerMembership, err := st.Memberships().GetMembership(ctx, team.ID, owner.ID)
	require.NoError(t, err)

	admin := createTestUser(t, st, "admin@example.com")
	adminMembership := addTestMember(t, st, team.ID, admin, rbac.RoleAdmin)

	member := createTestUser(t, st, "member@example.com")
	memberMembership := addTestMember(t, st, team.ID, member, rbac.RoleMember)

	t.Run("unknown membership", func(t *testing.T) {
		err := svc.UpdateRole(ctx, actorFor(owner), team.ID, idx.New().String(), rbac.RoleMember)
		require.ErrorIs(t, err, ErrMembershipNotFound)
	})

	t.Run("membership from another team", func(t *testing.T) {
		other := createTestTeam(t, st, owner, "other")
		otherMembership, err := st.Memberships().GetMembership(ctx, other.ID, owner.ID)
		require.NoError(t, err)

		err = svc.UpdateRole(ctx, actorFor(owner), team.ID, otherMembership.ID, rbac.RoleMember)
		require.ErrorIs(t, err, ErrMembershipNotFound)
	})

	t.Run("owner role is untouchable", func(t *testing.T) {
		err := svc.UpdateRole(ctx, actorFor(owner), team.ID, ownerMembership.ID, rbac.RoleMember)
		require.ErrorIs(t, err, ErrCannotModifyOwner)
	})

	t.Run("owner role cannot be assigned", func(t *testing.T) {
		err := svc.UpdateRole(ctx, actorFor(owner), team.ID, memberMembership.ID, rbac.RoleOwner)
		require.ErrorIs(t, err, ErrInvalidRole)
	})

	t.Run("admin cannot act on admin", func(t *testing.T) {
		second := createTestUser(t, st, "admin2@example.com")
		secondMembership := addTestMember(t, st, team.ID, second, rbac.RoleAdmin)

		err := svc.UpdateRole(ctx, actorFor(admin), team.ID, secondMembership.ID, rbac.RoleMember)
		require.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("admin cannot promote to admin", func(t *testing.T) {
		err := svc.UpdateRole(ctx, actorFor(admin), team.ID, memberMembership.ID, rbac.RoleAdmin)
		require.ErrorIs(t, err, ErrOnlyOwnerPromotesToAdmin)
	})

	t.Run("member cannot change roles", func(t *testing.T) {
		second := createTestUser(t, st, "member2@example.com")
		secondMembership := addTestMember(t, st, team.ID, second, rbac.RoleMember)

		err := svc.UpdateRole(ctx, actorFor(member), team.ID, secondMembership.ID, rbac.RoleAdmin)
		require.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("owner promotes member to admin", func(t *testing.T) {
		require.NoError(t, svc.UpdateRole(ctx, actorFor(owner), team.ID, memberMembership.ID, rbac.RoleAdmin))

		updated, err := st.Memberships().GetMembershipByID(ctx, memberMembership.ID)
		require.NoError(t, err)
		require.Equal(t, rbac.RoleAdmin, updated.Role)

		// And back down again.
		require.NoError(t, svc.UpdateRole(ctx, actorFor(owner), team.ID, memberMembership.ID, rbac.RoleMember))
	})

	t.Run("admin demotes nobody but members", func(t *testing.T) {
		require.NoError(t, svc.UpdateRole(ctx, actorFor(admin), team.ID, memberMembership.ID, rbac.RoleMember))

		err := svc.UpdateRole(ctx, actorFor(admin), team.ID, adminMembership.ID, rbac.RoleMember)
		require.ErrorIs(t, err, ErrForbidden)
	})
}

func TestRemoveMembership(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	svc := &MembershipService{Store: st}

	owner := createTestUser(t, st, "owner@example.com")
	team := createTestTeam(t, st, owner, "acme")
	ownerMembership, err := st.Memberships().GetMembership(ctx, team.ID, owner.ID)
	require.NoError(t, err)

	admin := createTestUser(t, st, "admin@example.com")
	adminMembership := addTestMember(t, st, team.ID, admin, rbac.RoleAdmin)

	t.Run("owner cannot be removed", func(t *testing.T) {
		err := svc.Remove(ctx, actorFor(admin), team.ID, ownerMembership.ID)
		require.ErrorIs(t, err, ErrCannotRemoveOwner)
	})

	t.Run("self-removal is rejected", func(t *testing.T) {
		err := svc.Remove(ctx, actorFor(admin), team.ID, adminMembership.ID)
		require.ErrorIs(t, err, ErrCannotRemoveSelf)
	})

	t.Run("member cannot remove others", func(t *testing.T) {
		member := createTestUser(t, st, "member@example.com")
		addTestMember(t, st, team.ID, member, rbac.RoleMember)
		victim := createTestUser(t, st, "victim@example.com")
		victimMembership := addTestMember(t, st, team.ID, victim, rbac.RoleMember)

		err := svc.Remove(ctx, actorFor(member), team.ID, victimMembership.ID)
		require.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("admin removes a member", func(t *testing.T) {
		target := createTestUser(t, st, "target@example.com")
		targetMembership := addTestMember(t, st, team.ID, target, rbac.RoleMember)

		require.NoError(t, svc.Remove(ctx, actorFor(admin), team.ID, targetMembership.ID))

		_, err := st.Memberships().GetMembership(ctx, team.ID, target.ID)
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("owner removes an admin", func(t *testing.T) {
		target := createTestUser(t, st, "admin2@example.com")
		targetMembership := addTestMember(t, st, team.ID, target, rbac.RoleAdmin)

		require.NoError(t, svc.Remove(ctx, actorFor(owner), team.ID, targetMembership.ID))
	})
}

// The full scenario: u1 owns a team, invites u2 as ADMIN; u2 accepts and
// becomes an admin; u2 then cannot invite u3 as ADMIN but can as MEMBER.
func TestAdminPromotionScenario(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	invites := newInvitationService(st)

	u1 := createTestUser(t, st, "u1@example.com")
	team := createTestTeam(t, st, u1, "acme")
	u2 := createTestUser(t, st, "u2@example.com")

	_, token, err := invites.Create(ctx, actorFor(u1), team.ID, u2.Email, rbac.RoleAdmin)
	require.NoError(t, err)

	membership, err := invites.Accept(ctx, token, actorFor(u2))
	require.NoError(t, err)
	require.Equal(t, rbac.RoleAdmin, membership.Role)

	_, _, err = invites.Create(ctx, actorFor(u2), team.ID, "u3@example.com", rbac.RoleAdmin)
	require.ErrorIs(t, err, ErrOnlyOwnerPromotesToAdmin)

	_, _, err = invites.Create(ctx, actorFor(u2), team.ID, "u3@example.com", rbac.RoleMember)
	require.NoError(t, err)
}
