package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aiforge-cloud/aiforge/internal/rbac"
	"github.com/aiforge-cloud/aiforge/internal/store"
)

func TestTeamCreate(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	svc := &TeamService{Store: st}

	user := createTestUser(t, st, "owner@example.com")

	team, err := svc.Create(ctx, actorFor(user), "Acme", "acme", "🚀")
	require.NoError(t, err)

	t.Run("creator becomes the owner", func(t *testing.T) {
		membership, err := st.Memberships().GetMembership(ctx, team.ID, user.ID)
		require.NoError(t, err)
		require.Equal(t, rbac.RoleOwner, membership.Role)
	})

	t.Run("slug conflict", func(t *testing.T) {
		other := createTestUser(t, st, "other@example.com")
		_, err := svc.Create(ctx, actorFor(other), "Acme Too", "acme", "")
		require.ErrorIs(t, err, ErrSlugTaken)

		// No orphaned membership from the rolled-back create.
		teams, err := st.Teams().ListTeamsForUser(ctx, other.ID)
		require.NoError(t, err)
		require.Empty(t, teams)
	})

	t.Run("slug validation", func(t *testing.T) {
		_, err := svc.Create(ctx, actorFor(user), "Bad", "Not A Slug!", "")
		require.ErrorIs(t, err, ErrInvalidSlug)
	})
}

func TestTeamAccessControl(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	svc := &TeamService{Store: st}

	owner := createTestUser(t, st, "owner@example.com")
	team := createTestTeam(t, st, owner, "acme")
	admin := createTestUser(t, st, "admin@example.com")
	addTestMember(t, st, team.ID, admin, rbac.RoleAdmin)
	member := createTestUser(t, st, "member@example.com")
	addTestMember(t, st, team.ID, member, rbac.RoleMember)
	outsider := createTestUser(t, st, "out@example.com")

	t.Run("non-members see nothing", func(t *testing.T) {
		_, err := svc.Get(ctx, actorFor(outsider), team.ID)
		require.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("members can read", func(t *testing.T) {
		got, err := svc.Get(ctx, actorFor(member), team.ID)
		require.NoError(t, err)
		require.Equal(t, team.ID, got.ID)
	})

	t.Run("members cannot update", func(t *testing.T) {
		err := svc.Update(ctx, actorFor(member), team.ID, "New Name", "")
		require.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("admins update but cannot delete", func(t *testing.T) {
		require.NoError(t, svc.Update(ctx, actorFor(admin), team.ID, "New Name", "🔥"))
		require.ErrorIs(t, svc.Delete(ctx, actorFor(admin), team.ID), ErrForbidden)
	})

	t.Run("owner deletes and everything cascades", func(t *testing.T) {
		require.NoError(t, svc.Delete(ctx, actorFor(owner), team.ID))

		_, err := st.Teams().GetTeamByID(ctx, team.ID)
		require.ErrorIs(t, err, store.ErrNotFound)
		_, err = st.Memberships().GetMembership(ctx, team.ID, member.ID)
		require.ErrorIs(t, err, store.ErrNotFound)
	})
}
