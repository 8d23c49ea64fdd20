package rbac

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPermissionsAreDeterministic(t *testing.T) {
	t.Parallel()

	for _, role := range []Role{RoleOwner, RoleAdmin, RoleMember} {
		first := Permissions(role)
		second := Permissions(role)
		require.Equal(t, first, second)
		require.NotEmpty(t, first)
	}
}

func TestMemberGrants(t *testing.T) {
	t.Parallel()

	member := Permissions(RoleMember)

	require.False(t, member.Has(CapInviteMembers))
	require.False(t, member.Has(CapDeleteTeam))
	require.False(t, member.Has(CapUpdateBilling))
	require.False(t, member.Has(CapRemoveMembers))
	require.False(t, member.Has(CapManageInvitations))

	require.True(t, member.Has(CapCreateProjects))
	require.True(t, member.Has(CapViewLogs))
	require.True(t, member.Has(CapViewMetrics))
}

func TestAdminGrants(t *testing.T) {
	t.Parallel()

	admin := Permissions(RoleAdmin)

	require.True(t, admin.Has(CapInviteMembers))
	require.True(t, admin.Has(CapManageInvitations))
	require.True(t, admin.Has(CapViewBilling))

	require.False(t, admin.Has(CapDeleteTeam))
	require.False(t, admin.Has(CapTransferOwnership))
	require.False(t, admin.Has(CapUpdateBilling))
}

func TestOwnerHoldsEveryCapability(t *testing.T) {
	t.Parallel()

	owner := Permissions(RoleOwner)
	for _, set := range []CapabilitySet{Permissions(RoleAdmin), Permissions(RoleMember)} {
		for cap := range set {
			require.True(t, owner.Has(cap), "owner missing %s", cap)
		}
	}
	require.True(t, owner.Has(CapTransferOwnership))
}

func TestUnknownRoleHasNoCapability(t *testing.T) {
	t.Parallel()

	require.Empty(t, Permissions(Role("SUPERUSER")))
	require.False(t, Can(Role(""), CapViewLogs))
}

func TestCanManageRole(t *testing.T) {
	t.Parallel()

	cases := []struct {
		actor, target Role
		action        ManageAction
		want          bool
	}{
		{RoleOwner, RoleAdmin, ActionChangeRole, true},
		{RoleOwner, RoleMember, ActionChangeRole, true},
		{RoleOwner, RoleAdmin, ActionRemove, true},
		{RoleOwner, RoleMember, ActionRemove, true},
		{RoleOwner, RoleOwner, ActionChangeRole, false},
		{RoleOwner, RoleOwner, ActionRemove, false},
		{RoleAdmin, RoleMember, ActionChangeRole, true},
		{RoleAdmin, RoleMember, ActionRemove, true},
		{RoleAdmin, RoleAdmin, ActionChangeRole, false},
		{RoleAdmin, RoleOwner, ActionChangeRole, false},
		{RoleAdmin, RoleOwner, ActionRemove, false},
		{RoleMember, RoleMember, ActionChangeRole, false},
		{RoleMember, RoleMember, ActionRemove, false},
	}

	for _, tc := range cases {
		got := CanManageRole(tc.actor, tc.target, tc.action)
		require.Equal(t, tc.want, got,
			"%s %s on %s", tc.actor, tc.action, tc.target)
	}
}

func TestCanManageRoleRejectsUnknownInput(t *testing.T) {
	t.Parallel()

	require.False(t, CanManageRole(RoleOwner, RoleMember, ManageAction("promote")))
	require.False(t, CanManageRole(Role("SUPERUSER"), RoleMember, ActionRemove))
	require.False(t, CanManageRole(RoleOwner, Role("GUEST"), ActionRemove))
}
