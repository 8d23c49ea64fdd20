// Package rbac is the team-scoped permission model: a fixed mapping from
// role to capability set, plus the rules for which roles may act on which.
// It performs no I/O and has no failure modes; unknown input yields no
// capability rather than an error.
package rbac

// Role is a team-scoped authorization level. The wire-level strings are part
// of the external contract.
type Role string

const (
	RoleOwner  Role = "OWNER"
	RoleAdmin  Role = "ADMIN"
	RoleMember Role = "MEMBER"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleOwner, RoleAdmin, RoleMember:
		return true
	}
	return false
}

// Capability is a single permitted action derived from a role.
type Capability string

const (
	CapUpdateTeam        Capability = "team:update"
	CapDeleteTeam        Capability = "team:delete"
	CapTransferOwnership Capability = "team:transfer_ownership"
	CapInviteMembers     Capability = "members:invite"
	CapRemoveMembers     Capability = "members:remove"
	CapUpdateMemberRoles Capability = "members:update_roles"
	CapManageInvitations Capability = "invitations:manage"
	CapCreateProjects    Capability = "projects:create"
	CapUpdateProjects    Capability = "projects:update"
	CapDeleteProjects    Capability = "projects:delete"
	CapCreateEndpoints   Capability = "endpoints:create"
	CapUpdateEndpoints   Capability = "endpoints:update"
	CapDeleteEndpoints   Capability = "endpoints:delete"
	CapViewLogs          Capability = "logs:view"
	CapViewMetrics       Capability = "metrics:view"
	CapViewBilling       Capability = "billing:view"
	CapUpdateBilling     Capability = "billing:update"
)

// CapabilitySet is the set of actions a role permits.
type CapabilitySet map[Capability]struct{}

// Has reports whether the set contains c.
func (s CapabilitySet) Has(c Capability) bool {
	_, ok := s[c]
	return ok
}

func newSet(caps ...Capability) CapabilitySet {
	s := make(CapabilitySet, len(caps))
	for _, c := range caps {
		s[c] = struct{}{}
	}
	return s
}

// Every role's capabilities are enumerated in full rather than derived by
// inheritance, so a reviewer can read each role's exact grant and the
// OWNER ⊇ ADMIN ⊇ MEMBER relation is a property of the table, not a rule.
var permissions = map[Role]CapabilitySet{
	RoleOwner: newSet(
		CapUpdateTeam,
		CapDeleteTeam,
		CapTransferOwnership,
		CapInviteMembers,
		CapRemoveMembers,
		CapUpdateMemberRoles,
		CapManageInvitations,
		CapCreateProjects,
		CapUpdateProjects,
		CapDeleteProjects,
		CapCreateEndpoints,
		CapUpdateEndpoints,
		CapDeleteEndpoints,
		CapViewLogs,
		CapViewMetrics,
		CapViewBilling,
		CapUpdateBilling,
	),
	RoleAdmin: newSet(
		CapUpdateTeam,
		CapInviteMembers,
		CapRemoveMembers,
		CapUpdateMemberRoles,
		CapManageInvitations,
		CapCreateProjects,
		CapUpdateProjects,
		CapDeleteProjects,
		CapCreateEndpoints,
		CapUpdateEndpoints,
		CapDeleteEndpoints,
		CapViewLogs,
		CapViewMetrics,
		CapViewBilling,
	),
	RoleMember: newSet(
		CapCreateProjects,
		CapUpdateProjects,
		CapCreateEndpoints,
		CapUpdateEndpoints,
		CapViewLogs,
		CapViewMetrics,
	),
}

// Permissions returns the capability set for a role. Unknown roles get the
// empty set.
func Permissions(role Role) CapabilitySet {
	caps, ok := permissions[role]
	if !ok {
		return CapabilitySet{}
	}
	return caps
}

// Can reports whether the role holds the capability.
func Can(role Role, c Capability) bool {
	return Permissions(role).Has(c)
}

// ManageAction is an operation one member performs on another.
type ManageAction string

const (
	ActionChangeRole ManageAction = "changeRole"
	ActionRemove     ManageAction = "remove"
)

// CanManageRole reports whether a member with actorRole may perform action on
// a member with targetRole. OWNER may act on ADMIN and MEMBER; ADMIN may act
// only on MEMBER; nobody acts on an OWNER. Self-removal is rejected by the
// membership mutator, not here; this function only sees roles.
func CanManageRole(actorRole, targetRole Role, action ManageAction) bool {
	if action != ActionChangeRole && action != ActionRemove {
		return false
	}
	if targetRole == RoleOwner {
		return false
	}

	switch actorRole {
	case RoleOwner:
		return targetRole == RoleAdmin || targetRole == RoleMember
	case RoleAdmin:
		return targetRole == RoleMember
	default:
		return false
	}
}
