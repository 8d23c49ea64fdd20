// Package service holds the application operations behind both HTTP
// surfaces. Every operation takes an explicit domain.Actor; identity is
// resolved at the boundary and never read from ambient state. Expected
// failures are sentinel errors; handlers switch on them.
package service

import (
	"context"
	"errors"

	"github.com/aiforge-cloud/aiforge/internal/domain"
	"github.com/aiforge-cloud/aiforge/internal/rbac"
	"github.com/aiforge-cloud/aiforge/internal/store"
)

var (
	// ErrForbidden covers every missing-capability case, including the
	// actor not being a member of the team at all.
	ErrForbidden = errors.New("forbidden")

	ErrTeamNotFound       = errors.New("team not found")
	ErrMembershipNotFound = errors.New("membership not found")
	ErrProjectNotFound    = errors.New("project not found")
	ErrEndpointNotFound   = errors.New("endpoint not found")
)

// requireMembership resolves the actor's membership in a team. A missing
// membership reads as Forbidden, not NotFound, so non-members learn nothing
// about a team's existence.
func requireMembership(ctx context.Context, st store.Store, actor domain.Actor, teamID string) (domain.Membership, error) {
	m, err := st.Memberships().GetMembership(ctx, teamID, actor.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Membership{}, ErrForbidden
		}
		return domain.Membership{}, err
	}
	return m, nil
}

// requireCapability resolves the actor's membership and checks it holds the
// capability.
func requireCapability(ctx context.Context, st store.Store, actor domain.Actor, teamID string, c rbac.Capability) (domain.Membership, error) {
	m, err := requireMembership(ctx, st, actor, teamID)
	if err != nil {
		return domain.Membership{}, err
	}
	if !rbac.Can(m.Role, c) {
		return domain.Membership{}, ErrForbidden
	}
	return m, nil
}
