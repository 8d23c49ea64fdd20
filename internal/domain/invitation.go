package domain

import (
	"time"

	"github.com/aiforge-cloud/aiforge/internal/rbac"
)

// InvitationStatus is an invitation's lifecycle state. PENDING is the only
// non-terminal state; the others never transition further.
type InvitationStatus string

const (
	InvitationPending   InvitationStatus = "PENDING"
	InvitationAccepted  InvitationStatus = "ACCEPTED"
	InvitationDeclined  InvitationStatus = "DECLINED"
	InvitationExpired   InvitationStatus = "EXPIRED"
	InvitationCancelled InvitationStatus = "CANCELLED"
)

// Terminal reports whether the status permits no further transitions.
func (s InvitationStatus) Terminal() bool {
	return s != InvitationPending
}

// Invitation is a pending offer of team membership bound to an email and a
// bearer token. Only the token's SHA-256 fingerprint is stored.
type Invitation struct {
	ID        string
	TeamID    string
	Email     string // invitee email, stored lowercase
	Role      rbac.Role
	TokenHash string
	Status    InvitationStatus
	InvitedBy string // user ID of the inviter
	ExpiresAt time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}
