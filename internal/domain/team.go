package domain

import (
	"time"

	"github.com/aiforge-cloud/aiforge/internal/rbac"
)

type Team struct {
	ID        string
	Slug      string // unique, URL-safe
	Name      string
	Icon      string // emoji or icon identifier, may be empty
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Membership links one user to one team with exactly one role. A user holds
// at most one membership per team; a team holds exactly one OWNER membership,
// written only at team creation.
type Membership struct {
	ID        string
	TeamID    string
	UserID    string
	Role      rbac.Role
	CreatedAt time.Time
	UpdatedAt time.Time
}
