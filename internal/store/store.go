package store

import (
	"context"
	"errors"
	"time"

	"github.com/aiforge-cloud/aiforge/internal/domain"
	"github.com/aiforge-cloud/aiforge/internal/rbac"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite today)
// implement this. Sub-repositories keep concerns tidy and testable, and the
// Tx form actively stops accidental nested transactions.
type Store interface {
	Users() Users
	Teams() Teams
	Memberships() Memberships
	Invitations() Invitations
	Projects() Projects
	Endpoints() Endpoints
	MFADevices() MFADevices
	MFAChallenges() MFAChallenges
	VerificationGates() VerificationGates
	RecoveryCodes() RecoveryCodes
	PasswordResets() PasswordResets
	EmailVerifications() EmailVerifications

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes fn within a transaction. If fn returns an error the
	// transaction is rolled back, otherwise committed. This is the
	// recommended way to run the atomic multi-statement operations
	// (invitation acceptance, recovery code regeneration, registration).
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds
// Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Users interface {
	GetUserByID(ctx context.Context, id string) (domain.User, error)

	// GetUserByEmail looks up by lowercase email.
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)

	// CreateUser inserts a new user. Returns ErrAlreadyExists when the
	// email is taken (unique column, not a lookup loop).
	CreateUser(ctx context.Context, u domain.User) error

	UpdatePasswordHash(ctx context.Context, userID, newHash string) error

	// MarkEmailVerified stamps email_verified_at if not already set.
	MarkEmailVerified(ctx context.Context, userID string) error
}

type Teams interface {
	// CreateTeam inserts a new team. Returns ErrAlreadyExists when the
	// slug is taken.
	CreateTeam(ctx context.Context, t domain.Team) error

	GetTeamByID(ctx context.Context, id string) (domain.Team, error)

	UpdateTeam(ctx context.Context, teamID, name, icon string) error

	// DeleteTeam cascades to memberships, invitations and projects
	// (per schema).
	DeleteTeam(ctx context.Context, teamID string) error

	// ListTeamsForUser returns teams the user holds a membership in.
	ListTeamsForUser(ctx context.Context, userID string) ([]domain.Team, error)
}

type Memberships interface {
	// CreateMembership inserts a membership. Returns ErrAlreadyExists when
	// the user already belongs to the team.
	CreateMembership(ctx context.Context, m domain.Membership) error

	GetMembershipByID(ctx context.Context, id string) (domain.Membership, error)

	// GetMembership returns the user's membership in a team.
	GetMembership(ctx context.Context, teamID, userID string) (domain.Membership, error)

	// GetMembershipByEmail resolves a team membership through the member's
	// account email (for the already-a-member invitation checks).
	GetMembershipByEmail(ctx context.Context, teamID, email string) (domain.Membership, error)

	ListTeamMemberships(ctx context.Context, teamID string) ([]domain.Membership, error)

	UpdateMembershipRole(ctx context.Context, membershipID string, role rbac.Role) error

	DeleteMembership(ctx context.Context, membershipID string) error
}

type Invitations interface {
	// CreateInvitation inserts a PENDING invitation. A partial unique index
	// over (team_id, email) WHERE status = PENDING makes the one-pending-
	// invitation rule atomic; violations map to ErrAlreadyExists.
	CreateInvitation(ctx context.Context, inv domain.Invitation) error

	GetInvitationByID(ctx context.Context, id string) (domain.Invitation, error)

	GetInvitationByTokenHash(ctx context.Context, hash string) (domain.Invitation, error)

	ListTeamInvitations(ctx context.Context, teamID string) ([]domain.Invitation, error)

	// TransitionInvitation flips status from→to with a conditional update.
	// Returns ErrNotFound when the invitation is absent or no longer in the
	// from status, which is what makes terminal states terminal under
	// concurrent requests.
	TransitionInvitation(ctx context.Context, id string, from, to domain.InvitationStatus) error

	// ExpireStalePending marks PENDING invitations past their expiry as
	// EXPIRED (housekeeping; Validate does the same per-row on read).
	ExpireStalePending(ctx context.Context, now time.Time) error

	// ExpireStalePendingFor does the same for a single (team, email) pair
	// and reports whether a row was flipped. CreateInvitation callers use
	// it to clear a lapsed row that still occupies the partial unique
	// index slot.
	ExpireStalePendingFor(ctx context.Context, teamID, email string, now time.Time) (bool, error)
}

type Projects interface {
	CreateProject(ctx context.Context, p domain.Project) error
	GetProjectByID(ctx context.Context, id string) (domain.Project, error)
	ListTeamProjects(ctx context.Context, teamID string) ([]domain.Project, error)
	UpdateProject(ctx context.Context, projectID, name, description string) error
	DeleteProject(ctx context.Context, projectID string) error
}

type Endpoints interface {
	CreateEndpoint(ctx context.Context, e domain.Endpoint) error
	GetEndpointByID(ctx context.Context, id string) (domain.Endpoint, error)
	ListProjectEndpoints(ctx context.Context, projectID string) ([]domain.Endpoint, error)

	// UpdateEndpointDeployment records an uploaded artifact key and the new
	// status in one statement.
	UpdateEndpointDeployment(ctx context.Context, endpointID, artifactKey string, status domain.EndpointStatus) error

	DeleteEndpoint(ctx context.Context, endpointID string) error
}

type MFADevices interface {
	CreateDevice(ctx context.Context, d domain.MFADevice) error

	// GetDevice scopes by user so one user can never address another's
	// device by id.
	GetDevice(ctx context.Context, userID, deviceID string) (domain.MFADevice, error)

	ListUserDevices(ctx context.Context, userID string) ([]domain.MFADevice, error)

	CountUserDevices(ctx context.Context, userID string) (int, error)

	DeleteDevice(ctx context.Context, userID, deviceID string) error
}

type MFAChallenges interface {
	CreateChallenge(ctx context.Context, c domain.MFAChallenge) error

	// GetChallenge returns the challenge only if not expired.
	GetChallenge(ctx context.Context, id string) (domain.MFAChallenge, error)

	// IncrementChallengeAttempts bumps the failure counter and returns the
	// updated record.
	IncrementChallengeAttempts(ctx context.Context, id string) (domain.MFAChallenge, error)

	DeleteChallenge(ctx context.Context, id string) error

	DeleteExpiredChallenges(ctx context.Context) error
}

type VerificationGates interface {
	// UpsertGate records a fresh verification for the user, replacing any
	// previous gate row.
	UpsertGate(ctx context.Context, userID string, expiresAt time.Time) error

	// GetGate returns the user's gate only while unexpired.
	GetGate(ctx context.Context, userID string) (domain.VerificationGate, error)

	DeleteExpiredGates(ctx context.Context) error
}

type RecoveryCodes interface {
	// CreateRecoveryCode stores one code fingerprint for a user.
	CreateRecoveryCode(ctx context.Context, userID, codeHash string) error

	// ConsumeRecoveryCode atomically checks and invalidates one code: a
	// single conditional delete, so two concurrent consumers of the same
	// code cannot both succeed. Returns false when the code did not exist.
	ConsumeRecoveryCode(ctx context.Context, userID, codeHash string) (bool, error)

	DeleteAllRecoveryCodes(ctx context.Context, userID string) error

	CountUserRecoveryCodes(ctx context.Context, userID string) (int, error)
}

type PasswordResets interface {
	CreatePasswordReset(ctx context.Context, pr domain.PasswordReset) error

	// ConsumePasswordReset atomically fetches and deletes an unexpired
	// reset by token fingerprint.
	ConsumePasswordReset(ctx context.Context, tokenHash string) (domain.PasswordReset, error)

	DeleteExpiredPasswordResets(ctx context.Context) error
}

type EmailVerifications interface {
	CreateEmailVerification(ctx context.Context, ev domain.EmailVerification) error

	// ConsumeEmailVerification atomically fetches and deletes an unexpired
	// verification by token fingerprint.
	ConsumeEmailVerification(ctx context.Context, tokenHash string) (domain.EmailVerification, error)

	DeleteExpiredEmailVerifications(ctx context.Context) error
}
