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
	"github.com/aiforge-cloud/aiforge/pkg/jwtx"
	"github.com/aiforge-cloud/aiforge/pkg/slogx"
)

const (
	passwordResetTTL     = 1 * time.Hour
	emailVerificationTTL = 24 * time.Hour
	minPasswordLength    = 10
)

var (
	ErrEmailTaken         = errors.New("email is already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidToken       = errors.New("token is invalid or expired")
	ErrWeakPassword       = errors.New("password does not meet length requirements")
)

type UserService struct {
	Store  store.Store
	Mailer mailer.Mailer
	Signer *jwtx.Signer
	MFA    *MFAService
}

// LoginResult is either a session token or a pending MFA challenge; exactly
// one of the two is set.
type LoginResult struct {
	Token       string
	MFARequired bool
	ChallengeID string
}

// Register creates the account, its personal team with an OWNER membership
// and the email verification token in one transaction, then mails the
// verification link. A failed send leaves the account usable; the link can
// be re-requested.
func (s *UserService) Register(ctx context.Context, email, displayName, password string) (domain.User, error) {
	log := slogx.FromContext(ctx)
	email = strings.ToLower(strings.TrimSpace(email))

	if len(password) < minPasswordLength {
		return domain.User{}, ErrWeakPassword
	}

	passwordHash, err := cryptox.HashPassword(password)
	if err != nil {
		return domain.User{}, fmt.Errorf("hash password: %w", err)
	}

	user := domain.User{
		ID:           idx.New().String(),
		Email:        email,
		DisplayName:  displayName,
		PasswordHash: passwordHash,
	}

	verifyToken, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return domain.User{}, fmt.Errorf("generate verification token: %w", err)
	}

	team := domain.Team{
		ID:   idx.New().String(),
		Slug: "personal-" + strings.ToLower(user.ID),
		Name: "Personal",
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Users().CreateUser(ctx, user); err != nil {
			if errors.Is(err, store.ErrAlreadyExists) {
				return ErrEmailTaken
			}
			return fmt.Errorf("create user: %w", err)
		}
		if err := tx.Teams().CreateTeam(ctx, team); err != nil {
			return fmt.Errorf("create personal team: %w", err)
		}
		membership := domain.Membership{
			ID:     idx.New().String(),
			TeamID: team.ID,
			UserID: user.ID,
			Role:   rbac.RoleOwner,
		}
		if err := tx.Memberships().CreateMembership(ctx, membership); err != nil {
			return fmt.Errorf("create owner membership: %w", err)
		}
		verification := domain.EmailVerification{
			ID:        idx.New().String(),
			UserID:    user.ID,
			TokenHash: cryptox.FingerprintToken(verifyToken),
			ExpiresAt: time.Now().UTC().Add(emailVerificationTTL),
		}
		if err := tx.EmailVerifications().CreateEmailVerification(ctx, verification); err != nil {
			return fmt.Errorf("create email verification: %w", err)
		}
		return nil
	})
	if err != nil {
		return domain.User{}, err
	}

	if err := s.Mailer.SendEmailVerification(ctx, email, verifyToken); err != nil {
		log.Warn("verification email failed to send",
			slog.String("user_id", user.ID),
			slog.Any("error", err),
		)
	}

	log.Info("user registered",
		slog.String("user_id", user.ID),
		slog.String("personal_team_id", team.ID),
	)
	return user, nil
}

// VerifyEmail consumes a verification token and stamps the account.
func (s *UserService) VerifyEmail(ctx context.Context, token string) error {
	ev, err := s.Store.EmailVerifications().ConsumeEmailVerification(ctx, cryptox.FingerprintToken(token))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrInvalidToken
		}
		return fmt.Errorf("consume email verification: %w", err)
	}
	if err := s.Store.Users().MarkEmailVerified(ctx, ev.UserID); err != nil {
		return fmt.Errorf("mark email verified: %w", err)
	}
	return nil
}

// Login checks the password and either signs a session token or, when the
// user has MFA devices, opens a challenge the client must complete.
func (s *UserService) Login(ctx context.Context, email, password string) (LoginResult, error) {
	log := slogx.FromContext(ctx)
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.Store.Users().GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return LoginResult{}, ErrInvalidCredentials
		}
		return LoginResult{}, fmt.Errorf("fetch user: %w", err)
	}
	if err := cryptox.VerifyPassword(password, user.PasswordHash); err != nil {
		log.Warn("login failed", slog.String("user_id", user.ID))
		return LoginResult{}, ErrInvalidCredentials
	}

	deviceCount, err := s.Store.MFADevices().CountUserDevices(ctx, user.ID)
	if err != nil {
		return LoginResult{}, fmt.Errorf("count devices: %w", err)
	}
	if deviceCount > 0 {
		challenge, err := s.MFA.CreateChallenge(ctx, user.ID)
		if err != nil {
			return LoginResult{}, err
		}
		return LoginResult{MFARequired: true, ChallengeID: challenge.ID}, nil
	}

	return s.issueSession(ctx, user)
}

// CompleteMFALogin finishes a pending challenge with a TOTP or recovery code
// and signs the session.
func (s *UserService) CompleteMFALogin(ctx context.Context, challengeID, code string) (LoginResult, error) {
	userID, err := s.MFA.VerifyChallenge(ctx, challengeID, code)
	if err != nil {
		return LoginResult{}, err
	}
	user, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		return LoginResult{}, fmt.Errorf("fetch user: %w", err)
	}
	return s.issueSession(ctx, user)
}

// RequestPasswordReset behaves identically whether or not the email is
// registered, so the endpoint cannot be used for account enumeration.
// Internal failures are logged and swallowed for the same reason.
func (s *UserService) RequestPasswordReset(ctx context.Context, email string) {
	log := slogx.FromContext(ctx)
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.Store.Users().GetUserByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			log.Error("password reset lookup failed", slog.Any("error", err))
		}
		return
	}

	token, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		log.Error("password reset token generation failed", slog.Any("error", err))
		return
	}
	reset := domain.PasswordReset{
		ID:        idx.New().String(),
		UserID:    user.ID,
		TokenHash: cryptox.FingerprintToken(token),
		ExpiresAt: time.Now().UTC().Add(passwordResetTTL),
	}
	if err := s.Store.PasswordResets().CreatePasswordReset(ctx, reset); err != nil {
		log.Error("password reset record failed", slog.Any("error", err))
		return
	}
	if err := s.Mailer.SendPasswordReset(ctx, email, token); err != nil {
		log.Warn("password reset email failed to send",
			slog.String("user_id", user.ID),
			slog.Any("error", err),
		)
	}
}

// ResetPassword consumes a single-use reset token and replaces the password.
func (s *UserService) ResetPassword(ctx context.Context, token, newPassword string) error {
	log := slogx.FromContext(ctx)

	if len(newPassword) < minPasswordLength {
		return ErrWeakPassword
	}

	reset, err := s.Store.PasswordResets().ConsumePasswordReset(ctx, cryptox.FingerprintToken(token))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrInvalidToken
		}
		return fmt.Errorf("consume password reset: %w", err)
	}

	hash, err := cryptox.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.Store.Users().UpdatePasswordHash(ctx, reset.UserID, hash); err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	log.Info("password reset completed", slog.String("user_id", reset.UserID))
	return nil
}

func (s *UserService) issueSession(ctx context.Context, user domain.User) (LoginResult, error) {
	token, err := s.Signer.Sign(user.ID, user.Email, user.EmailVerified())
	if err != nil {
		return LoginResult{}, fmt.Errorf("sign session token: %w", err)
	}
	return LoginResult{Token: token}, nil
}
