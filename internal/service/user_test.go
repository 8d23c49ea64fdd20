package service

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
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
	"github.com/aiforge-cloud/aiforge/pkg/jwtx"
)

func newUserService(t *testing.T, st store.Store) *UserService {
	t.Helper()

	_, key, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	return &UserService{
		Store:  st,
		Mailer: mailer.NewLogMailer(slog.Default()),
		Signer: jwtx.NewSigner(key, "aiforge-test", time.Hour),
		MFA:    &MFAService{Store: st, Issuer: "AIForge"},
	}
}

func TestRegister(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	svc := newUserService(t, st)

	user, err := svc.Register(ctx, "New@Example.com", "New User", "a-long-password")
	require.NoError(t, err)
	require.Equal(t, "new@example.com", user.Email)

	t.Run("personal team with owner membership", func(t *testing.T) {
		teams, err := st.Teams().ListTeamsForUser(ctx, user.ID)
		require.NoError(t, err)
		require.Len(t, teams, 1)

		membership, err := st.Memberships().GetMembership(ctx, teams[0].ID, user.ID)
		require.NoError(t, err)
		require.Equal(t, rbac.RoleOwner, membership.Role)
	})

	t.Run("email starts unverified", func(t *testing.T) {
		stored, err := st.Users().GetUserByID(ctx, user.ID)
		require.NoError(t, err)
		require.False(t, stored.EmailVerified())
	})

	t.Run("duplicate email", func(t *testing.T) {
		_, err := svc.Register(ctx, "new@example.com", "Again", "a-long-password")
		require.ErrorIs(t, err, ErrEmailTaken)
	})

	t.Run("short password", func(t *testing.T) {
		_, err := svc.Register(ctx, "short@example.com", "Short", "short")
		require.ErrorIs(t, err, ErrWeakPassword)
	})
}

func TestVerifyEmail(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	svc := newUserService(t, st)

	user, err := svc.Register(ctx, "v@example.com", "V", "a-long-password")
	require.NoError(t, err)

	// Grab the staged verification by planting a known token alongside it.
	token, err := cryptox.GenerateToken(cryptox.TokenSize256)
	require.NoError(t, err)
	require.NoError(t, st.EmailVerifications().CreateEmailVerification(ctx, domain.EmailVerification{
		ID:        idx.New().String(),
		UserID:    user.ID,
		TokenHash: cryptox.FingerprintToken(token),
		ExpiresAt: time.Now().UTC().Add(time.Hour),
	}))

	require.ErrorIs(t, svc.VerifyEmail(ctx, "bogus"), ErrInvalidToken)

	require.NoError(t, svc.VerifyEmail(ctx, token))
	stored, err := st.Users().GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	require.True(t, stored.EmailVerified())

	// Single use.
	require.ErrorIs(t, svc.VerifyEmail(ctx, token), ErrInvalidToken)
}

func TestLogin(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	svc := newUserService(t, st)

	_, err := svc.Register(ctx, "login@example.com", "L", "a-long-password")
	require.NoError(t, err)

	t.Run("unknown email", func(t *testing.T) {
		_, err := svc.Login(ctx, "nobody@example.com", "a-long-password")
		require.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := svc.Login(ctx, "login@example.com", "not-the-password")
		require.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("success issues a session", func(t *testing.T) {
		result, err := svc.Login(ctx, "Login@Example.com", "a-long-password")
		require.NoError(t, err)
		require.False(t, result.MFARequired)
		require.NotEmpty(t, result.Token)
	})
}

func TestLoginWithMFA(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	svc := newUserService(t, st)

	user, err := svc.Register(ctx, "mfa@example.com", "M", "a-long-password")
	require.NoError(t, err)

	actor := domain.Actor{UserID: user.ID, Email: user.Email, EmailVerified: true}
	_, secret := enrollDevice(t, svc.MFA, actor, "phone")

	result, err := svc.Login(ctx, "mfa@example.com", "a-long-password")
	require.NoError(t, err)
	require.True(t, result.MFARequired)
	require.NotEmpty(t, result.ChallengeID)
	require.Empty(t, result.Token)

	t.Run("wrong code", func(t *testing.T) {
		_, err := svc.CompleteMFALogin(ctx, result.ChallengeID, "000000")
		require.ErrorIs(t, err, ErrInvalidCode)
	})

	t.Run("correct code", func(t *testing.T) {
		completed, err := svc.CompleteMFALogin(ctx, result.ChallengeID, totpCode(t, secret))
		require.NoError(t, err)
		require.NotEmpty(t, completed.Token)
	})
}

func TestPasswordReset(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	svc := newUserService(t, st)

	user, err := svc.Register(ctx, "reset@example.com", "R", "a-long-password")
	require.NoError(t, err)

	// Identical behavior for unknown and known emails.
	svc.RequestPasswordReset(ctx, "nobody@example.com")
	svc.RequestPasswordReset(ctx, "reset@example.com")

	token, err := cryptox.GenerateToken(cryptox.TokenSize256)
	require.NoError(t, err)
	require.NoError(t, st.PasswordResets().CreatePasswordReset(ctx, domain.PasswordReset{
		ID:        idx.New().String(),
		UserID:    user.ID,
		TokenHash: cryptox.FingerprintToken(token),
		ExpiresAt: time.Now().UTC().Add(time.Hour),
	}))

	require.ErrorIs(t, svc.ResetPassword(ctx, token, "short"), ErrWeakPassword)
	require.NoError(t, svc.ResetPassword(ctx, token, "a-new-long-password"))

	t.Run("token is single use", func(t *testing.T) {
		require.ErrorIs(t, svc.ResetPassword(ctx, token, "another-password-x"), ErrInvalidToken)
	})

	t.Run("old password stops working", func(t *testing.T) {
		_, err := svc.Login(ctx, "reset@example.com", "a-long-password")
		require.ErrorIs(t, err, ErrInvalidCredentials)

		result, err := svc.Login(ctx, "reset@example.com", "a-new-long-password")
		require.NoError(t, err)
		require.NotEmpty(t, result.Token)
	})
}
