package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aiforge-cloud/aiforge/internal/domain"
	"github.com/aiforge-cloud/aiforge/internal/rbac"
	"github.com/aiforge-cloud/aiforge/internal/store"
	"github.com/aiforge-cloud/aiforge/internal/store/sqlite"
	"github.com/aiforge-cloud/aiforge/pkg/cryptox"
	"github.com/aiforge-cloud/aiforge/pkg/idx"
)

func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "aiforge-service-test")
	if err != nil {
		panic(err)
	}
	cryptox.SetPepperPath(filepath.Join(dir, "pepper"))

	code := m.Run()
	_ = os.RemoveAll(dir)
	os.Exit(code)
}

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	require.NoError(t, st.ApplyMigrations())
	return st
}

func createTestUser(t *testing.T, st store.Store, email string) domain.User {
	t.Helper()

	user := domain.User{
		ID:           idx.New().String(),
		Email:        email,
		DisplayName:  email,
		PasswordHash: "unused",
	}
	require.NoError(t, st.Users().CreateUser(context.Background(), user))
	require.NoError(t, st.Users().MarkEmailVerified(context.Background(), user.ID))
	return user
}

func createTestTeam(t *testing.T, st store.Store, owner domain.User, slug string) domain.Team {
	t.Helper()
	ctx := context.Background()

	team := domain.Team{
		ID:   idx.New().String(),
		Slug: slug,
		Name: slug,
	}
	require.NoError(t, st.Teams().CreateTeam(ctx, team))
	require.NoError(t, st.Memberships().CreateMembership(ctx, domain.Membership{
		ID:     idx.New().String(),
		TeamID: team.ID,
		UserID: owner.ID,
		Role:   rbac.RoleOwner,
	}))
	return team
}

func addTestMember(t *testing.T, st store.Store, teamID string, user domain.User, role rbac.Role) domain.Membership {
	t.Helper()

	m := domain.Membership{
		ID:     idx.New().String(),
		TeamID: teamID,
		UserID: user.ID,
		Role:   role,
	}
	require.NoError(t, st.Memberships().CreateMembership(context.Background(), m))
	return m
}

func actorFor(u domain.User) domain.Actor {
	return domain.Actor{UserID: u.ID, Email: u.Email, EmailVerified: true}
}
