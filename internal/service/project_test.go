package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aiforge-cloud/aiforge/internal/artifacts"
	"github.com/aiforge-cloud/aiforge/internal/domain"
	"github.com/aiforge-cloud/aiforge/internal/rbac"
)

func TestProjectLifecycle(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	svc := &ProjectService{Store: st}

	owner := createTestUser(t, st, "owner@example.com")
	team := createTestTeam(t, st, owner, "acme")
	member := createTestUser(t, st, "member@example.com")
	addTestMember(t, st, team.ID, member, rbac.RoleMember)
	outsider := createTestUser(t, st, "out@example.com")

	project, err := svc.Create(ctx, actorFor(member), team.ID, "fraud-model", "fraud scoring")
	require.NoError(t, err)

	t.Run("outsiders are shut out", func(t *testing.T) {
		_, err := svc.Get(ctx, actorFor(outsider), project.ID)
		require.ErrorIs(t, err, ErrForbidden)
		_, err = svc.List(ctx, actorFor(outsider), team.ID)
		require.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("members update, only privileged roles delete", func(t *testing.T) {
		require.NoError(t, svc.Update(ctx, actorFor(member), project.ID, "fraud-model-v2", ""))
		require.ErrorIs(t, svc.Delete(ctx, actorFor(member), project.ID), ErrForbidden)
		require.NoError(t, svc.Delete(ctx, actorFor(owner), project.ID))
	})

	t.Run("unknown project", func(t *testing.T) {
		_, err := svc.Get(ctx, actorFor(owner), "missing")
		require.ErrorIs(t, err, ErrProjectNotFound)
	})
}

func TestEndpointDeployment(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	storage := artifacts.NewMemoryStorage()
	projects := &ProjectService{Store: st}
	svc := &EndpointService{Store: st, Artifacts: storage}

	owner := createTestUser(t, st, "owner@example.com")
	team := createTestTeam(t, st, owner, "acme")
	project, err := projects.Create(ctx, actorFor(owner), team.ID, "fraud-model", "")
	require.NoError(t, err)

	endpoint, err := svc.Create(ctx, actorFor(owner), project.ID, "score", "python-3.12")
	require.NoError(t, err)
	require.Equal(t, domain.EndpointDraft, endpoint.Status)
	require.Empty(t, endpoint.ArtifactKey)

	t.Run("deploy uploads and records the handoff", func(t *testing.T) {
		deployed, err := svc.Deploy(ctx, actorFor(owner), endpoint.ID, "model.tar.gz", strings.NewReader("weights"))
		require.NoError(t, err)
		require.Equal(t, domain.EndpointDeploying, deployed.Status)
		require.NotEmpty(t, deployed.ArtifactKey)

		body, err := storage.Download(ctx, deployed.ArtifactKey)
		require.NoError(t, err)
		_ = body.Close()
	})

	t.Run("pipeline outcome lands on the record", func(t *testing.T) {
		require.NoError(t, svc.CompleteDeployment(ctx, endpoint.ID, true))

		stored, err := st.Endpoints().GetEndpointByID(ctx, endpoint.ID)
		require.NoError(t, err)
		require.Equal(t, domain.EndpointReady, stored.Status)
		require.NotEmpty(t, stored.ArtifactKey)
	})

	t.Run("members cannot delete endpoints", func(t *testing.T) {
		member := createTestUser(t, st, "member@example.com")
		addTestMember(t, st, team.ID, member, rbac.RoleMember)

		require.ErrorIs(t, svc.Delete(ctx, actorFor(member), endpoint.ID), ErrForbidden)
		require.NoError(t, svc.Delete(ctx, actorFor(owner), endpoint.ID))
	})
}
