package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/aiforge-cloud/aiforge/internal/artifacts"
	"github.com/aiforge-cloud/aiforge/internal/domain"
	"github.com/aiforge-cloud/aiforge/internal/rbac"
	"github.com/aiforge-cloud/aiforge/internal/store"
	"github.com/aiforge-cloud/aiforge/pkg/idx"
	"github.com/aiforge-cloud/aiforge/pkg/slogx"
)

var ErrArtifactUpload = errors.New("artifact upload failed")

type ProjectService struct {
	Store store.Store
}

func (s *ProjectService) Create(ctx context.Context, actor domain.Actor, teamID, name, description string) (domain.Project, error) {
	if _, err := requireCapability(ctx, s.Store, actor, teamID, rbac.CapCreateProjects); err != nil {
		return domain.Project{}, err
	}

	project := domain.Project{
		ID:          idx.New().String(),
		TeamID:      teamID,
		Name:        name,
		Description: description,
		CreatedBy:   actor.UserID,
	}
	if err := s.Store.Projects().CreateProject(ctx, project); err != nil {
		return domain.Project{}, fmt.Errorf("create project: %w", err)
	}
	return project, nil
}

func (s *ProjectService) Get(ctx context.Context, actor domain.Actor, projectID string) (domain.Project, error) {
	project, err := s.Store.Projects().GetProjectByID(ctx, projectID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Project{}, ErrProjectNotFound
		}
		return domain.Project{}, fmt.Errorf("fetch project: %w", err)
	}
	if _, err := requireMembership(ctx, s.Store, actor, project.TeamID); err != nil {
		return domain.Project{}, err
	}
	return project, nil
}

func (s *ProjectService) List(ctx context.Context, actor domain.Actor, teamID string) ([]domain.Project, error) {
	if _, err := requireMembership(ctx, s.Store, actor, teamID); err != nil {
		return nil, err
	}
	return s.Store.Projects().ListTeamProjects(ctx, teamID)
}

func (s *ProjectService) Update(ctx context.Context, actor domain.Actor, projectID, name, description string) error {
	project, err := s.Get(ctx, actor, projectID)
	if err != nil {
		return err
	}
	if _, err := requireCapability(ctx, s.Store, actor, project.TeamID, rbac.CapUpdateProjects); err != nil {
		return err
	}
	if err := s.Store.Projects().UpdateProject(ctx, projectID, name, description); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrProjectNotFound
		}
		return fmt.Errorf("update project: %w", err)
	}
	return nil
}

func (s *ProjectService) Delete(ctx context.Context, actor domain.Actor, projectID string) error {
	project, err := s.Get(ctx, actor, projectID)
	if err != nil {
		return err
	}
	if _, err := requireCapability(ctx, s.Store, actor, project.TeamID, rbac.CapDeleteProjects); err != nil {
		return err
	}
	if err := s.Store.Projects().DeleteProject(ctx, projectID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrProjectNotFound
		}
		return fmt.Errorf("delete project: %w", err)
	}
	return nil
}

// EndpointService manages model endpoints under projects. Deployment here
// means uploading the artifact and recording the handoff; the build/run
// pipeline is external and reports back through CompleteDeployment.
type EndpointService struct {
	Store     store.Store
	Artifacts artifacts.Storage
}

func (s *EndpointService) Create(ctx context.Context, actor domain.Actor, projectID, name, runtime string) (domain.Endpoint, error) {
	project, err := s.project(ctx, projectID)
	if err != nil {
		return domain.Endpoint{}, err
	}
	if _, err := requireCapability(ctx, s.Store, actor, project.TeamID, rbac.CapCreateEndpoints); err != nil {
		return domain.Endpoint{}, err
	}

	endpoint := domain.Endpoint{
		ID:        idx.New().String(),
		ProjectID: projectID,
		Name:      name,
		Runtime:   runtime,
		Status:    domain.EndpointDraft,
		CreatedBy: actor.UserID,
	}
	if err := s.Store.Endpoints().CreateEndpoint(ctx, endpoint); err != nil {
		return domain.Endpoint{}, fmt.Errorf("create endpoint: %w", err)
	}
	return endpoint, nil
}

func (s *EndpointService) Get(ctx context.Context, actor domain.Actor, endpointID string) (domain.Endpoint, error) {
	endpoint, project, err := s.endpoint(ctx, endpointID)
	if err != nil {
		return domain.Endpoint{}, err
	}
	if _, err := requireMembership(ctx, s.Store, actor, project.TeamID); err != nil {
		return domain.Endpoint{}, err
	}
	return endpoint, nil
}

func (s *EndpointService) List(ctx context.Context, actor domain.Actor, projectID string) ([]domain.Endpoint, error) {
	project, err := s.project(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if _, err := requireMembership(ctx, s.Store, actor, project.TeamID); err != nil {
		return nil, err
	}
	return s.Store.Endpoints().ListProjectEndpoints(ctx, projectID)
}

// Deploy uploads the model artifact and moves the endpoint to DEPLOYING. An
// upload failure surfaces as ErrArtifactUpload and leaves the endpoint
// record untouched.
func (s *EndpointService) Deploy(ctx context.Context, actor domain.Actor, endpointID, filename string, body io.Reader) (domain.Endpoint, error) {
	log := slogx.FromContext(ctx)

	endpoint, project, err := s.endpoint(ctx, endpointID)
	if err != nil {
		return domain.Endpoint{}, err
	}
	if _, err := requireCapability(ctx, s.Store, actor, project.TeamID, rbac.CapUpdateEndpoints); err != nil {
		return domain.Endpoint{}, err
	}

	key, err := s.Artifacts.Upload(ctx, endpointID, filename, body)
	if err != nil {
		log.Warn("artifact upload failed",
			slog.String("endpoint_id", endpointID),
			slog.Any("error", err),
		)
		return domain.Endpoint{}, ErrArtifactUpload
	}

	if err := s.Store.Endpoints().UpdateEndpointDeployment(ctx, endpointID, key, domain.EndpointDeploying); err != nil {
		return domain.Endpoint{}, fmt.Errorf("record deployment: %w", err)
	}

	endpoint.ArtifactKey = key
	endpoint.Status = domain.EndpointDeploying

	log.Info("endpoint deployment started",
		slog.String("endpoint_id", endpointID),
		slog.String("artifact_key", key),
	)
	return endpoint, nil
}

// CompleteDeployment records the external pipeline's outcome.
func (s *EndpointService) CompleteDeployment(ctx context.Context, endpointID string, succeeded bool) error {
	endpoint, _, err := s.endpoint(ctx, endpointID)
	if err != nil {
		return err
	}

	status := domain.EndpointReady
	if !succeeded {
		status = domain.EndpointFailed
	}
	if err := s.Store.Endpoints().UpdateEndpointDeployment(ctx, endpointID, endpoint.ArtifactKey, status); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrEndpointNotFound
		}
		return fmt.Errorf("record deployment outcome: %w", err)
	}
	return nil
}

func (s *EndpointService) Delete(ctx context.Context, actor domain.Actor, endpointID string) error {
	log := slogx.FromContext(ctx)

	endpoint, project, err := s.endpoint(ctx, endpointID)
	if err != nil {
		return err
	}
	if _, err := requireCapability(ctx, s.Store, actor, project.TeamID, rbac.CapDeleteEndpoints); err != nil {
		return err
	}

	if err := s.Store.Endpoints().DeleteEndpoint(ctx, endpointID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrEndpointNotFound
		}
		return fmt.Errorf("delete endpoint: %w", err)
	}

	// Artifact cleanup is best effort; a stale object is not worth failing
	// the delete over.
	if endpoint.ArtifactKey != "" {
		if err := s.Artifacts.Delete(ctx, endpoint.ArtifactKey); err != nil {
			log.Warn("artifact cleanup failed",
				slog.String("endpoint_id", endpointID),
				slog.Any("error", err),
			)
		}
	}
	return nil
}

func (s *EndpointService) project(ctx context.Context, projectID string) (domain.Project, error) {
	project, err := s.Store.Projects().GetProjectByID(ctx, projectID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Project{}, ErrProjectNotFound
		}
		return domain.Project{}, fmt.Errorf("fetch project: %w", err)
	}
	return project, nil
}

func (s *EndpointService) endpoint(ctx context.Context, endpointID string) (domain.Endpoint, domain.Project, error) {
	endpoint, err := s.Store.Endpoints().GetEndpointByID(ctx, endpointID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Endpoint{}, domain.Project{}, ErrEndpointNotFound
		}
		return domain.Endpoint{}, domain.Project{}, fmt.Errorf("fetch endpoint: %w", err)
	}
	project, err := s.project(ctx, endpoint.ProjectID)
	if err != nil {
		return domain.Endpoint{}, domain.Project{}, err
	}
	return endpoint, project, nil
}
