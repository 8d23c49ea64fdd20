package sqlite

import (
	"context"

	"github.com/aiforge-cloud/aiforge/internal/domain"
)

type endpointsRepo struct {
	db dbtx
}

const endpointColumns = `id, project_id, name, runtime, status, artifact_key, created_by, created_at, updated_at`

func scanEndpoint(scan func(dest ...any) error) (domain.Endpoint, error) {
	var e domain.Endpoint
	var status string
	err := scan(&e.ID, &e.ProjectID, &e.Name, &e.Runtime, &status,
		&e.ArtifactKey, &e.CreatedBy, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return domain.Endpoint{}, mapNotFound(err)
	}
	e.Status = domain.EndpointStatus(status)
	return e, nil
}

func (r *endpointsRepo) CreateEndpoint(ctx context.Context, e domain.Endpoint) error {
	ts := now()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO endpoints (id, project_id, name, runtime, status, artifact_key, created_by, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.ProjectID, e.Name, e.Runtime, string(e.Status), e.ArtifactKey, e.CreatedBy, ts, ts)
	return mapConstraint(err)
}

func (r *endpointsRepo) GetEndpointByID(ctx context.Context, id string) (domain.Endpoint, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+endpointColumns+` FROM endpoints WHERE id = ?`, id)
	return scanEndpoint(row.Scan)
}

func (r *endpointsRepo) ListProjectEndpoints(ctx context.Context, projectID string) ([]domain.Endpoint, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+endpointColumns+` FROM endpoints WHERE project_id = ? ORDER BY created_at`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var endpoints []domain.Endpoint
	for rows.Next() {
		e, err := scanEndpoint(rows.Scan)
		if err != nil {
			return nil, err
		}
		endpoints = append(endpoints, e)
	}
	return endpoints, rows.Err()
}

func (r *endpointsRepo) UpdateEndpointDeployment(ctx context.Context, endpointID, artifactKey string, status domain.EndpointStatus) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE endpoints SET artifact_key = ?, status = ?, updated_at = ? WHERE id = ?`,
		artifactKey, string(status), now(), endpointID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *endpointsRepo) DeleteEndpoint(ctx context.Context, endpointID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM endpoints WHERE id = ?`, endpointID)
	if err != nil {
		return err
	}
	return requireRow(res)
}
