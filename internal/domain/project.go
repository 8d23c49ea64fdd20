package domain

import "time"

type Project struct {
	ID          string
	TeamID      string
	Name        string
	Description string
	CreatedBy   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// EndpointStatus tracks where a model endpoint is in its deployment flow.
// The actual build/run work happens in an external pipeline; these values
// only record what the platform has handed off.
type EndpointStatus string

const (
	EndpointDraft     EndpointStatus = "DRAFT"     // created, no artifact yet
	EndpointDeploying EndpointStatus = "DEPLOYING" // artifact uploaded, handed to the pipeline
	EndpointReady     EndpointStatus = "READY"
	EndpointFailed    EndpointStatus = "FAILED"
)

// Endpoint is a deployable model behind an HTTP route. ArtifactKey points at
// the uploaded model artifact in object storage, empty until first deploy.
type Endpoint struct {
	ID          string
	ProjectID   string
	Name        string
	Runtime     string // e.g. "python-3.12", chosen by the user
	Status      EndpointStatus
	ArtifactKey string
	CreatedBy   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
