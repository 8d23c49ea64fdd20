package http

import (
	"net/http"
	"time"

	"github.com/aiforge-cloud/aiforge/internal/domain"
	"github.com/aiforge-cloud/aiforge/internal/service"
	"github.com/aiforge-cloud/aiforge/pkg/httpx"
)

// maxArtifactBytes caps model artifact uploads at 512 MiB.
const maxArtifactBytes = 512 << 20

type EndpointHandler struct {
	EndpointService *service.EndpointService
}

type endpointResponse struct {
	ID          string    `json:"id"`
	ProjectID   string    `json:"project_id"`
	Name        string    `json:"name"`
	Runtime     string    `json:"runtime"`
	Status      string    `json:"status"`
	ArtifactKey string    `json:"artifact_key,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func toEndpointResponse(e domain.Endpoint) endpointResponse {
	return endpointResponse{
		ID:          e.ID,
		ProjectID:   e.ProjectID,
		Name:        e.Name,
		Runtime:     e.Runtime,
		Status:      string(e.Status),
		ArtifactKey: e.ArtifactKey,
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
	}
}

type createEndpointRequest struct {
	Name    string `json:"name"`
	Runtime string `json:"runtime"`
}

// HandleCreate handles POST /v1/projects/{projectID}/endpoints.
func (h *EndpointHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromContext(r)
	if !ok {
		writeUnauthorized(w)
		return
	}

	var req createEndpointRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Name == "" || req.Runtime == "" {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "Name and runtime are required.")
		return
	}

	endpoint, err := h.EndpointService.Create(r.Context(), actor, r.PathValue("projectID"), req.Name, req.Runtime)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, toEndpointResponse(endpoint))
}

// HandleList handles GET /v1/projects/{projectID}/endpoints.
func (h *EndpointHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromContext(r)
	if !ok {
		writeUnauthorized(w)
		return
	}

	endpoints, err := h.EndpointService.List(r.Context(), actor, r.PathValue("projectID"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	out := make([]endpointResponse, 0, len(endpoints))
	for _, e := range endpoints {
		out = append(out, toEndpointResponse(e))
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"endpoints": out})
}

// HandleGet handles GET /v1/endpoints/{endpointID}.
func (h *EndpointHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromContext(r)
	if !ok {
		writeUnauthorized(w)
		return
	}

	endpoint, err := h.EndpointService.Get(r.Context(), actor, r.PathValue("endpointID"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toEndpointResponse(endpoint))
}

// HandleDeploy handles POST /v1/endpoints/{endpointID}/deploy. The request
// body is the artifact itself; the filename comes from the multipart form
// or, for raw uploads, the filename query parameter.
func (h *EndpointHandler) HandleDeploy(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromContext(r)
	if !ok {
		writeUnauthorized(w)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxArtifactBytes)

	filename := r.URL.Query().Get("filename")
	if filename == "" {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "The filename query parameter is required.")
		return
	}

	endpoint, err := h.EndpointService.Deploy(r.Context(), actor, r.PathValue("endpointID"), filename, r.Body)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusAccepted, toEndpointResponse(endpoint))
}

type completeDeploymentRequest struct {
	Succeeded bool `json:"succeeded"`
}

// HandleCompleteDeployment handles POST /v1/endpoints/{endpointID}/deploy/complete.
// Called by the deployment worker, which authenticates as a service account.
func (h *EndpointHandler) HandleCompleteDeployment(w http.ResponseWriter, r *http.Request) {
	if _, ok := actorFromContext(r); !ok {
		writeUnauthorized(w)
		return
	}

	var req completeDeploymentRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.EndpointService.CompleteDeployment(r.Context(), r.PathValue("endpointID"), req.Succeeded); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleDelete handles DELETE /v1/endpoints/{endpointID}.
func (h *EndpointHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromContext(r)
	if !ok {
		writeUnauthorized(w)
		return
	}

	if err := h.EndpointService.Delete(r.Context(), actor, r.PathValue("endpointID")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
