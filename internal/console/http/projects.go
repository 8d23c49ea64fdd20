package http

import (
	"net/http"
	"time"

	"github.com/aiforge-cloud/aiforge/internal/domain"
	"github.com/aiforge-cloud/aiforge/internal/service"
	"github.com/aiforge-cloud/aiforge/pkg/httpx"
)

type ProjectHandler struct {
	ProjectService *service.ProjectService
}

type projectRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type projectResponse struct {
	ID          string    `json:"id"`
	TeamID      string    `json:"team_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func toProjectResponse(p domain.Project) projectResponse {
	return projectResponse{
		ID:          p.ID,
		TeamID:      p.TeamID,
		Name:        p.Name,
		Description: p.Description,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

// HandleCreate handles POST /v1/teams/{teamID}/projects.
func (h *ProjectHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromContext(r)
	if !ok {
		writeUnauthorized(w)
		return
	}

	var req projectRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Name == "" {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "Name is required.")
		return
	}

	project, err := h.ProjectService.Create(r.Context(), actor, r.PathValue("teamID"), req.Name, req.Description)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, toProjectResponse(project))
}

// HandleList handles GET /v1/teams/{teamID}/projects.
func (h *ProjectHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromContext(r)
	if !ok {
		writeUnauthorized(w)
		return
	}

	projects, err := h.ProjectService.List(r.Context(), actor, r.PathValue("teamID"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	out := make([]projectResponse, 0, len(projects))
	for _, p := range projects {
		out = append(out, toProjectResponse(p))
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"projects": out})
}

// HandleGet handles GET /v1/projects/{projectID}.
func (h *ProjectHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromContext(r)
	if !ok {
		writeUnauthorized(w)
		return
	}

	project, err := h.ProjectService.Get(r.Context(), actor, r.PathValue("projectID"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toProjectResponse(project))
}

// HandleUpdate handles PATCH /v1/projects/{projectID}.
func (h *ProjectHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromContext(r)
	if !ok {
		writeUnauthorized(w)
		return
	}

	var req projectRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Name == "" {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "Name is required.")
		return
	}

	if err := h.ProjectService.Update(r.Context(), actor, r.PathValue("projectID"), req.Name, req.Description); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleDelete handles DELETE /v1/projects/{projectID}.
func (h *ProjectHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromContext(r)
	if !ok {
		writeUnauthorized(w)
		return
	}

	if err := h.ProjectService.Delete(r.Context(), actor, r.PathValue("projectID")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
