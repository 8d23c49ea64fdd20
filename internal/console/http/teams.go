package http

import (
	"net/http"
	"time"

	"github.com/aiforge-cloud/aiforge/internal/domain"
	"github.com/aiforge-cloud/aiforge/internal/service"
	"github.com/aiforge-cloud/aiforge/pkg/httpx"
)

type TeamHandler struct {
	TeamService *service.TeamService
}

type teamRequest struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
	Icon string `json:"icon"`
}

type teamResponse struct {
	ID        string    `json:"id"`
	Slug      string    `json:"slug"`
	Name      string    `json:"name"`
	Icon      string    `json:"icon,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func toTeamResponse(t domain.Team) teamResponse {
	return teamResponse{
		ID:        t.ID,
		Slug:      t.Slug,
		Name:      t.Name,
		Icon:      t.Icon,
		CreatedAt: t.CreatedAt,
	}
}

// HandleCreate handles POST /v1/teams.
func (h *TeamHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromContext(r)
	if !ok {
		writeUnauthorized(w)
		return
	}

	var req teamRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Name == "" || req.Slug == "" {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "Name and slug are required.")
		return
	}

	team, err := h.TeamService.Create(r.Context(), actor, req.Name, req.Slug, req.Icon)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, toTeamResponse(team))
}

// HandleList handles GET /v1/teams.
func (h *TeamHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromContext(r)
	if !ok {
		writeUnauthorized(w)
		return
	}

	teams, err := h.TeamService.List(r.Context(), actor)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	out := make([]teamResponse, 0, len(teams))
	for _, t := range teams {
		out = append(out, toTeamResponse(t))
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"teams": out})
}

// HandleGet handles GET /v1/teams/{teamID}.
func (h *TeamHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromContext(r)
	if !ok {
		writeUnauthorized(w)
		return
	}

	team, err := h.TeamService.Get(r.Context(), actor, r.PathValue("teamID"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toTeamResponse(team))
}

// HandleUpdate handles PATCH /v1/teams/{teamID}.
func (h *TeamHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromContext(r)
	if !ok {
		writeUnauthorized(w)
		return
	}

	var req teamRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Name == "" {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "Name is required.")
		return
	}

	if err := h.TeamService.Update(r.Context(), actor, r.PathValue("teamID"), req.Name, req.Icon); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleDelete handles DELETE /v1/teams/{teamID}.
func (h *TeamHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromContext(r)
	if !ok {
		writeUnauthorized(w)
		return
	}

	if err := h.TeamService.Delete(r.Context(), actor, r.PathValue("teamID")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
