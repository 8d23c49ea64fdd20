package http

import (
	"net/http"
	"time"

	"github.com/aiforge-cloud/aiforge/internal/rbac"
	"github.com/aiforge-cloud/aiforge/internal/service"
	"github.com/aiforge-cloud/aiforge/pkg/httpx"
)

type MembershipHandler struct {
	MembershipService *service.MembershipService
}

type membershipResponse struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// HandleList handles GET /v1/teams/{teamID}/members.
func (h *MembershipHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromContext(r)
	if !ok {
		writeUnauthorized(w)
		return
	}

	members, err := h.MembershipService.List(r.Context(), actor, r.PathValue("teamID"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	out := make([]membershipResponse, 0, len(members))
	for _, m := range members {
		out = append(out, membershipResponse{
			ID:        m.ID,
			UserID:    m.UserID,
			Role:      string(m.Role),
			CreatedAt: m.CreatedAt,
		})
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"members": out})
}

type updateRoleRequest struct {
	Role string `json:"role"`
}

// HandleUpdateRole handles PATCH /v1/teams/{teamID}/members/{membershipID}.
func (h *MembershipHandler) HandleUpdateRole(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromContext(r)
	if !ok {
		writeUnauthorized(w)
		return
	}

	var req updateRoleRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	err := h.MembershipService.UpdateRole(r.Context(), actor,
		r.PathValue("teamID"), r.PathValue("membershipID"), rbac.Role(req.Role))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleRemove handles DELETE /v1/teams/{teamID}/members/{membershipID}.
func (h *MembershipHandler) HandleRemove(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromContext(r)
	if !ok {
		writeUnauthorized(w)
		return
	}

	err := h.MembershipService.Remove(r.Context(), actor,
		r.PathValue("teamID"), r.PathValue("membershipID"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
