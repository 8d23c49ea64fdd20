package http

import (
	"net/http"
	"time"

	"github.com/aiforge-cloud/aiforge/internal/domain"
	"github.com/aiforge-cloud/aiforge/internal/rbac"
	"github.com/aiforge-cloud/aiforge/internal/service"
	"github.com/aiforge-cloud/aiforge/pkg/httpx"
)

type InvitationHandler struct {
	InvitationService *service.InvitationService
}

type invitationResponse struct {
	ID        string    `json:"id"`
	TeamID    string    `json:"team_id"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	Status    string    `json:"status"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

func toInvitationResponse(inv domain.Invitation) invitationResponse {
	return invitationResponse{
		ID:        inv.ID,
		TeamID:    inv.TeamID,
		Email:     inv.Email,
		Role:      string(inv.Role),
		Status:    string(inv.Status),
		ExpiresAt: inv.ExpiresAt,
		CreatedAt: inv.CreatedAt,
	}
}

type createInvitationRequest struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

// HandleCreate handles POST /v1/teams/{teamID}/invitations. The raw token is
// returned once so the console can offer a copy-link action alongside the
// email.
func (h *InvitationHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromContext(r)
	if !ok {
		writeUnauthorized(w)
		return
	}

	var req createInvitationRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Email == "" {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "Email is required.")
		return
	}

	inv, token, err := h.InvitationService.Create(r.Context(), actor,
		r.PathValue("teamID"), req.Email, rbac.Role(req.Role))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusCreated, map[string]any{
		"invitation": toInvitationResponse(inv),
		"token":      token,
	})
}

// HandleList handles GET /v1/teams/{teamID}/invitations.
func (h *InvitationHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromContext(r)
	if !ok {
		writeUnauthorized(w)
		return
	}

	invs, err := h.InvitationService.List(r.Context(), actor, r.PathValue("teamID"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	out := make([]invitationResponse, 0, len(invs))
	for _, inv := range invs {
		out = append(out, toInvitationResponse(inv))
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"invitations": out})
}

// HandleCancel handles DELETE /v1/invitations/{invitationID}.
func (h *InvitationHandler) HandleCancel(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromContext(r)
	if !ok {
		writeUnauthorized(w)
		return
	}

	if err := h.InvitationService.Cancel(r.Context(), actor, r.PathValue("invitationID")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleValidate handles GET /v1/invitations/validate. The token arrives as
// a query parameter from the emailed link.
func (h *InvitationHandler) HandleValidate(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "Token is required.")
		return
	}

	inv, err := h.InvitationService.Validate(r.Context(), token)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toInvitationResponse(inv))
}

type invitationTokenRequest struct {
	Token string `json:"token"`
}

// HandleAccept handles POST /v1/invitations/accept.
func (h *InvitationHandler) HandleAccept(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromContext(r)
	if !ok {
		writeUnauthorized(w)
		return
	}

	var req invitationTokenRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	membership, err := h.InvitationService.Accept(r.Context(), req.Token, actor)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, membershipResponse{
		ID:        membership.ID,
		UserID:    membership.UserID,
		Role:      string(membership.Role),
		CreatedAt: membership.CreatedAt,
	})
}

// HandleDecline handles POST /v1/invitations/decline.
func (h *InvitationHandler) HandleDecline(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromContext(r)
	if !ok {
		writeUnauthorized(w)
		return
	}

	var req invitationTokenRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.InvitationService.Decline(r.Context(), req.Token, actor); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
