package http

import (
	"errors"
	"net/http"

	"github.com/aiforge-cloud/aiforge/internal/domain"
	"github.com/aiforge-cloud/aiforge/internal/service"
	"github.com/aiforge-cloud/aiforge/pkg/httpx"
	"github.com/aiforge-cloud/aiforge/pkg/slogx"
)

// writeServiceError maps service sentinels to wire errors. Invitation
// statuses come back verbatim so the UI can tell an expired link from a
// cancelled one.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrForbidden):
		httpx.WriteError(w, http.StatusForbidden, "forbidden", "You do not have permission to do that.")
	case errors.Is(err, service.ErrTeamNotFound),
		errors.Is(err, service.ErrMembershipNotFound),
		errors.Is(err, service.ErrProjectNotFound),
		errors.Is(err, service.ErrEndpointNotFound),
		errors.Is(err, service.ErrInvitationNotFound):
		httpx.WriteError(w, http.StatusNotFound, "not_found", "Not found.")
	case errors.Is(err, service.ErrSlugTaken):
		httpx.WriteError(w, http.StatusConflict, "slug_taken", "That slug is already taken.")
	case errors.Is(err, service.ErrInvalidSlug):
		httpx.WriteError(w, http.StatusBadRequest, "invalid_slug", "Slug must be lowercase letters, digits and hyphens.")
	case errors.Is(err, service.ErrDuplicateInvitation):
		httpx.WriteError(w, http.StatusConflict, "duplicate_invitation", "A pending invitation already exists for this email.")
	case errors.Is(err, service.ErrAlreadyMember):
		httpx.WriteError(w, http.StatusConflict, "already_member", "This user is already a member of the team.")
	case errors.Is(err, service.ErrInvitationExpired):
		httpx.WriteError(w, http.StatusGone, "invitation_expired", "This invitation has expired.")
	case errors.Is(err, service.ErrInvitationAccepted):
		httpx.WriteError(w, http.StatusConflict, "invitation_accepted", "This invitation has already been accepted.")
	case errors.Is(err, service.ErrInvitationDeclined):
		httpx.WriteError(w, http.StatusConflict, "invitation_declined", "This invitation has been declined.")
	case errors.Is(err, service.ErrInvitationCancelled):
		httpx.WriteError(w, http.StatusConflict, "invitation_cancelled", "This invitation has been cancelled.")
	case errors.Is(err, service.ErrEmailMismatch):
		httpx.WriteError(w, http.StatusForbidden, "email_mismatch", "This invitation was issued for a different email.")
	case errors.Is(err, service.ErrEmailNotVerified):
		httpx.WriteError(w, http.StatusForbidden, "email_not_verified", "Verify your email before accepting invitations.")
	case errors.Is(err, service.ErrInvalidRole):
		httpx.WriteError(w, http.StatusBadRequest, "invalid_role", "Role must be ADMIN or MEMBER.")
	case errors.Is(err, service.ErrCannotModifyOwner):
		httpx.WriteError(w, http.StatusForbidden, "cannot_modify_owner", "The owner's role cannot be changed.")
	case errors.Is(err, service.ErrCannotRemoveOwner):
		httpx.WriteError(w, http.StatusForbidden, "cannot_remove_owner", "The owner cannot be removed.")
	case errors.Is(err, service.ErrCannotRemoveSelf):
		httpx.WriteError(w, http.StatusForbidden, "cannot_remove_self", "Use the leave-team action to remove yourself.")
	case errors.Is(err, service.ErrOnlyOwnerPromotesToAdmin):
		httpx.WriteError(w, http.StatusForbidden, "owner_only_promotion", "Only the owner can promote members to admin.")
	case errors.Is(err, service.ErrArtifactUpload):
		httpx.WriteError(w, http.StatusBadGateway, "artifact_upload_failed", "The artifact could not be stored. Try again.")
	default:
		slogx.FromContext(r.Context()).Error("request failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", "Something went wrong.")
	}
}

func actorFromContext(r *http.Request) (domain.Actor, bool) {
	userID, ok := httpx.UserIDFromContext(r.Context())
	if !ok {
		return domain.Actor{}, false
	}
	email, verified := httpx.EmailFromContext(r.Context())
	return domain.Actor{UserID: userID, Email: email, EmailVerified: verified}, true
}

func writeUnauthorized(w http.ResponseWriter) {
	httpx.WriteError(w, http.StatusUnauthorized, "unauthorized", "Authentication required.")
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := decodeBody(r, v); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "Request body is not valid JSON.")
		return false
	}
	return true
}
