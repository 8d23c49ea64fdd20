package http

import (
	"errors"
	"net/http"

	"github.com/aiforge-cloud/aiforge/internal/domain"
	"github.com/aiforge-cloud/aiforge/internal/service"
	"github.com/aiforge-cloud/aiforge/pkg/httpx"
	"github.com/aiforge-cloud/aiforge/pkg/slogx"
)

// writeServiceError maps service sentinels to wire errors. Anything
// unrecognized is logged and reported as a generic server error so internals
// never leak.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		httpx.WriteError(w, http.StatusUnauthorized, "invalid_credentials", "Invalid email or password.")
	case errors.Is(err, service.ErrEmailTaken):
		httpx.WriteError(w, http.StatusConflict, "email_taken", "This email is already registered.")
	case errors.Is(err, service.ErrWeakPassword):
		httpx.WriteError(w, http.StatusBadRequest, "weak_password", "Password does not meet length requirements.")
	case errors.Is(err, service.ErrInvalidToken):
		httpx.WriteError(w, http.StatusBadRequest, "invalid_token", "Token is invalid or expired.")
	case errors.Is(err, service.ErrInvalidCode):
		httpx.WriteError(w, http.StatusBadRequest, "invalid_code", "The submitted code is not valid.")
	case errors.Is(err, service.ErrChallengeNotFound):
		httpx.WriteError(w, http.StatusNotFound, "challenge_not_found", "Challenge not found or expired.")
	case errors.Is(err, service.ErrTooManyAttempts):
		httpx.WriteError(w, http.StatusTooManyRequests, "too_many_attempts", "Too many failed attempts.")
	case errors.Is(err, service.ErrDeviceNotFound):
		httpx.WriteError(w, http.StatusNotFound, "device_not_found", "MFA device not found.")
	case errors.Is(err, service.ErrVerificationRequired):
		httpx.WriteError(w, http.StatusForbidden, "verification_required", "Verify an existing device first.")
	default:
		slogx.FromContext(r.Context()).Error("request failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", "Something went wrong.")
	}
}

// actorFromContext rebuilds the explicit actor every service call takes from
// the claims the authn middleware verified.
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
