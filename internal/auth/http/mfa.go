package http

import (
	"net/http"

	"github.com/aiforge-cloud/aiforge/internal/service"
	"github.com/aiforge-cloud/aiforge/pkg/httpx"
)

// MFAHandler covers device enrollment, verification and recovery codes for
// the authenticated user.
type MFAHandler struct {
	MFAService *service.MFAService
}

// HandleEnrollStart handles POST /v1/mfa/devices/enroll. Returns the staged
// secret and provisioning URI; nothing is persisted until confirmation.
func (h *MFAHandler) HandleEnrollStart(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromContext(r)
	if !ok {
		writeUnauthorized(w)
		return
	}

	enrollment, err := h.MFAService.GenerateEnrollmentSecret(r.Context(), actor)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, map[string]string{
		"secret":  enrollment.Secret,
		"url":     enrollment.URL,
		"issuer":  enrollment.Issuer,
		"account": enrollment.Account,
	})
}

type confirmEnrollmentRequest struct {
	Secret string `json:"secret"`
	Code   string `json:"code"`
	Name   string `json:"name"`
}

type deviceResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// HandleEnrollConfirm handles POST /v1/mfa/devices.
func (h *MFAHandler) HandleEnrollConfirm(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromContext(r)
	if !ok {
		writeUnauthorized(w)
		return
	}

	var req confirmEnrollmentRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Secret == "" || req.Code == "" {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "Secret and code are required.")
		return
	}

	device, err := h.MFAService.ConfirmEnrollment(r.Context(), actor, req.Secret, req.Code, req.Name)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, deviceResponse{ID: device.ID, Name: device.Name})
}

// HandleListDevices handles GET /v1/mfa/devices. Secrets never leave the
// server.
func (h *MFAHandler) HandleListDevices(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromContext(r)
	if !ok {
		writeUnauthorized(w)
		return
	}

	devices, err := h.MFAService.ListDevices(r.Context(), actor)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	out := make([]deviceResponse, 0, len(devices))
	for _, d := range devices {
		out = append(out, deviceResponse{ID: d.ID, Name: d.Name})
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"devices": out})
}

// HandleDeleteDevice handles DELETE /v1/mfa/devices/{id}.
func (h *MFAHandler) HandleDeleteDevice(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromContext(r)
	if !ok {
		writeUnauthorized(w)
		return
	}

	if err := h.MFAService.DeleteDevice(r.Context(), actor, r.PathValue("id")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type verifyDeviceRequest struct {
	Code string `json:"code"`
}

// HandleVerifyDevice handles POST /v1/mfa/verify. Success opens the
// 30-minute window the sensitive device operations require.
func (h *MFAHandler) HandleVerifyDevice(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromContext(r)
	if !ok {
		writeUnauthorized(w)
		return
	}

	var req verifyDeviceRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.MFAService.VerifyDevice(r.Context(), actor, req.Code); err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]string{"message": "Device verified."})
}

// HandleGenerateRecoveryCodes handles POST /v1/mfa/recovery-codes. The codes
// are shown exactly once.
func (h *MFAHandler) HandleGenerateRecoveryCodes(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromContext(r)
	if !ok {
		writeUnauthorized(w)
		return
	}

	codes, err := h.MFAService.GenerateRecoveryCodes(r.Context(), actor)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"recovery_codes": codes})
}
