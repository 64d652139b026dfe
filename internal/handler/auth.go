package handler

import (
	"net/http"

	"ypg-admin-api/internal/middleware"
	"ypg-admin-api/internal/models"
)

// Login handles POST /api/auth/login/
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	resp, err := h.service.Login(r.Context(), req, middleware.ClientIP(r))
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, resp)
}

// AuthStatus handles GET /api/auth/status/
func (h *Handler) AuthStatus(w http.ResponseWriter, r *http.Request) {
	sup, err := h.service.SupervisorStatus(r.Context(), supervisorName(r))
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, models.SupervisorResponse{Success: true, Supervisor: sup})
}

// ChangeCredentials handles POST /api/auth/credentials/
// Existing tokens name the old username, so a rename requires a new login.
func (h *Handler) ChangeCredentials(w http.ResponseWriter, r *http.Request) {
	var req models.ChangeCredentialsRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	sup, err := h.service.ChangeCredentials(r.Context(), supervisorName(r), req)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, models.SupervisorResponse{Success: true, Supervisor: sup})
}
