package handler

import (
	"net/http"
	"strconv"

	"ypg-admin-api/internal/models"
)

// ListTeamMembers handles GET /api/team/
func (h *Handler) ListTeamMembers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var filter models.TeamFilter
	filter.IncludeInactive, _ = strconv.ParseBool(q.Get("include_inactive"))
	filter.CouncilOnly, _ = strconv.ParseBool(q.Get("council"))

	team, err := h.service.ListTeamMembers(r.Context(), filter)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, models.TeamListResponse{Success: true, Team: team})
}

// CreateTeamMember handles POST /api/team/create/
func (h *Handler) CreateTeamMember(w http.ResponseWriter, r *http.Request) {
	var in models.TeamMemberInput
	if !h.decodeJSON(w, r, &in) {
		return
	}

	member, err := h.service.CreateTeamMember(r.Context(), in)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusCreated, models.TeamMemberResponse{Success: true, Member: member})
}

// UpdateTeamMember handles PUT /api/team/{id}/update/
func (h *Handler) UpdateTeamMember(w http.ResponseWriter, r *http.Request) {
	id, ok := h.idParam(w, r, "id")
	if !ok {
		return
	}

	var in models.TeamMemberInput
	if !h.decodeJSON(w, r, &in) {
		return
	}

	member, err := h.service.UpdateTeamMember(r.Context(), id, in)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, models.TeamMemberResponse{Success: true, Member: member})
}

// DeleteTeamMember handles DELETE /api/team/{id}/delete/
func (h *Handler) DeleteTeamMember(w http.ResponseWriter, r *http.Request) {
	id, ok := h.idParam(w, r, "id")
	if !ok {
		return
	}

	if err := h.service.DeleteTeamMember(r.Context(), id); err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, models.MessageResponse{
		Success: true,
		Message: "Team member deleted successfully",
	})
}
