package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"ypg-admin-api/internal/models"
	"ypg-admin-api/internal/validation"
)

// ListBlogPosts handles GET /api/blog/
func (h *Handler) ListBlogPosts(w http.ResponseWriter, r *http.Request) {
	posts, err := h.service.ListPublishedPosts(r.Context())
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, models.BlogListResponse{Success: true, Blog: posts})
}

// ListAllBlogPosts handles GET /api/blog/all/
// Drafts are included; deleted posts only with ?include_deleted=true.
func (h *Handler) ListAllBlogPosts(w http.ResponseWriter, r *http.Request) {
	includeDeleted, _ := strconv.ParseBool(r.URL.Query().Get("include_deleted"))

	posts, err := h.service.ListAllPosts(r.Context(), includeDeleted)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, models.BlogListResponse{Success: true, Blog: posts})
}

// GetBlogPost handles GET /api/blog/{slug}/
func (h *Handler) GetBlogPost(w http.ResponseWriter, r *http.Request) {
	slug := validation.SanitizeString(chi.URLParam(r, "slug"))

	post, err := h.service.GetPublishedPost(r.Context(), slug)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, models.BlogPostResponse{Success: true, Post: post})
}

// CreateBlogPost handles POST /api/blog/create/
func (h *Handler) CreateBlogPost(w http.ResponseWriter, r *http.Request) {
	var in models.BlogPostInput
	if !h.decodeJSON(w, r, &in) {
		return
	}
	if in.Author == "" {
		in.Author = supervisorName(r)
	}

	post, err := h.service.CreateBlogPost(r.Context(), in)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusCreated, models.CreateBlogPostResponse{
		Success: true,
		Message: "Blog post created successfully",
		PostID:  post.ID,
		Slug:    post.Slug,
	})
}

// UpdateBlogPost handles PUT /api/blog/{slug}/update/
func (h *Handler) UpdateBlogPost(w http.ResponseWriter, r *http.Request) {
	var in models.BlogPostInput
	if !h.decodeJSON(w, r, &in) {
		return
	}

	post, err := h.service.UpdateBlogPost(r.Context(), chi.URLParam(r, "slug"), in)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, models.BlogPostResponse{Success: true, Post: post})
}

// DeleteBlogPost handles DELETE /api/blog/{slug}/delete/
func (h *Handler) DeleteBlogPost(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteBlogPost(r.Context(), chi.URLParam(r, "slug")); err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, models.MessageResponse{
		Success: true,
		Message: "Blog post deleted successfully",
	})
}

// RestoreBlogPost handles POST /api/blog/{slug}/restore/
func (h *Handler) RestoreBlogPost(w http.ResponseWriter, r *http.Request) {
	post, err := h.service.RestoreBlogPost(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, models.BlogPostResponse{Success: true, Post: post})
}
