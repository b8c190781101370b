package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/blazethunderstorm/screen-recorder/internal/auth"
	"github.com/blazethunderstorm/screen-recorder/internal/logging"
)

// UserHandler serves user profiles.
type UserHandler struct {
	Profiles ProfileDirectory
	Limiter  RateLimiter
}

// Item handles /api/v1/users/{id}.
func (h UserHandler) Item(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.Get(w, r)
	case http.MethodPut:
		h.Update(w, r)
	default:
		methodNotAllowed(w, "GET, PUT")
	}
}

// Get handles GET /api/v1/users/{id}.
func (h UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !h.ready(w, r) {
		return
	}

	profile, err := h.Profiles.Profile(ctx, auth.PrincipalFromContext(ctx), r.PathValue("id"))
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, profile)
}

// Update handles PUT /api/v1/users/{id}.
func (h UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !h.ready(w, r) || !allow(w, r, h.Limiter, "users.write") {
		return
	}

	var req updateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logging.FromContext(ctx).Warn("invalid update user payload", "error", err)
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	user, err := h.Profiles.Rename(ctx, auth.PrincipalFromContext(ctx), r.PathValue("id"), req.Name)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, user)
}

func (h UserHandler) ready(w http.ResponseWriter, r *http.Request) bool {
	if h.Profiles == nil {
		logging.FromContext(r.Context()).Error("profile directory unavailable")
		respondJSON(r.Context(), w, http.StatusInternalServerError, map[string]string{"error": "profile service unavailable"})
		return false
	}
	return true
}

type updateUserRequest struct {
	Name string `json:"name"`
}
