package handler

import (
	"net/http"

	"github.com/dandantas/starling/internal/store"
)

// ProfileHandler serves the configured automation profiles
type ProfileHandler struct {
	profiles store.ProfileStore
}

// NewProfileHandler creates a new profile handler
func NewProfileHandler(profiles store.ProfileStore) *ProfileHandler {
	return &ProfileHandler{profiles: profiles}
}

// List returns all configured profiles
func (h *ProfileHandler) List(w http.ResponseWriter, r *http.Request) {
	profiles, err := h.profiles.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load profiles")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"profiles": profiles,
		"count":    len(profiles),
	})
}
