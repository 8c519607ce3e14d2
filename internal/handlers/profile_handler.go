package handlers

import (
	"net/http"

	"finquest/internal/service"
)

// ProfileHandler handles progression and stats endpoints
type ProfileHandler struct {
	progression *service.ProgressionService
}

// NewProfileHandler creates a new profile handler
func NewProfileHandler(progression *service.ProgressionService) *ProfileHandler {
	return &ProfileHandler{progression: progression}
}

// Profile handles GET /profile
func (h *ProfileHandler) Profile(w http.ResponseWriter, r *http.Request) {
	profile, err := h.progression.GetProfile(IdentityFrom(r).UserID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, profile)
}

// Ranks handles GET /ranks. Public: the rank table is static content.
func (h *ProfileHandler) Ranks(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"ranks":     h.progression.Ranks(),
		"max_level": service.MaxLevel,
	})
}

// Stats handles GET /stats
func (h *ProfileHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.progression.GetStats(IdentityFrom(r).UserID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, stats)
}
