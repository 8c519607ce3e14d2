package handlers

import (
	"net/http"

	"finquest/internal/service"
)

// CategoriesHandler handles category matching game endpoints
type CategoriesHandler struct {
	categories *service.CategoriesService
}

// NewCategoriesHandler creates a new categories handler
func NewCategoriesHandler(categories *service.CategoriesService) *CategoriesHandler {
	return &CategoriesHandler{categories: categories}
}

// Start handles POST /games/categories/start
func (h *CategoriesHandler) Start(w http.ResponseWriter, r *http.Request) {
	result, err := h.categories.Start(IdentityFrom(r))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, result)
}

// Match handles POST /games/categories/match
func (h *CategoriesHandler) Match(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RoundID    string `json:"round_id"`
		CategoryID string `json:"category_id"`
		AmountID   string `json:"amount_id"`
	}
	if err := decodeJSON(r, &req); err != nil || req.RoundID == "" || req.CategoryID == "" || req.AmountID == "" {
		respondWithError(w, http.StatusBadRequest, ErrCodeBadRequest, "round_id, category_id and amount_id are required.")
		return
	}

	result, err := h.categories.Match(IdentityFrom(r), req.RoundID, req.CategoryID, req.AmountID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, result)
}

// State handles GET /games/categories/state
func (h *CategoriesHandler) State(w http.ResponseWriter, r *http.Request) {
	result, err := h.categories.State(IdentityFrom(r))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, result)
}
