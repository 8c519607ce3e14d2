package handlers

import (
	"net/http"

	"finquest/internal/service"
)

// DetectiveHandler handles anomaly detective game endpoints
type DetectiveHandler struct {
	detective *service.DetectiveService
}

// NewDetectiveHandler creates a new detective handler
func NewDetectiveHandler(detective *service.DetectiveService) *DetectiveHandler {
	return &DetectiveHandler{detective: detective}
}

// Start handles POST /games/detective/start
func (h *DetectiveHandler) Start(w http.ResponseWriter, r *http.Request) {
	result, err := h.detective.Start(IdentityFrom(r))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, result)
}

// Guess handles POST /games/detective/guess
func (h *DetectiveHandler) Guess(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RoundID       string `json:"round_id"`
		TransactionID string `json:"transaction_id"`
	}
	if err := decodeJSON(r, &req); err != nil || req.RoundID == "" || req.TransactionID == "" {
		respondWithError(w, http.StatusBadRequest, ErrCodeBadRequest, "round_id and transaction_id are required.")
		return
	}

	result, err := h.detective.Guess(IdentityFrom(r), req.RoundID, req.TransactionID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, result)
}

// State handles GET /games/detective/state
func (h *DetectiveHandler) State(w http.ResponseWriter, r *http.Request) {
	result, err := h.detective.State(IdentityFrom(r))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, result)
}
