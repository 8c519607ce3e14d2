package handlers

import (
	"net/http"

	"finquest/internal/service"
)

// QuizHandler handles quiz game endpoints
type QuizHandler struct {
	quiz *service.QuizService
}

// NewQuizHandler creates a new quiz handler
func NewQuizHandler(quiz *service.QuizService) *QuizHandler {
	return &QuizHandler{quiz: quiz}
}

// Start handles POST /games/quiz/start
func (h *QuizHandler) Start(w http.ResponseWriter, r *http.Request) {
	result, err := h.quiz.Start(IdentityFrom(r))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, result)
}

// Answer handles POST /games/quiz/answer
func (h *QuizHandler) Answer(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RoundID       string `json:"round_id"`
		QuestionID    string `json:"question_id"`
		SelectedIndex int    `json:"selected_index"`
	}
	if err := decodeJSON(r, &req); err != nil || req.RoundID == "" || req.QuestionID == "" {
		respondWithError(w, http.StatusBadRequest, ErrCodeBadRequest, "round_id and question_id are required.")
		return
	}

	result, err := h.quiz.Answer(IdentityFrom(r), req.RoundID, req.QuestionID, req.SelectedIndex)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, result)
}

// Complete handles POST /games/quiz/complete
func (h *QuizHandler) Complete(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RoundID string `json:"round_id"`
	}
	if err := decodeJSON(r, &req); err != nil || req.RoundID == "" {
		respondWithError(w, http.StatusBadRequest, ErrCodeBadRequest, "round_id is required.")
		return
	}

	result, err := h.quiz.Complete(IdentityFrom(r), req.RoundID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, result)
}

// State handles GET /games/quiz/state
func (h *QuizHandler) State(w http.ResponseWriter, r *http.Request) {
	result, err := h.quiz.State(IdentityFrom(r))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, result)
}
