package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"finquest/internal/service"
)

// API error codes
const (
	ErrCodeUnauthorized     = "unauthorized"
	ErrCodeRoundUnavailable = "round_unavailable"
	ErrCodeInvalidSelection = "invalid_selection"
	ErrCodeAlreadyAnswered  = "already_answered"
	ErrCodeWeeklyCap        = "weekly_cap"
	ErrCodeBadRequest       = "bad_request"
	ErrCodeRateLimited      = "rate_limited"
	ErrCodeInternal         = "internal"
)

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type envelope struct {
	OK    bool        `json:"ok"`
	Data  interface{} `json:"data,omitempty"`
	Error *apiError   `json:"error,omitempty"`
}

// respondWithJSON writes a success envelope
func respondWithJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(envelope{OK: true, Data: data}); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}

// respondWithError writes an error envelope
func respondWithError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(envelope{OK: false, Error: &apiError{Code: code, Message: message}}); err != nil {
		log.Printf("Failed to encode error response: %v", err)
	}
}

// respondWithErrorData writes an error envelope that also carries data,
// for rejections the client renders with context (e.g. the weekly cap).
func respondWithErrorData(w http.ResponseWriter, status int, code, message string, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(envelope{OK: false, Data: data, Error: &apiError{Code: code, Message: message}}); err != nil {
		log.Printf("Failed to encode error response: %v", err)
	}
}

// respondServiceError maps business errors onto API codes. Anything
// unrecognized is logged and reported as internal.
func respondServiceError(w http.ResponseWriter, err error) {
	var capErr *service.WeeklyCapError
	switch {
	case errors.Is(err, service.ErrRoundUnavailable):
		respondWithError(w, http.StatusNotFound, ErrCodeRoundUnavailable, "No playable round. Start one first.")
	case errors.Is(err, service.ErrInvalidSelection):
		respondWithError(w, http.StatusBadRequest, ErrCodeInvalidSelection, "That selection is not part of this round.")
	case errors.Is(err, service.ErrAlreadyAnswered):
		respondWithError(w, http.StatusConflict, ErrCodeAlreadyAnswered, "You already submitted that one.")
	case errors.As(err, &capErr):
		respondWithErrorData(w, http.StatusConflict, ErrCodeWeeklyCap, "You already played this week. Come back next week.", capErr)
	case errors.Is(err, service.ErrWeeklyCapReached):
		respondWithError(w, http.StatusConflict, ErrCodeWeeklyCap, "You already played this week. Come back next week.")
	default:
		log.Printf("Internal error: %v", err)
		respondWithError(w, http.StatusInternalServerError, ErrCodeInternal, "Something went wrong.")
	}
}

// decodeJSON reads a request body into dst
func decodeJSON(r *http.Request, dst interface{}) error {
	return json.NewDecoder(r.Body).Decode(dst)
}
