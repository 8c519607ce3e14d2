package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"finquest/internal/models"
	"finquest/internal/service"
)

func TestRespondWithJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	respondWithJSON(rec, http.StatusOK, map[string]int{"answer": 42})

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("content type = %q", ct)
	}

	var body struct {
		OK   bool           `json:"ok"`
		Data map[string]int `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if !body.OK || body.Data["answer"] != 42 {
		t.Errorf("unexpected body: %s", rec.Body.String())
	}
}

func TestRespondServiceError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"round unavailable", service.ErrRoundUnavailable, http.StatusNotFound, ErrCodeRoundUnavailable},
		{"invalid selection", service.ErrInvalidSelection, http.StatusBadRequest, ErrCodeInvalidSelection},
		{"already answered", service.ErrAlreadyAnswered, http.StatusConflict, ErrCodeAlreadyAnswered},
		{"weekly cap", service.ErrWeeklyCapReached, http.StatusConflict, ErrCodeWeeklyCap},
		{"unknown error is internal", errors.New("boom"), http.StatusInternalServerError, ErrCodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			respondServiceError(rec, tt.err)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}

			var body envelope
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("invalid JSON: %v", err)
			}
			if body.OK {
				t.Error("ok should be false")
			}
			if body.Error == nil || body.Error.Code != tt.wantCode {
				t.Errorf("error code = %v, want %s", body.Error, tt.wantCode)
			}
		})
	}
}

func TestRespondWeeklyCapCarriesContext(t *testing.T) {
	rec := httptest.NewRecorder()
	capErr := &service.WeeklyCapError{
		LastSummary:   &models.RoundSummary{RoundID: "r1", XPEarned: 80},
		NextWeekStart: "2025-03-17",
	}
	respondServiceError(rec, capErr)

	if rec.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409", rec.Code)
	}

	var body struct {
		OK   bool `json:"ok"`
		Data struct {
			LastSummary *models.RoundSummary `json:"last_summary"`
			NextWeek    string               `json:"next_week_start"`
		} `json:"data"`
		Error *apiError `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if body.OK {
		t.Error("ok should be false")
	}
	if body.Error == nil || body.Error.Code != ErrCodeWeeklyCap {
		t.Errorf("error code = %v, want %s", body.Error, ErrCodeWeeklyCap)
	}
	if body.Data.NextWeek != "2025-03-17" {
		t.Errorf("next week start = %q, want 2025-03-17", body.Data.NextWeek)
	}
	if body.Data.LastSummary == nil || body.Data.LastSummary.RoundID != "r1" {
		t.Errorf("last summary = %+v, want round r1", body.Data.LastSummary)
	}
}

func TestRespondServiceErrorWrapped(t *testing.T) {
	rec := httptest.NewRecorder()
	respondServiceError(rec, errors.Join(errors.New("context"), service.ErrWeeklyCapReached))

	var body envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if body.Error == nil || body.Error.Code != ErrCodeWeeklyCap {
		t.Errorf("wrapped error mapped to %v, want %s", body.Error, ErrCodeWeeklyCap)
	}
}
