package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"finquest/internal/auth"
	"finquest/internal/security"
)

func TestAuthenticateRejectsMissingToken(t *testing.T) {
	verifier := auth.NewVerifier("test-secret")
	handler := Authenticate(verifier, func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not run without a token")
	})

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest("GET", "/profile", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}

	var body envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("response is not JSON: %v", err)
	}
	if body.OK {
		t.Error("ok should be false")
	}
	if body.Error == nil || body.Error.Code != ErrCodeUnauthorized {
		t.Errorf("error code = %v, want %s", body.Error, ErrCodeUnauthorized)
	}
}

func TestAuthenticateRejectsBadToken(t *testing.T) {
	verifier := auth.NewVerifier("test-secret")
	handler := Authenticate(verifier, func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not run with a bad token")
	})

	req := httptest.NewRequest("GET", "/profile", nil)
	req.Header.Set("Authorization", "Bearer nonsense")
	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestAuthenticatePassesIdentity(t *testing.T) {
	verifier := auth.NewVerifier("test-secret")
	token, err := verifier.Mint(auth.Identity{UserID: "user-9", Email: "u@example.com"}, time.Hour)
	if err != nil {
		t.Fatalf("Mint failed: %v", err)
	}

	var got auth.Identity
	handler := Authenticate(verifier, func(w http.ResponseWriter, r *http.Request) {
		got = IdentityFrom(r)
		w.WriteHeader(http.StatusNoContent)
	})

	req := httptest.NewRequest("GET", "/profile", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}
	if got.UserID != "user-9" {
		t.Errorf("identity user = %q, want user-9", got.UserID)
	}
	if got.Email != "u@example.com" {
		t.Errorf("identity email = %q", got.Email)
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	limiter := security.NewRateLimiter(1, time.Minute)
	calls := 0
	handler := RateLimit(limiter, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest("POST", "/bank/transactions/sync", nil)
	req.RemoteAddr = "9.9.9.9:4242"

	first := httptest.NewRecorder()
	handler(first, req)
	second := httptest.NewRecorder()
	handler(second, req)

	if first.Code != http.StatusOK {
		t.Errorf("first request status = %d, want 200", first.Code)
	}
	if second.Code != http.StatusTooManyRequests {
		t.Errorf("second request status = %d, want 429", second.Code)
	}
	if calls != 1 {
		t.Errorf("handler ran %d times, want 1", calls)
	}
}
