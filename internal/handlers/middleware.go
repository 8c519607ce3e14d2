package handlers

import (
	"context"
	"log"
	"net/http"
	"time"

	"finquest/internal/auth"
	"finquest/internal/security"
)

type contextKey string

const identityKey contextKey = "identity"

// Authenticate verifies the bearer token and stashes the caller's
// identity in the request context
func Authenticate(verifier *auth.Verifier, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, err := verifier.VerifyHeader(r.Header.Get("Authorization"))
		if err != nil {
			respondWithError(w, http.StatusUnauthorized, ErrCodeUnauthorized, "A valid bearer token is required.")
			return
		}
		ctx := context.WithValue(r.Context(), identityKey, *identity)
		next(w, r.WithContext(ctx))
	}
}

// IdentityFrom pulls the verified caller out of the request context
func IdentityFrom(r *http.Request) auth.Identity {
	identity, _ := r.Context().Value(identityKey).(auth.Identity)
	return identity
}

// RateLimit rejects callers over the limiter's budget
func RateLimit(limiter *security.RateLimiter, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !limiter.Allow(security.GetClientIP(r)) {
			respondWithError(w, http.StatusTooManyRequests, ErrCodeRateLimited, "Too many requests. Slow down.")
			return
		}
		next(w, r)
	}
}

// LogRequests logs method, path, and duration for every request
func LogRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("%s %s %s", r.Method, r.URL.Path, time.Since(start))
	})
}
