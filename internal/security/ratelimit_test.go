package security

import (
	"net/http/httptest"
	"testing"
	"time"
)

func TestRateLimiterBudget(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute)

	if !rl.Allow("1.2.3.4") {
		t.Error("first request should pass")
	}
	if !rl.Allow("1.2.3.4") {
		t.Error("second request should pass")
	}
	if rl.Allow("1.2.3.4") {
		t.Error("third request should be limited")
	}
}

func TestRateLimiterPerAddress(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute)

	if !rl.Allow("1.1.1.1") {
		t.Error("first address should pass")
	}
	if !rl.Allow("2.2.2.2") {
		t.Error("second address has its own budget")
	}
	if rl.Allow("1.1.1.1") {
		t.Error("first address should now be limited")
	}
}

func TestRateLimiterRefill(t *testing.T) {
	rl := NewRateLimiter(1, 20*time.Millisecond)

	if !rl.Allow("1.2.3.4") {
		t.Fatal("first request should pass")
	}
	if rl.Allow("1.2.3.4") {
		t.Fatal("second request should be limited")
	}

	time.Sleep(30 * time.Millisecond)
	if !rl.Allow("1.2.3.4") {
		t.Error("budget should refill after the window")
	}
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name      string
		forwarded string
		realIP    string
		remote    string
		want      string
	}{
		{"forwarded header wins", "10.0.0.1", "10.0.0.2", "10.0.0.3:1234", "10.0.0.1"},
		{"real ip next", "", "10.0.0.2", "10.0.0.3:1234", "10.0.0.2"},
		{"remote addr fallback", "", "", "10.0.0.3:1234", "10.0.0.3:1234"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/", nil)
			r.RemoteAddr = tt.remote
			if tt.forwarded != "" {
				r.Header.Set("X-Forwarded-For", tt.forwarded)
			}
			if tt.realIP != "" {
				r.Header.Set("X-Real-IP", tt.realIP)
			}
			if got := GetClientIP(r); got != tt.want {
				t.Errorf("GetClientIP = %q, want %q", got, tt.want)
			}
		})
	}
}
