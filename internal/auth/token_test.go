package auth

import (
	"testing"
	"time"
)

func TestMintAndVerify(t *testing.T) {
	v := NewVerifier("test-secret")

	token, err := v.Mint(Identity{UserID: "user-1", Email: "u@example.com", Name: "Quinn"}, time.Hour)
	if err != nil {
		t.Fatalf("Mint failed: %v", err)
	}

	identity, err := v.VerifyHeader("Bearer " + token)
	if err != nil {
		t.Fatalf("VerifyHeader failed: %v", err)
	}
	if identity.UserID != "user-1" {
		t.Errorf("UserID = %q, want user-1", identity.UserID)
	}
	if identity.Email != "u@example.com" {
		t.Errorf("Email = %q", identity.Email)
	}
	if identity.Name != "Quinn" {
		t.Errorf("Name = %q", identity.Name)
	}
}

func TestVerifyHeaderErrors(t *testing.T) {
	v := NewVerifier("test-secret")

	tests := []struct {
		name   string
		header string
		want   error
	}{
		{"empty header", "", ErrMissingToken},
		{"wrong scheme", "Basic abc123", ErrMissingToken},
		{"garbage token", "Bearer not-a-jwt", ErrInvalidToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := v.VerifyHeader(tt.header); err != tt.want {
				t.Errorf("got %v, want %v", err, tt.want)
			}
		})
	}
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	token, err := NewVerifier("secret-a").Mint(Identity{UserID: "user-1"}, time.Hour)
	if err != nil {
		t.Fatalf("Mint failed: %v", err)
	}

	if _, err := NewVerifier("secret-b").Verify(token); err != ErrInvalidToken {
		t.Errorf("got %v, want ErrInvalidToken", err)
	}
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	v := NewVerifier("test-secret")

	token, err := v.Mint(Identity{UserID: "user-1"}, -time.Minute)
	if err != nil {
		t.Fatalf("Mint failed: %v", err)
	}

	if _, err := v.Verify(token); err != ErrInvalidToken {
		t.Errorf("got %v, want ErrInvalidToken", err)
	}
}

func TestVerifyRejectsMissingSubject(t *testing.T) {
	v := NewVerifier("test-secret")

	token, err := v.Mint(Identity{}, time.Hour)
	if err != nil {
		t.Fatalf("Mint failed: %v", err)
	}

	if _, err := v.Verify(token); err != ErrInvalidToken {
		t.Errorf("got %v, want ErrInvalidToken", err)
	}
}
