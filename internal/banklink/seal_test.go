package banklink

import (
	"bytes"
	"testing"
)

func TestSealRoundTrip(t *testing.T) {
	sealer, err := NewTokenSealer("unit-test-seal-key")
	if err != nil {
		t.Fatalf("NewTokenSealer failed: %v", err)
	}

	sealed, err := sealer.Seal("access-token-123")
	if err != nil {
		t.Fatalf("Seal failed: %v", err)
	}
	if bytes.Contains(sealed, []byte("access-token-123")) {
		t.Error("sealed output contains the plaintext token")
	}

	token, err := sealer.Open(sealed)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if token != "access-token-123" {
		t.Errorf("Open = %q, want access-token-123", token)
	}
}

func TestSealNonceVaries(t *testing.T) {
	sealer, _ := NewTokenSealer("unit-test-seal-key")

	a, _ := sealer.Seal("same-token")
	b, _ := sealer.Seal("same-token")
	if bytes.Equal(a, b) {
		t.Error("two seals of the same token must differ")
	}
}

func TestOpenRejectsTampering(t *testing.T) {
	sealer, _ := NewTokenSealer("unit-test-seal-key")

	sealed, _ := sealer.Seal("access-token-123")
	sealed[len(sealed)-1] ^= 0xff
	if _, err := sealer.Open(sealed); err == nil {
		t.Error("tampered ciphertext must not open")
	}
}

func TestOpenRejectsWrongKey(t *testing.T) {
	sealerA, _ := NewTokenSealer("key-a")
	sealerB, _ := NewTokenSealer("key-b")

	sealed, _ := sealerA.Seal("access-token-123")
	if _, err := sealerB.Open(sealed); err == nil {
		t.Error("token sealed with another key must not open")
	}
}

func TestOpenRejectsShortInput(t *testing.T) {
	sealer, _ := NewTokenSealer("unit-test-seal-key")
	if _, err := sealer.Open([]byte("short")); err == nil {
		t.Error("truncated input must not open")
	}
}

func TestNewTokenSealerRequiresKey(t *testing.T) {
	if _, err := NewTokenSealer(""); err == nil {
		t.Error("empty key must be rejected")
	}
}
