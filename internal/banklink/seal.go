package banklink

import (
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
)

// TokenSealer encrypts provider access tokens before they reach the
// database. XChaCha20-Poly1305 with a random nonce per seal; the nonce
// is stored as the ciphertext prefix.
type TokenSealer struct {
	key []byte
}

// NewTokenSealer derives a sealing key from the configured secret
func NewTokenSealer(secret string) (*TokenSealer, error) {
	if secret == "" {
		return nil, errors.New("token seal key not configured")
	}
	key := sha256.Sum256([]byte(secret))
	return &TokenSealer{key: key[:]}, nil
}

// Seal encrypts a plaintext token
func (s *TokenSealer) Seal(token string) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(s.key)
	if err != nil {
		return nil, fmt.Errorf("failed to build cipher: %w", err)
	}

	nonce := make([]byte, chacha20poly1305.NonceSizeX)
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	return aead.Seal(nonce, nonce, []byte(token), nil), nil
}

// Open decrypts a sealed token
func (s *TokenSealer) Open(sealed []byte) (string, error) {
	aead, err := chacha20poly1305.NewX(s.key)
	if err != nil {
		return "", fmt.Errorf("failed to build cipher: %w", err)
	}

	if len(sealed) < chacha20poly1305.NonceSizeX {
		return "", errors.New("sealed token too short")
	}
	nonce, ciphertext := sealed[:chacha20poly1305.NonceSizeX], sealed[chacha20poly1305.NonceSizeX:]

	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("failed to open sealed token: %w", err)
	}
	return string(plaintext), nil
}
