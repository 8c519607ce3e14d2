package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Identity is what a verified bearer token asserts about the caller
type Identity struct {
	UserID string
	Email  string
	Name   string
}

var (
	ErrMissingToken = errors.New("missing bearer token")
	ErrInvalidToken = errors.New("invalid or expired token")
)

// Verifier validates HS256 bearer tokens from the identity provider
type Verifier struct {
	secret []byte
}

// NewVerifier creates a verifier for the given shared secret
func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

// VerifyHeader extracts and verifies the token from an Authorization header
// value ("Bearer <token>").
func (v *Verifier) VerifyHeader(header string) (*Identity, error) {
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return nil, ErrMissingToken
	}
	return v.Verify(strings.TrimPrefix(header, prefix))
}

// Verify parses and validates a raw token string
func (v *Verifier) Verify(tokenString string) (*Identity, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}

	sub, _ := claims["sub"].(string)
	if sub == "" {
		return nil, ErrInvalidToken
	}

	identity := &Identity{UserID: sub}
	if email, ok := claims["email"].(string); ok {
		identity.Email = email
	}
	if name, ok := claims["name"].(string); ok {
		identity.Name = name
	}
	return identity, nil
}

// Mint issues a token for the given identity. Production tokens come from
// the external identity provider; this is for development and tests.
func (v *Verifier) Mint(identity Identity, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"sub": identity.UserID,
		"exp": time.Now().Add(ttl).Unix(),
		"iat": time.Now().Unix(),
	}
	if identity.Email != "" {
		claims["email"] = identity.Email
	}
	if identity.Name != "" {
		claims["name"] = identity.Name
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(v.secret)
}
