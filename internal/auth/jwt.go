package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Verifier maps an opaque bearer credential to a subject id. The concrete
// identity provider is opaque to the resolver beyond this boundary.
type Verifier interface {
	Verify(ctx context.Context, credential string) (subject string, err error)
}

// TokenExpiry is the lifetime of issued bearer tokens.
const TokenExpiry = time.Hour

// Claims are the JWT claims carried by bearer tokens.
type Claims struct {
	jwt.RegisteredClaims
}

// JWTVerifier verifies HS256-signed bearer tokens against a shared secret.
type JWTVerifier struct {
	secret string
}

var _ Verifier = (*JWTVerifier)(nil)

// NewJWTVerifier returns a Verifier for HS256 tokens.
func NewJWTVerifier(secret string) (*JWTVerifier, error) {
	if secret == "" {
		return nil, fmt.Errorf("jwt secret is required")
	}
	return &JWTVerifier{secret: secret}, nil
}

// Verify parses and validates the token string; returns the subject id.
func (v *JWTVerifier) Verify(_ context.Context, credential string) (string, error) {
	tok, err := jwt.ParseWithClaims(credential, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(v.secret), nil
	})
	if err != nil {
		return "", err
	}
	claims, ok := tok.Claims.(*Claims)
	if !ok || !tok.Valid || claims.Subject == "" {
		return "", fmt.Errorf("invalid token")
	}
	return claims.Subject, nil
}

// IssueToken returns a signed bearer token for the subject. Used by tests
// and by provisioning tooling; the API itself does not mint tokens.
func IssueToken(secret, subject string) (string, error) {
	if secret == "" {
		return "", fmt.Errorf("jwt secret is required")
	}
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenExpiry)),
		},
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return tok.SignedString([]byte(secret))
}
