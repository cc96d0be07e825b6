// Package csrf issues and verifies stateless anti-forgery tokens.
// Tokens are HMAC-SHA256 signed and time-boxed; there is no server-side
// token store, so expiry is the only invalidation mechanism.
package csrf

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DefaultTTL bounds exposure from a leaked token.
const DefaultTTL = time.Hour

// nonceBytes is the random nonce size (256 bits).
const nonceBytes = 32

// Reason classifies a verification failure. Used for logging and for
// mapping to the client-facing message; never echoed verbatim with detail.
type Reason int

const (
	ReasonNone Reason = iota
	ReasonMalformed
	ReasonBadSignature
	ReasonExpired
)

func (r Reason) String() string {
	switch r {
	case ReasonMalformed:
		return "malformed token"
	case ReasonBadSignature:
		return "signature mismatch"
	case ReasonExpired:
		return "token expired"
	default:
		return ""
	}
}

// Guard signs and verifies CSRF tokens with a server secret.
// The secret is read-only after construction; Guard is safe for
// concurrent use.
type Guard struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// New returns a Guard with the given secret and TTL (DefaultTTL if ttl <= 0).
func New(secret string, ttl time.Duration) (*Guard, error) {
	if secret == "" {
		return nil, fmt.Errorf("csrf secret is required")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Guard{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

// Issue generates a token: base64(nonce|issuedAtMillis|signature) where
// signature = HMAC-SHA256(secret, nonce|issuedAtMillis).
func (g *Guard) Issue() (string, error) {
	nonce := make([]byte, nonceBytes)
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}
	nonceHex := hex.EncodeToString(nonce)
	issuedAt := strconv.FormatInt(g.now().UnixMilli(), 10)
	sig := g.sign(nonceHex, issuedAt)
	raw := nonceHex + "|" + issuedAt + "|" + hex.EncodeToString(sig)
	return base64.RawURLEncoding.EncodeToString([]byte(raw)), nil
}

// Verify checks the token's signature and age. It never returns an error:
// any decode failure fails closed with a reason suitable for logging.
func (g *Guard) Verify(token string) (bool, Reason) {
	decoded, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return false, ReasonMalformed
	}
	parts := strings.Split(string(decoded), "|")
	if len(parts) != 3 {
		return false, ReasonMalformed
	}
	nonceHex, issuedAt, sigHex := parts[0], parts[1], parts[2]
	sig, err := hex.DecodeString(sigHex)
	if err != nil {
		return false, ReasonMalformed
	}
	expected := g.sign(nonceHex, issuedAt)
	// Constant-time comparison; hmac.Equal prevents timing side-channels.
	if !hmac.Equal(sig, expected) {
		return false, ReasonBadSignature
	}
	issuedMillis, err := strconv.ParseInt(issuedAt, 10, 64)
	if err != nil {
		return false, ReasonMalformed
	}
	age := g.now().Sub(time.UnixMilli(issuedMillis))
	if age > g.ttl {
		return false, ReasonExpired
	}
	return true, ReasonNone
}

func (g *Guard) sign(nonceHex, issuedAt string) []byte {
	mac := hmac.New(sha256.New, g.secret)
	mac.Write([]byte(nonceHex + "|" + issuedAt))
	return mac.Sum(nil)
}
