package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/tribalbenefits/backend/internal/models"
)

// UserStore looks up application user records by identity-provider subject.
type UserStore interface {
	GetUserBySubject(ctx context.Context, subject string) (*models.User, error)
}

// Resolver authenticates requests and enforces role requirements. Lookups
// are bounded by a timeout; resolution is idempotent within a request.
type Resolver struct {
	verifier Verifier
	users    UserStore
	timeout  time.Duration
}

// NewResolver returns a Resolver. The user store is a long-lived dependency
// constructed once at startup, not ambient global state.
func NewResolver(verifier Verifier, users UserStore, timeout time.Duration) *Resolver {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Resolver{verifier: verifier, users: users, timeout: timeout}
}

// Authenticate extracts the bearer credential and resolves it to a
// principal. Fails with ErrUnauthorized when the credential is absent or
// invalid, when no matching user exists, or when the user is soft-deleted.
func (r *Resolver) Authenticate(ctx context.Context, req *http.Request) (*Principal, error) {
	credential := extractBearer(req)
	if credential == "" {
		return nil, fmt.Errorf("%w: missing bearer credential", ErrUnauthorized)
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	subject, err := r.verifier.Verify(ctx, credential)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid credential: %v", ErrUnauthorized, err)
	}
	user, err := r.users.GetUserBySubject(ctx, subject)
	if err != nil {
		return nil, fmt.Errorf("%w: user lookup failed: %v", ErrUnauthorized, err)
	}
	if user == nil {
		return nil, fmt.Errorf("%w: no user for subject", ErrUnauthorized)
	}
	// Soft-deleted users resolve to "no principal" at the boundary.
	if user.IsDeleted() {
		return nil, fmt.Errorf("%w: user deactivated", ErrUnauthorized)
	}
	return &Principal{
		ID:      user.ID,
		Email:   user.Email,
		Role:    user.Role,
		TribeID: user.TribeID,
		State:   user.State,
	}, nil
}

// Authorize authenticates and then checks the required role. Fails with
// ErrForbidden when the principal's role is insufficient.
func (r *Resolver) Authorize(ctx context.Context, req *http.Request, requiredRole string) (*Principal, error) {
	principal, err := r.Authenticate(ctx, req)
	if err != nil {
		return nil, err
	}
	if !HasRole(principal.Role, requiredRole) {
		return nil, fmt.Errorf("%w: role %q required", ErrForbidden, requiredRole)
	}
	return principal, nil
}

func extractBearer(r *http.Request) string {
	s := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(s) > len(prefix) && strings.EqualFold(s[:len(prefix)], prefix) {
		return strings.TrimSpace(s[len(prefix):])
	}
	return ""
}
