// Package auth resolves bearer credentials to application principals and
// enforces role requirements. Credential verification and the user record
// store are injected; resolution is a read-only lookup with no side effects.
package auth

import "errors"

// Role hierarchy: admin > user.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

var (
	// ErrUnauthorized means no credential, an invalid credential, or a
	// soft-deleted user. Maps to 401.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden means a valid principal lacking the required role.
	// Maps to 403.
	ErrForbidden = errors.New("forbidden")
)

// Principal is the authenticated identity attached to a request. It is
// resolved per-request and never persisted by this package.
type Principal struct {
	ID      string  `json:"id"`
	Email   string  `json:"email"`
	Role    string  `json:"role"` // user | admin
	TribeID *string `json:"tribe_id,omitempty"`
	State   *string `json:"state,omitempty"`
}

// IsAdmin reports whether the principal holds the admin role.
func (p *Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

// HasRole checks if userRole meets the minimum required role.
func HasRole(userRole, requiredRole string) bool {
	if userRole == RoleAdmin {
		return true
	}
	return requiredRole == RoleUser && userRole == RoleUser
}
