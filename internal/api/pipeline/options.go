package pipeline

import "github.com/tribalbenefits/backend/internal/ratelimit"

// Options declares a route's pipeline requirements. Supplied by the route
// author; consumed by the orchestrator to decide which stages run.
type Options struct {
	// Operation names the route in logs and metrics, e.g. "resources.create".
	Operation string

	// RequireAuth runs the authentication stage. RequireAdmin implies it and
	// additionally authorizes the admin role.
	RequireAuth  bool
	RequireAdmin bool

	// RequireCSRF verifies the X-CSRF-Token header on mutating methods.
	RequireCSRF bool

	// SkipRateLimit disables the rate-limit stage for this route.
	SkipRateLimit bool
	// RateLimitClass namespaces the counter; empty means the general API class.
	RateLimitClass ratelimit.Class
	// CustomRateLimit overrides the class quota when > 0.
	CustomRateLimit int

	// BodySchema and QuerySchema construct fresh destination structs per
	// request. BodySchema applies to mutating methods only.
	BodySchema  func() any
	QuerySchema func() any
}
