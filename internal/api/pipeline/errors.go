package pipeline

import (
	"net/http"

	"github.com/tribalbenefits/backend/internal/pkg/validate"
)

// Kind classifies a pipeline failure. The orchestrator is the single place
// where kinds are mapped to HTTP responses; stages never write responses.
type Kind int

// KindInternal is deliberately the zero value: a zero-initialized Error maps
// to a 500, never to a client-attributable status.
const (
	KindInternal Kind = iota
	KindRateLimited
	KindCSRFMissing
	KindCSRFInvalid
	KindCSRFExpired
	KindUnauthorized
	KindForbidden
	KindValidation
	KindMalformed
)

// Status returns the HTTP status for the kind.
func (k Kind) Status() int {
	switch k {
	case KindRateLimited:
		return http.StatusTooManyRequests
	case KindCSRFMissing, KindCSRFInvalid, KindCSRFExpired, KindForbidden:
		return http.StatusForbidden
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindValidation, KindMalformed:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// outcome is the metric label for the kind.
func (k Kind) outcome() string {
	switch k {
	case KindRateLimited:
		return "rate_limited"
	case KindCSRFMissing, KindCSRFInvalid, KindCSRFExpired:
		return "csrf"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindValidation:
		return "validation"
	case KindMalformed:
		return "malformed"
	default:
		return "internal"
	}
}

// Error is a typed pipeline failure. Message is the minimal client-facing
// text; cause is logged server-side and never surfaced outside dev mode.
type Error struct {
	Kind    Kind
	Message string
	Details []validate.FieldError
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return e.Message + ": " + e.cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.cause
}

// Internal wraps an arbitrary handler error into a 500 failure. Handlers
// may also return *Error directly for domain failures (404 and friends).
func Internal(err error) *Error {
	return &Error{Kind: KindInternal, Message: "Internal server error", cause: err}
}

// NotFound is a convenience for handlers; kept out of Kind because it is a
// domain outcome, not a pipeline failure.
func NotFound(message string) *Error {
	return &Error{Kind: kindNotFound, Message: message}
}

// kindNotFound is internal: handlers signal it via NotFound.
const kindNotFound Kind = -1

func statusFor(k Kind) int {
	if k == kindNotFound {
		return http.StatusNotFound
	}
	return k.Status()
}

func outcomeFor(k Kind) string {
	if k == kindNotFound {
		return "not_found"
	}
	return k.outcome()
}
