package pipeline

import (
	"context"
	"net/http"

	"github.com/tribalbenefits/backend/internal/auth"
	"github.com/tribalbenefits/backend/internal/ratelimit"
)

// RequestContext is the per-request aggregate threaded through the stages.
// Each field is populated by exactly one stage and is immutable afterward;
// it is discarded at request end.
type RequestContext struct {
	RequestID string
	Principal *auth.Principal
	Body      any
	Query     any
	RateLimit ratelimit.Decision
}

// HandlerFunc is a business handler invoked after all stages pass. It
// receives the typed request context and returns a Result or an error
// (mapped to the uniform error taxonomy by the orchestrator).
type HandlerFunc func(ctx context.Context, rc *RequestContext, r *http.Request) (Result, error)

// Result is the closed union of handler return shapes. The orchestrator
// pattern-matches on the concrete type; there is no runtime property
// sniffing.
type Result interface {
	isResult()
}

// JSONResult responds with a JSON-encoded body and an explicit status.
type JSONResult struct {
	Status int // 0 means 200
	Data   any
}

func (JSONResult) isResult() {}

// JSON is shorthand for a JSONResult.
func JSON(status int, data any) Result {
	return JSONResult{Status: status, Data: data}
}

// OK is shorthand for a 200 JSONResult.
func OK(data any) Result {
	return JSONResult{Status: http.StatusOK, Data: data}
}

// RawResult hands the response writer to the handler for non-JSON output
// (file downloads, redirects). The handler owns status and headers.
type RawResult struct {
	Write func(w http.ResponseWriter)
}

func (RawResult) isResult() {}

// Raw is shorthand for a RawResult.
func Raw(write func(w http.ResponseWriter)) Result {
	return RawResult{Write: write}
}
