// Package pipeline composes the request security stages around business
// handlers: rate limiting, CSRF verification, authentication/authorization,
// and typed validation, in that fixed order, with uniform error shaping.
// Stages run strictly sequentially and short-circuit on the first failure;
// no stage writes an HTTP response directly.
package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tribalbenefits/backend/internal/auth"
	"github.com/tribalbenefits/backend/internal/csrf"
	"github.com/tribalbenefits/backend/internal/pkg/logger"
	"github.com/tribalbenefits/backend/internal/pkg/metrics"
	"github.com/tribalbenefits/backend/internal/pkg/validate"
	"github.com/tribalbenefits/backend/internal/ratelimit"
)

const (
	RequestIDHeader          = "X-Request-ID"
	CSRFTokenHeader          = "X-CSRF-Token"
	RateLimitRemainingHeader = "X-RateLimit-Remaining"
	RateLimitResetHeader     = "X-RateLimit-Reset"
)

var requestLogOut io.Writer = os.Stderr

// RateLimiter decides admit/reject for one request. Failure policy is the
// limiter's concern; Check never returns an error.
type RateLimiter interface {
	Check(ctx context.Context, identity string, class ratelimit.Class, overrideQuota int) ratelimit.Decision
}

// CSRFVerifier checks an anti-forgery token and fails closed.
type CSRFVerifier interface {
	Verify(token string) (bool, csrf.Reason)
}

// Authenticator resolves a request to a principal and enforces roles.
type Authenticator interface {
	Authenticate(ctx context.Context, r *http.Request) (*auth.Principal, error)
	Authorize(ctx context.Context, r *http.Request, requiredRole string) (*auth.Principal, error)
}

// Pipeline orchestrates the stages. All dependencies are injected at
// construction and read-only afterward; the pipeline holds no per-request
// state.
type Pipeline struct {
	limiter   RateLimiter
	guard     CSRFVerifier
	resolver  Authenticator
	validator *validate.Validator
	log       *slog.Logger
	devMode   bool
}

// New returns a Pipeline over the given collaborators.
func New(limiter RateLimiter, guard CSRFVerifier, resolver Authenticator, validator *validate.Validator, log *slog.Logger, devMode bool) *Pipeline {
	return &Pipeline{
		limiter:   limiter,
		guard:     guard,
		resolver:  resolver,
		validator: validator,
		log:       log,
		devMode:   devMode,
	}
}

// statusRecorder captures the status code for logging and raw results.
type statusRecorder struct {
	http.ResponseWriter
	status int
	wrote  bool
}

func (rw *statusRecorder) WriteHeader(code int) {
	if !rw.wrote {
		rw.status = code
		rw.wrote = true
	}
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *statusRecorder) Write(b []byte) (int, error) {
	rw.wrote = true
	return rw.ResponseWriter.Write(b)
}

// Handle wraps a business handler with the pipeline stages declared in
// opts, producing a routable http.HandlerFunc.
func (p *Pipeline) Handle(opts Options, fn HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		reqID := r.Header.Get(RequestIDHeader)
		if reqID == "" {
			reqID = uuid.New().String()
		}
		w.Header().Set(RequestIDHeader, reqID)
		ctx := logger.WithRequestID(r.Context(), reqID)

		rw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		rc := &RequestContext{RequestID: reqID}

		var errMsg string
		defer func() {
			if rec := recover(); rec != nil {
				p.log.Error("pipeline panic",
					"operation", opts.Operation, "request_id", reqID, "panic", rec)
				if !rw.wrote {
					p.respondError(rw, opts, &Error{Kind: KindInternal, Message: "Internal server error"})
				}
				errMsg = "panic"
			}
			duration := time.Since(start)
			logger.RequestLog(requestLogOut, reqID, opts.Operation, r.Method, r.URL.Path, rw.status, duration, errMsg)
			statusStr := strconv.Itoa(rw.status)
			metrics.HTTPRequestTotal.WithLabelValues(r.Method, r.URL.Path, statusStr).Inc()
			metrics.HTTPRequestDurationSeconds.WithLabelValues(r.Method, r.URL.Path).Observe(duration.Seconds())
		}()

		p.log.Debug("pipeline start", "operation", opts.Operation, "request_id", reqID, "method", r.Method)

		if perr := p.run(ctx, rw, r, opts, rc, fn); perr != nil {
			errMsg = perr.Error()
			p.respondError(rw, opts, perr)
			return
		}
		metrics.PipelineOutcomeTotal.WithLabelValues(opts.Operation, "success").Inc()
	}
}

// run executes the stages in order, short-circuiting on the first failure.
// Later stages never run after an earlier failure.
func (p *Pipeline) run(ctx context.Context, rw *statusRecorder, r *http.Request, opts Options, rc *RequestContext, fn HandlerFunc) *Error {
	// Stage: rate limit
	if !opts.SkipRateLimit {
		decision := p.limiter.Check(ctx, clientIP(r), opts.RateLimitClass, opts.CustomRateLimit)
		rc.RateLimit = decision
		setRateLimitHeaders(rw, decision)
		if !decision.Allowed {
			return &Error{Kind: KindRateLimited, Message: "Too many requests. Please try again later."}
		}
	}

	// Stage: CSRF (mutating methods only)
	if opts.RequireCSRF && isMutating(r.Method) {
		token := r.Header.Get(CSRFTokenHeader)
		if token == "" {
			return &Error{Kind: KindCSRFMissing, Message: "CSRF token missing"}
		}
		if ok, reason := p.guard.Verify(token); !ok {
			p.log.Warn("csrf verification failed",
				"operation", opts.Operation, "request_id", rc.RequestID, "reason", reason.String())
			if reason == csrf.ReasonExpired {
				return &Error{Kind: KindCSRFExpired, Message: "CSRF token expired"}
			}
			return &Error{Kind: KindCSRFInvalid, Message: "CSRF token invalid"}
		}
	}

	// Stage: auth
	if opts.RequireAuth || opts.RequireAdmin {
		var principal *auth.Principal
		var err error
		if opts.RequireAdmin {
			principal, err = p.resolver.Authorize(ctx, r, auth.RoleAdmin)
		} else {
			principal, err = p.resolver.Authenticate(ctx, r)
		}
		if err != nil {
			if errors.Is(err, auth.ErrForbidden) {
				return &Error{Kind: KindForbidden, Message: "Forbidden - Admin access required", cause: err}
			}
			return &Error{Kind: KindUnauthorized, Message: "Unauthorized", cause: err}
		}
		rc.Principal = principal
		ctx = auth.WithPrincipal(ctx, principal)
	}

	// Stage: body validation (mutating methods with a declared schema)
	if opts.BodySchema != nil && isMutating(r.Method) {
		dst := opts.BodySchema()
		details, err := p.validator.Body(r.Body, dst)
		if err != nil {
			return &Error{Kind: KindMalformed, Message: "Invalid request body", cause: err}
		}
		if len(details) > 0 {
			return &Error{Kind: KindValidation, Message: "Invalid request body", Details: details}
		}
		rc.Body = dst
	}

	// Stage: query validation
	if opts.QuerySchema != nil {
		dst := opts.QuerySchema()
		details, err := p.validator.Query(r.URL.Query(), dst)
		if err != nil {
			return Internal(err)
		}
		if len(details) > 0 {
			return &Error{Kind: KindValidation, Message: "Invalid query parameters", Details: details}
		}
		rc.Query = dst
	}

	// Stage: handler
	result, err := fn(ctx, rc, r.WithContext(ctx))
	if err != nil {
		var perr *Error
		if errors.As(err, &perr) {
			return perr
		}
		return Internal(err)
	}

	// Stage: response format
	switch res := result.(type) {
	case JSONResult:
		status := res.Status
		if status == 0 {
			status = http.StatusOK
		}
		respondJSON(rw, status, res.Data)
	case RawResult:
		res.Write(rw)
	default:
		return Internal(errors.New("handler returned unknown result shape"))
	}
	return nil
}

// errorBody is the stable client-facing error shape. Detail is present only
// in dev mode.
type errorBody struct {
	Error   string                `json:"error"`
	Details []validate.FieldError `json:"details,omitempty"`
	Detail  string                `json:"detail,omitempty"`
}

func (p *Pipeline) respondError(rw *statusRecorder, opts Options, perr *Error) {
	status := statusFor(perr.Kind)
	if status >= 500 {
		p.log.Error("pipeline error", "operation", opts.Operation, "error", perr.Error())
	} else {
		p.log.Warn("pipeline rejection", "operation", opts.Operation, "status", status, "error", perr.Error())
	}
	metrics.PipelineOutcomeTotal.WithLabelValues(opts.Operation, outcomeFor(perr.Kind)).Inc()

	body := errorBody{Error: perr.Message, Details: perr.Details}
	if p.devMode && perr.cause != nil {
		body.Detail = perr.cause.Error()
	}
	respondJSON(rw, status, body)
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

func setRateLimitHeaders(w http.ResponseWriter, d ratelimit.Decision) {
	w.Header().Set(RateLimitRemainingHeader, strconv.Itoa(d.Remaining))
	w.Header().Set(RateLimitResetHeader, strconv.FormatInt(d.Reset, 10))
}

func isMutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	default:
		return false
	}
}

func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if idx := strings.Index(xff, ","); idx > 0 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	addr := r.RemoteAddr
	if idx := strings.LastIndex(addr, ":"); idx >= 0 {
		addr = addr[:idx]
	}
	return addr
}
