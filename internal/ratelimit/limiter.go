package ratelimit

import (
	"context"
	"log/slog"
	"time"

	"github.com/tribalbenefits/backend/internal/pkg/metrics"
)

// Class namespaces counters per route group; distinct classes never share
// counters even for the same identity.
type Class string

const (
	ClassAPI       Class = "api"
	ClassAdmin     Class = "admin"
	ClassAdminBulk Class = "admin_bulk"
)

// adminScoped classes always fail closed when the store is unreachable,
// regardless of the configured policy.
func (c Class) adminScoped() bool {
	return c == ClassAdmin || c == ClassAdminBulk
}

// Decision is the outcome of a quota check. Reset is the epoch second at
// which the current window ends.
type Decision struct {
	Allowed   bool
	Remaining int
	Reset     int64
}

// Config carries the read-only quota configuration shared by all requests.
type Config struct {
	Window       time.Duration
	Quotas       map[Class]int
	FailOpen     bool
	StoreTimeout time.Duration
}

// DefaultQuotas returns the stock per-window quotas.
func DefaultQuotas() map[Class]int {
	return map[Class]int{
		ClassAPI:       60,
		ClassAdmin:     30,
		ClassAdminBulk: 10,
	}
}

// Limiter decides admit/reject per (identity, class) against the configured
// quota. Store failures are recovered locally per the fail policy and logged;
// they never crash the pipeline.
type Limiter struct {
	store        Store
	window       time.Duration
	quotas       map[Class]int
	failOpen     bool
	storeTimeout time.Duration
	log          *slog.Logger
}

// New returns a Limiter over the given store.
func New(store Store, cfg Config, log *slog.Logger) *Limiter {
	window := cfg.Window
	if window <= 0 {
		window = time.Minute
	}
	quotas := cfg.Quotas
	if quotas == nil {
		quotas = DefaultQuotas()
	}
	storeTimeout := cfg.StoreTimeout
	if storeTimeout <= 0 {
		storeTimeout = 500 * time.Millisecond
	}
	return &Limiter{
		store:        store,
		window:       window,
		quotas:       quotas,
		failOpen:     cfg.FailOpen,
		storeTimeout: storeTimeout,
		log:          log,
	}
}

// Check admits or rejects one request from identity under class. An
// overrideQuota > 0 replaces the class quota for this route.
func (l *Limiter) Check(ctx context.Context, identity string, class Class, overrideQuota int) Decision {
	if class == "" {
		class = ClassAPI
	}
	quota := l.quotas[class]
	if overrideQuota > 0 {
		quota = overrideQuota
	}
	if quota <= 0 {
		quota = DefaultQuotas()[ClassAPI]
	}

	ctx, cancel := context.WithTimeout(ctx, l.storeTimeout)
	defer cancel()

	key := string(class) + ":" + identity
	count, start, err := l.store.Incr(ctx, key, l.window)
	if err != nil {
		return l.degraded(class, quota, err)
	}

	remaining := quota - int(count)
	if remaining < 0 {
		remaining = 0
	}
	return Decision{
		Allowed:   count <= int64(quota),
		Remaining: remaining,
		Reset:     start.Add(l.window).Unix(),
	}
}

// degraded applies the fail policy when the store is unreachable. A timeout
// counts as a backend failure, not a hang.
func (l *Limiter) degraded(class Class, quota int, err error) Decision {
	open := l.failOpen && !class.adminScoped()
	policy := "fail_closed"
	if open {
		policy = "fail_open"
	}
	metrics.RateLimitStoreErrorsTotal.WithLabelValues(policy).Inc()
	l.log.Warn("rate limit store unavailable",
		"class", string(class),
		"policy", policy,
		"error", err.Error(),
	)
	reset := time.Now().Add(l.window).Unix()
	if open {
		return Decision{Allowed: true, Remaining: quota - 1, Reset: reset}
	}
	return Decision{Allowed: false, Remaining: 0, Reset: reset}
}
