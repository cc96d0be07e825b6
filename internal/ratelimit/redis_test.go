package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

// fakeRedis scripts the three commands the store issues and records the
// expirations it was asked to set.
type fakeRedis struct {
	incrCount int64
	incrErr   error
	ttl       time.Duration
	ttlErr    error
	expireErr error

	expireCalls []time.Duration
}

func (f *fakeRedis) Incr(context.Context, string) *redis.IntCmd {
	return redis.NewIntResult(f.incrCount, f.incrErr)
}

func (f *fakeRedis) PExpire(_ context.Context, _ string, expiration time.Duration) *redis.BoolCmd {
	f.expireCalls = append(f.expireCalls, expiration)
	return redis.NewBoolResult(f.expireErr == nil, f.expireErr)
}

func (f *fakeRedis) PTTL(context.Context, string) *redis.DurationCmd {
	return redis.NewDurationResult(f.ttl, f.ttlErr)
}

func (f *fakeRedis) Ping(context.Context) *redis.StatusCmd {
	return redis.NewStatusResult("PONG", nil)
}

func (f *fakeRedis) Close() error { return nil }

func newFakeRedisStore(f *fakeRedis) (*Redis, time.Time) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	return &Redis{client: f, now: func() time.Time { return now }}, now
}

func TestRedisIncr_FirstInWindow(t *testing.T) {
	fake := &fakeRedis{incrCount: 1}
	store, now := newFakeRedisStore(fake)

	count, start, err := store.Incr(context.Background(), "api:1.2.3.4", time.Minute)
	if err != nil {
		t.Fatalf("Incr: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected count 1, got %d", count)
	}
	if !start.Equal(now) {
		t.Errorf("Expected window start at now, got %v", start)
	}
	// First increment arms the key with the full window.
	if len(fake.expireCalls) != 1 || fake.expireCalls[0] != time.Minute {
		t.Errorf("Expected one PExpire(window), got %v", fake.expireCalls)
	}
}

func TestRedisIncr_MidWindowStartFromTTL(t *testing.T) {
	// 40s of the 60s window remain, so the window started 20s ago.
	fake := &fakeRedis{incrCount: 7, ttl: 40 * time.Second}
	store, now := newFakeRedisStore(fake)

	count, start, err := store.Incr(context.Background(), "api:1.2.3.4", time.Minute)
	if err != nil {
		t.Fatalf("Incr: %v", err)
	}
	if count != 7 {
		t.Errorf("Expected count 7, got %d", count)
	}
	want := now.Add(-20 * time.Second)
	if !start.Equal(want) {
		t.Errorf("Expected window start %v, got %v", want, start)
	}
	if len(fake.expireCalls) != 0 {
		t.Errorf("Expected no PExpire mid-window, got %v", fake.expireCalls)
	}
}

func TestRedisIncr_ReArmsKeyWithoutExpiry(t *testing.T) {
	// PTTL returns -1 for a key with no expiry (for example a PExpire that
	// failed at creation); the store must re-arm it.
	fake := &fakeRedis{incrCount: 3, ttl: -1}
	store, now := newFakeRedisStore(fake)

	count, start, err := store.Incr(context.Background(), "api:1.2.3.4", time.Minute)
	if err != nil {
		t.Fatalf("Incr: %v", err)
	}
	if count != 3 {
		t.Errorf("Expected count 3, got %d", count)
	}
	if len(fake.expireCalls) != 1 || fake.expireCalls[0] != time.Minute {
		t.Errorf("Expected re-arming PExpire(window), got %v", fake.expireCalls)
	}
	// A freshly re-armed window starts now.
	if !start.Equal(now) {
		t.Errorf("Expected window start at now after re-arm, got %v", start)
	}
}

func TestRedisIncr_BackendErrors(t *testing.T) {
	down := errors.New("connection refused")

	cases := []struct {
		name string
		fake *fakeRedis
	}{
		{"incr fails", &fakeRedis{incrErr: down}},
		{"first expire fails", &fakeRedis{incrCount: 1, expireErr: down}},
		{"pttl fails", &fakeRedis{incrCount: 2, ttlErr: down}},
		{"re-arm expire fails", &fakeRedis{incrCount: 2, ttl: -1, expireErr: down}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			store, _ := newFakeRedisStore(c.fake)
			if _, _, err := store.Incr(context.Background(), "api:1.2.3.4", time.Minute); err == nil {
				t.Error("Expected error when the backend fails")
			}
		})
	}
}

func TestRedisIncr_FeedsLimiterDecision(t *testing.T) {
	fake := &fakeRedis{incrCount: 60, ttl: 30 * time.Second}
	store, _ := newFakeRedisStore(fake)
	l := New(store, Config{Window: time.Minute, Quotas: DefaultQuotas()}, testLogger())

	d := l.Check(context.Background(), "1.2.3.4", ClassAPI, 0)
	if !d.Allowed {
		t.Error("Expected admission at exactly the quota")
	}
	if d.Remaining != 0 {
		t.Errorf("Expected remaining 0 at quota, got %d", d.Remaining)
	}

	fake.incrCount = 61
	if d := l.Check(context.Background(), "1.2.3.4", ClassAPI, 0); d.Allowed {
		t.Error("Expected rejection past the quota")
	}
}
