package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "ratelimit:"

// redisCommands is the slice of the go-redis client the store uses.
// Satisfied by *redis.Client; narrowed so tests can substitute a fake.
type redisCommands interface {
	Incr(ctx context.Context, key string) *redis.IntCmd
	PExpire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
	PTTL(ctx context.Context, key string) *redis.DurationCmd
	Ping(ctx context.Context) *redis.StatusCmd
	Close() error
}

// Redis is a distributed Store backed by atomic INCR. The key's TTL is the
// remainder of the current window, so the window start is recoverable from
// PTTL and counters reset themselves when the window elapses.
type Redis struct {
	client redisCommands
	now    func() time.Time
}

var _ Store = (*Redis)(nil)

// RedisConfig configures the distributed store connection.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// NewRedis returns a Redis-backed store. The connection is long-lived and
// shared across requests.
func NewRedis(cfg RedisConfig) *Redis {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return &Redis{client: client, now: time.Now}
}

func (s *Redis) Incr(ctx context.Context, key string, window time.Duration) (int64, time.Time, error) {
	k := redisKeyPrefix + key
	count, err := s.client.Incr(ctx, k).Result()
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("rate limit incr: %w", err)
	}
	if count == 1 {
		if err := s.client.PExpire(ctx, k, window).Err(); err != nil {
			return 0, time.Time{}, fmt.Errorf("rate limit expire: %w", err)
		}
		return count, s.now(), nil
	}
	ttl, err := s.client.PTTL(ctx, k).Result()
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("rate limit ttl: %w", err)
	}
	if ttl < 0 {
		// Key lost its expiry (for example a failed PExpire on creation).
		// Re-arm it rather than letting the counter live forever.
		if err := s.client.PExpire(ctx, k, window).Err(); err != nil {
			return 0, time.Time{}, fmt.Errorf("rate limit expire: %w", err)
		}
		ttl = window
	}
	start := s.now().Add(ttl - window)
	return count, start, nil
}

// Ping checks connectivity; used at startup to log degraded mode early.
func (s *Redis) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close releases the client connection.
func (s *Redis) Close() error {
	return s.client.Close()
}
