package ratelimit

import (
	"context"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
)

// RedisLimiter shares fixed windows between every API instance using Redis
// counters that expire with the window.
type RedisLimiter struct {
	client *redis.Client
	cfg    Config
	prefix string
}

// NewRedisLimiter constructs a Redis-backed limiter. Keys are namespaced by prefix.
func NewRedisLimiter(client *redis.Client, cfg Config, prefix string) *RedisLimiter {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = "comments"
	}
	return &RedisLimiter{client: client, cfg: cfg.withDefaults(), prefix: prefix}
}

// Allow implements Limiter.
func (l *RedisLimiter) Allow(ctx context.Context, identity string) (bool, error) {
	key := fmt.Sprintf("%s:ratelimit:%s", l.prefix, identity)

	count, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("rate limit increment: %w", err)
	}
	if count == 1 {
		if err := l.client.PExpire(ctx, key, l.cfg.Window).Err(); err != nil {
			return false, fmt.Errorf("rate limit expiry: %w", err)
		}
		return true, nil
	}

	if count > int64(l.cfg.Max) {
		// A counter without TTL would deny the identity forever.
		ttl, err := l.client.PTTL(ctx, key).Result()
		if err == nil && ttl < 0 {
			_ = l.client.PExpire(ctx, key, l.cfg.Window).Err()
		}
		return false, nil
	}

	return true, nil
}
