package middleware

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// redisFixedWindowLimiter shares one fixed window across instances via
// INCR + EXPIRE on a per-key counter.
type redisFixedWindowLimiter struct {
	client redis.UniversalClient
}

func NewRedisFixedWindowLimiter(client redis.UniversalClient) Limiter {
	return &redisFixedWindowLimiter{client: client}
}

func (l *redisFixedWindowLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, time.Duration, error) {
	count, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		return false, 0, err
	}
	if count == 1 {
		if err := l.client.Expire(ctx, key, window).Err(); err != nil {
			return false, 0, err
		}
	}
	if count > int64(limit) {
		ttl, err := l.client.PTTL(ctx, key).Result()
		if err != nil || ttl < 0 {
			ttl = window
		}
		return false, ttl, nil
	}
	return true, 0, nil
}
