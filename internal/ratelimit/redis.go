package ratelimit

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type RedisLimiter struct {
	rdb    *redis.Client
	window time.Duration
	limit  int
	prefix string
}

func NewRedisLimiter(cfg RedisConfig, limit int, window time.Duration) *RedisLimiter {
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})

	return &RedisLimiter{
		rdb:    rdb,
		limit:  limit,
		window: window,
		prefix: "ratelimit:",
	}
}

// Ping checks redis connectivity at startup.
func (rl *RedisLimiter) Ping(ctx context.Context) error {
	return rl.rdb.Ping(ctx).Err()
}

func (rl *RedisLimiter) Close() error {
	return rl.rdb.Close()
}

// Allow counts requests with INCR and stamps the window TTL on the first
// hit. Counting and expiry are not atomic across the two commands; a
// crashed EXPIRE leaves a key that the next window's PTTL check repairs.
func (rl *RedisLimiter) Allow(ctx context.Context, key string) (bool, time.Duration, error) {
	k := rl.prefix + key

	n, err := rl.rdb.Incr(ctx, k).Result()

	if err != nil {
		return false, 0, err
	}

	if n == 1 {
		if err := rl.rdb.Expire(ctx, k, rl.window).Err(); err != nil {
			return false, 0, err
		}
	}

	if n > int64(rl.limit) {
		ttl, err := rl.rdb.PTTL(ctx, k).Result()

		if err != nil || ttl < 0 {
			// missing TTL: reset the window rather than locking the key out forever
			_ = rl.rdb.Expire(ctx, k, rl.window).Err()
			ttl = rl.window
		}

		return false, ttl, nil
	}

	return true, 0, nil
}
