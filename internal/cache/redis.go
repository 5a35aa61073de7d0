// Package cache provides the optional Redis client and distributed lock.
package cache

import (
	"context"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/gomart/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// NewClient opens a Redis client when REDIS_ADDR is configured.
// A nil client is a valid result: callers degrade to uncached behavior.
func NewClient(lc fx.Lifecycle, cfg config.Config, log *zap.Logger) *redis.Client {
	if cfg.RedisAddr == "" {
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	if lc != nil {
		lc.Append(fx.Hook{
			OnStart: func(ctx context.Context) error {
				if err := client.Ping(ctx).Err(); err != nil {
					log.Warn("redis unreachable, caching disabled", zap.Error(err))
				}
				return nil
			},
			OnStop: func(ctx context.Context) error {
				_ = ctx
				return client.Close()
			},
		})
	}

	return client
}

// Module wires the Redis client and locker.
var Module = fx.Module("cache",
	fx.Provide(
		NewClient,
		NewLocker,
	),
)
