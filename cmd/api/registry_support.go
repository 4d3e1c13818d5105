package main

import (
	"context"
	"fmt"

	redis "github.com/redis/go-redis/v9"

	"github.com/yourusername/dashboard-auth/internal/config"
	"github.com/yourusername/dashboard-auth/internal/logging"
	"github.com/yourusername/dashboard-auth/internal/session"
)

// setupSessionRegistry は SESSION_REDIS_URL が設定されていればセッション台帳を用意します。
// 未設定なら nil を返し、署名付きクッキーのみで運用します。
func setupSessionRegistry(ctx context.Context, cfg *config.Config, logger logging.Logger) (*session.Store, func(), error) {
	if cfg.SessionRedisURL == "" {
		logger.Info(ctx, "session registry disabled")
		return nil, func() {}, nil
	}

	opt, err := redis.ParseURL(cfg.SessionRedisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse redis url: %w", err)
	}

	redisClient := redis.NewClient(opt)
	if err := redisClient.Ping(ctx).Err(); err != nil {
		_ = redisClient.Close()
		return nil, nil, fmt.Errorf("redis ping error: %w", err)
	}

	store := session.NewStore(redisClient, cfg.SessionMaxAge())
	logger.Info(ctx, "session registry enabled", "addr", opt.Addr)
	return store, func() { _ = redisClient.Close() }, nil
}
