package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/saxenaaman628/redis-joke-list/config"
)

// NewClient connects to the Redis server named in cfg and pings it.
func NewClient(ctx context.Context, cfg config.Config, log *zap.Logger) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisURI,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	pong, err := rdb.Ping(ctx).Result()
	if err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.RedisURI, err)
	}

	log.Info("redis connected", zap.String("addr", cfg.RedisURI), zap.String("pong", pong))
	return rdb, nil
}
