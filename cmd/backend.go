package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/saxenaaman628/redis-joke-list/config"
	"github.com/saxenaaman628/redis-joke-list/internal/kv"
	"github.com/saxenaaman628/redis-joke-list/internal/redis"
)

func openBackend(ctx context.Context, cfg config.Config, log *zap.Logger) (kv.KV, error) {
	switch cfg.StoreBackend {
	case config.BackendRedis:
		rdb, err := redis.NewClient(ctx, cfg, log)
		if err != nil {
			return nil, err
		}
		return kv.NewRedis(rdb), nil
	case config.BackendPebble:
		if err := os.MkdirAll(filepath.Dir(cfg.PebblePath), 0o755); err != nil {
			return nil, fmt.Errorf("create pebble dir: %w", err)
		}
		store, err := kv.OpenPebble(cfg.PebblePath, nil)
		if err != nil {
			return nil, err
		}
		log.Info("pebble opened", zap.String("path", cfg.PebblePath))
		return store, nil
	case config.BackendMemory:
		log.Warn("using in-memory vote store; votes are lost on exit")
		return kv.NewMemory(), nil
	}
	return nil, fmt.Errorf("unknown backend %q", cfg.StoreBackend)
}

// sessionPrefix is the part every session's vote store key starts with.
func sessionPrefix(cfg config.Config) string {
	return cfg.VotesKey + ":"
}

// votesKey is the vote store key of a session.
func votesKey(cfg config.Config, sessionID string) string {
	return sessionPrefix(cfg) + sessionID
}
