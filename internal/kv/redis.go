package kv

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
)

type RedisKV struct {
	rdb *redis.Client
}

func NewRedis(rdb *redis.Client) *RedisKV {
	return &RedisKV{rdb: rdb}
}

func (s *RedisKV) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := s.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return val, true, nil
}

func (s *RedisKV) Set(ctx context.Context, key, value string) error {
	if err := s.rdb.Set(ctx, key, value, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// globEscaper quotes the characters SCAN MATCH treats as pattern syntax.
var globEscaper = strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`, `[`, `\[`, `]`, `\]`)

func (s *RedisKV) Keys(ctx context.Context, prefix string) ([]string, error) {
	match := globEscaper.Replace(prefix) + "*"
	var cursor uint64
	var keys []string
	all := make([]string, 0)
	var err error
	for {
		keys, cursor, err = s.rdb.Scan(ctx, cursor, match, 100).Result()
		if err != nil {
			return nil, fmt.Errorf("redis scan %s: %w", match, err)
		}
		all = append(all, keys...)
		if cursor == 0 {
			break
		}
	}
	return all, nil
}

func (s *RedisKV) Close() error {
	return s.rdb.Close()
}
