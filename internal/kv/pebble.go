package kv

import (
	"context"
	"errors"
	"fmt"

	"github.com/cockroachdb/pebble"
)

// PebbleKV stores keys in an embedded Pebble database. Writes are synced.
type PebbleKV struct {
	db *pebble.DB
}

// OpenPebble opens (or creates) a Pebble database at path. opts may be nil.
func OpenPebble(path string, opts *pebble.Options) (*PebbleKV, error) {
	if opts == nil {
		opts = &pebble.Options{}
	}
	db, err := pebble.Open(path, opts)
	if err != nil {
		return nil, fmt.Errorf("open pebble at %s: %w", path, err)
	}
	return &PebbleKV{db: db}, nil
}

func (s *PebbleKV) Get(_ context.Context, key string) (string, bool, error) {
	val, closer, err := s.db.Get([]byte(key))
	if errors.Is(err, pebble.ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("pebble get %s: %w", key, err)
	}
	defer closer.Close()
	return string(val), true, nil
}

func (s *PebbleKV) Set(_ context.Context, key, value string) error {
	if err := s.db.Set([]byte(key), []byte(value), pebble.Sync); err != nil {
		return fmt.Errorf("pebble set %s: %w", key, err)
	}
	return nil
}

func (s *PebbleKV) Keys(_ context.Context, prefix string) ([]string, error) {
	opts := &pebble.IterOptions{LowerBound: []byte(prefix)}
	if upper := prefixUpperBound([]byte(prefix)); upper != nil {
		opts.UpperBound = upper
	}
	iter, err := s.db.NewIter(opts)
	if err != nil {
		return nil, fmt.Errorf("pebble iter: %w", err)
	}
	defer iter.Close()

	keys := make([]string, 0)
	for iter.First(); iter.Valid(); iter.Next() {
		keys = append(keys, string(iter.Key()))
	}
	if err := iter.Error(); err != nil {
		return nil, fmt.Errorf("pebble iter: %w", err)
	}
	return keys, nil
}

func (s *PebbleKV) Close() error {
	return s.db.Close()
}

// prefixUpperBound returns the smallest key greater than every key with the
// given prefix, or nil when no such key exists (empty or all 0xff).
func prefixUpperBound(prefix []byte) []byte {
	end := make([]byte, len(prefix))
	copy(end, prefix)
	for i := len(end) - 1; i >= 0; i-- {
		end[i]++
		if end[i] != 0 {
			return end[:i+1]
		}
	}
	return nil
}
