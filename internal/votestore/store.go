// Package votestore persists the joke id -> vote delta mapping as a single
// JSON object under one key.
package votestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/saxenaaman628/redis-joke-list/internal/kv"
)

var ErrCorrupt = errors.New("vote store value is not a JSON object of integers")

type Store interface {
	Read(ctx context.Context) (map[string]int, error)
	Write(ctx context.Context, votes map[string]int) error
	ApplyVote(ctx context.Context, id string, delta int) (int, error)
	Reset(ctx context.Context) error
}

// KVStore keeps the whole mapping in one value of a kv.KV.
// Read-modify-write sequences are not atomic across processes; callers
// serialize access.
type KVStore struct {
	kv  kv.KV
	key string
}

func New(backend kv.KV, key string) *KVStore {
	return &KVStore{kv: backend, key: key}
}

func (s *KVStore) Key() string { return s.key }

// Read returns an empty map when the key has never been written.
func (s *KVStore) Read(ctx context.Context) (map[string]int, error) {
	raw, ok, err := s.kv.Get(ctx, s.key)
	if err != nil {
		return nil, fmt.Errorf("read votes: %w", err)
	}
	votes := make(map[string]int)
	if !ok || raw == "" {
		return votes, nil
	}
	if err := json.Unmarshal([]byte(raw), &votes); err != nil {
		return nil, fmt.Errorf("%w: key %s: %v", ErrCorrupt, s.key, err)
	}
	if votes == nil {
		// the literal "null"
		votes = make(map[string]int)
	}
	return votes, nil
}

func (s *KVStore) Write(ctx context.Context, votes map[string]int) error {
	if votes == nil {
		votes = map[string]int{}
	}
	data, err := json.Marshal(votes)
	if err != nil {
		return fmt.Errorf("encode votes: %w", err)
	}
	if err := s.kv.Set(ctx, s.key, string(data)); err != nil {
		return fmt.Errorf("write votes: %w", err)
	}
	return nil
}

func (s *KVStore) ApplyVote(ctx context.Context, id string, delta int) (int, error) {
	votes, err := s.Read(ctx)
	if err != nil {
		return 0, err
	}
	votes[id] += delta
	if err := s.Write(ctx, votes); err != nil {
		return 0, err
	}
	return votes[id], nil
}

func (s *KVStore) Reset(ctx context.Context) error {
	return s.Write(ctx, map[string]int{})
}
