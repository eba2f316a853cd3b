// Package kv is the string key/value storage the vote store persists into.
package kv

import "context"

// KV is a minimal string key/value store. Get reports ok=false when the key
// has never been set.
type KV interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	// Keys returns every key starting with prefix, in no particular order.
	Keys(ctx context.Context, prefix string) ([]string, error)
	Close() error
}
