package kv

import (
	"context"
	"os"
	"sort"
	"testing"

	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testKV(t *testing.T, store KV, ns string) {
	ctx := context.Background()

	_, ok, err := store.Get(ctx, ns+"jokeVotes")
	require.NoError(t, err)
	assert.False(t, ok, "unset key should be absent")

	require.NoError(t, store.Set(ctx, ns+"jokeVotes", `{"a":1}`))
	val, ok, err := store.Get(ctx, ns+"jokeVotes")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"a":1}`, val)

	require.NoError(t, store.Set(ctx, ns+"jokeVotes", `{}`))
	val, _, err = store.Get(ctx, ns+"jokeVotes")
	require.NoError(t, err)
	assert.Equal(t, `{}`, val)

	require.NoError(t, store.Set(ctx, ns+"jokeVotes:s1", `{}`))
	require.NoError(t, store.Set(ctx, ns+"other", `x`))

	keys, err := store.Keys(ctx, ns+"jokeVotes")
	require.NoError(t, err)
	sort.Strings(keys)
	assert.Equal(t, []string{ns + "jokeVotes", ns + "jokeVotes:s1"}, keys)

	// pattern characters in a prefix match literally
	require.NoError(t, store.Set(ctx, ns+"jokeVotes[*]:s2", `{}`))
	require.NoError(t, store.Set(ctx, ns+"jokeVotesX:s3", `{}`))
	keys, err = store.Keys(ctx, ns+"jokeVotes[*]:")
	require.NoError(t, err)
	assert.Equal(t, []string{ns + "jokeVotes[*]:s2"}, keys)

	keys, err = store.Keys(ctx, ns+"jokeVotes:")
	require.NoError(t, err)
	assert.Equal(t, []string{ns + "jokeVotes:s1"}, keys)
}

func TestGlobEscaper(t *testing.T) {
	tests := map[string]string{
		"jokeVotes:": "jokeVotes:",
		"a*b":        `a\*b`,
		"q?":         `q\?`,
		"[x]":        `\[x\]`,
		`back\slash`: `back\\slash`,
	}
	for in, want := range tests {
		assert.Equal(t, want, globEscaper.Replace(in), in)
	}
}

func TestMemoryKV(t *testing.T) {
	testKV(t, NewMemory(), "")
}

func TestPebbleKV(t *testing.T) {
	store, err := OpenPebble("votes", &pebble.Options{FS: vfs.NewMem()})
	require.NoError(t, err)
	defer store.Close()

	testKV(t, store, "")
}

func TestRedisKV(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	store := NewRedis(rdb)
	require.NoError(t, rdb.Ping(context.Background()).Err())

	ns := "test:" + uuid.NewString() + ":"
	t.Cleanup(func() {
		keys, _ := rdb.Keys(context.Background(), ns+"*").Result()
		if len(keys) > 0 {
			rdb.Del(context.Background(), keys...)
		}
		store.Close()
	})
	testKV(t, store, ns)
}

func TestPrefixUpperBound(t *testing.T) {
	assert.Equal(t, []byte("jokeVotet"), prefixUpperBound([]byte("jokeVotes")))
	assert.Equal(t, []byte{0x02}, prefixUpperBound([]byte{0x01, 0xff}))
	assert.Nil(t, prefixUpperBound([]byte{0xff, 0xff}))
	assert.Nil(t, prefixUpperBound(nil))
}
