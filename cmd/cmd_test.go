package cmd

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/saxenaaman628/redis-joke-list/config"
	"github.com/saxenaaman628/redis-joke-list/internal/kv"
	"github.com/saxenaaman628/redis-joke-list/internal/models"
)

type oneShotSource struct{ n int }

func (s *oneShotSource) Next(context.Context) (models.Joke, error) {
	s.n++
	return models.Joke{ID: string(rune('a' + s.n)), Text: "joke"}, nil
}

func TestVotesKey(t *testing.T) {
	cfg := config.Config{VotesKey: "jokeVotes"}
	assert.Equal(t, "jokeVotes:", sessionPrefix(cfg))
	assert.Equal(t, "jokeVotes:abc", votesKey(cfg, "abc"))
}

func TestResetEverySession(t *testing.T) {
	ctx := context.Background()
	cfg := config.Config{VotesKey: "jokeVotes"}
	backend := kv.NewMemory()
	require.NoError(t, backend.Set(ctx, votesKey(cfg, "a"), `{"j1":3}`))
	require.NoError(t, backend.Set(ctx, votesKey(cfg, "b"), `{"j2":-1}`))
	require.NoError(t, backend.Set(ctx, "jokeVotesArchive", `{"j3":7}`))

	keys, err := backend.Keys(ctx, sessionPrefix(cfg))
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"jokeVotes:a", "jokeVotes:b"}, keys)
	require.NoError(t, resetKeys(ctx, backend, keys))

	for _, k := range keys {
		raw, _, err := backend.Get(ctx, k)
		require.NoError(t, err)
		assert.Equal(t, "{}", raw, k)
	}
	raw, _, err := backend.Get(ctx, "jokeVotesArchive")
	require.NoError(t, err)
	assert.Equal(t, `{"j3":7}`, raw)
}

func TestSessionFactoryUsesSessionKey(t *testing.T) {
	cfg := config.Config{VotesKey: "jokeVotes", NumJokes: 2, FetchMaxAttempts: 1, MaxDuplicates: 5}
	backend := kv.NewMemory()

	factory := newSessionFactory(cfg, backend, &oneShotSource{}, zaptest.NewLogger(t))
	l, err := factory("sess")
	require.NoError(t, err)
	l.Start()
	l.Wait()
	defer l.Close()

	assert.Len(t, l.View().Jokes, 2)
	_, ok, err := backend.Get(context.Background(), "jokeVotes:sess")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestOpenMemoryBackend(t *testing.T) {
	cfg := config.Config{StoreBackend: config.BackendMemory}
	backend, err := openBackend(context.Background(), cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.IsType(t, &kv.MemoryKV{}, backend)
}

func TestVotesCommands(t *testing.T) {
	t.Setenv("STORE_BACKEND", "memory")
	t.Setenv("LOG_LEVEL", "error")

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"votes", "reset", "--session", "abc"})
	require.NoError(t, rootCmd.Execute())
	assert.Equal(t, "reset jokeVotes:abc\n", out.String())

	out.Reset()
	rootCmd.SetArgs([]string{"votes", "show", "--session", "abc"})
	require.NoError(t, rootCmd.Execute())
	assert.JSONEq(t, `{}`, out.String())

	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs([]string{"votes", "show", "--session="})
	assert.ErrorIs(t, rootCmd.Execute(), errSessionRequired)
}
