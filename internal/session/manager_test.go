package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/saxenaaman628/redis-joke-list/internal/controller"
	"github.com/saxenaaman628/redis-joke-list/internal/jokes"
	"github.com/saxenaaman628/redis-joke-list/internal/kv"
	"github.com/saxenaaman628/redis-joke-list/internal/models"
	"github.com/saxenaaman628/redis-joke-list/internal/votestore"
)

type seqSource struct {
	mu sync.Mutex
	n  int
}

func (s *seqSource) Next(context.Context) (models.Joke, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	id := fmt.Sprintf("s%d", s.n)
	return models.Joke{ID: id, Text: id}, nil
}

func newManager(t *testing.T, backend kv.KV) *Manager {
	src := &seqSource{}
	factory := func(id string) (*controller.JokeList, error) {
		return controller.New(controller.Options{
			Target:  2,
			Store:   votestore.New(backend, "jokeVotes:"+id),
			Fetcher: &jokes.Fetcher{Source: src},
			Retry:   controller.DefaultRetryPolicy(),
		})
	}
	m := NewManager(factory, time.Hour, zaptest.NewLogger(t))
	t.Cleanup(m.Close)
	return m
}

func TestGetCreatesOncePerSession(t *testing.T) {
	backend := kv.NewMemory()
	m := newManager(t, backend)

	a, err := m.Get("a")
	require.NoError(t, err)
	a2, err := m.Get("a")
	require.NoError(t, err)
	assert.Same(t, a, a2)

	b, err := m.Get("b")
	require.NoError(t, err)
	assert.NotSame(t, a, b)
	assert.Equal(t, 2, m.Len())

	a.Wait()
	assert.Len(t, a.View().Jokes, 2, "Get starts the list")

	keys, err := backend.Keys(context.Background(), "jokeVotes:")
	require.NoError(t, err)
	assert.Contains(t, keys, "jokeVotes:a")
}

func TestEvictClosesIdleSessions(t *testing.T) {
	m := newManager(t, kv.NewMemory())

	a, err := m.Get("a")
	require.NoError(t, err)
	a.Wait()

	assert.Zero(t, m.Evict(time.Now().Add(-time.Minute)))
	assert.Equal(t, 1, m.Evict(time.Now().Add(time.Minute)))
	assert.Zero(t, m.Len())
	assert.ErrorIs(t, a.GenerateNewJokes(), controller.ErrClosed)

	fresh, err := m.Get("a")
	require.NoError(t, err)
	assert.NotSame(t, a, fresh)
}

func TestFactoryErrorIsReturned(t *testing.T) {
	m := NewManager(func(string) (*controller.JokeList, error) {
		return nil, errors.New("no backend")
	}, time.Hour, nil)
	defer m.Close()

	_, err := m.Get("a")
	assert.ErrorContains(t, err, "no backend")
	assert.Zero(t, m.Len())
}

func TestCloseRejectsNewSessions(t *testing.T) {
	m := newManager(t, kv.NewMemory())
	_, err := m.Get("a")
	require.NoError(t, err)

	m.Close()
	_, err = m.Get("b")
	assert.ErrorIs(t, err, controller.ErrClosed)
}
