package controller

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/saxenaaman628/redis-joke-list/internal/jokes"
	"github.com/saxenaaman628/redis-joke-list/internal/metrics"
	"github.com/saxenaaman628/redis-joke-list/internal/models"
	"github.com/saxenaaman628/redis-joke-list/internal/votestore"
)

var (
	ErrJokeNotFound = errors.New("joke not found")
	ErrClosed       = errors.New("joke list closed")
)

type Options struct {
	// Target is the number of jokes the list fills up to.
	Target  int
	Store   votestore.Store
	Fetcher *jokes.Fetcher
	Retry   RetryPolicy
	Log     *zap.Logger
}

// JokeList holds one client's jokes. Whenever it holds fewer than Target
// jokes it fills itself in the background, one fill pass at a time.
type JokeList struct {
	target  int
	store   votestore.Store
	fetcher *jokes.Fetcher
	retry   RetryPolicy
	log     *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	jokes   []models.Joke // fetch order
	lastErr error
	closed  bool
	pass    chan struct{} // closed when the running fill pass ends, nil when idle
}

func New(opts Options) (*JokeList, error) {
	if opts.Target < 0 {
		return nil, fmt.Errorf("target must be >= 0, got %d", opts.Target)
	}
	if opts.Store == nil {
		return nil, errors.New("vote store is required")
	}
	if opts.Fetcher == nil || opts.Fetcher.Source == nil {
		return nil, errors.New("joke source is required")
	}
	if opts.Retry.MaxAttempts < 1 {
		opts.Retry.MaxAttempts = 1
	}
	if opts.Log == nil {
		opts.Log = zap.NewNop()
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &JokeList{
		target:  opts.Target,
		store:   opts.Store,
		fetcher: opts.Fetcher,
		retry:   opts.Retry,
		log:     opts.Log,
		ctx:     ctx,
		cancel:  cancel,
		jokes:   make([]models.Joke, 0, opts.Target),
	}, nil
}

func (l *JokeList) Target() int { return l.target }

// Start begins filling the list.
func (l *JokeList) Start() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.refreshLocked()
}

// Close cancels any running fill pass. A pass that finishes after Close
// changes neither the list nor the vote store. Close does not wait; use
// Wait for that.
func (l *JokeList) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return
	}
	l.closed = true
	l.cancel()
}

// Wait blocks until no fill pass is running.
func (l *JokeList) Wait() {
	for {
		l.mu.Lock()
		p := l.pass
		l.mu.Unlock()
		if p == nil {
			return
		}
		<-p
	}
}

// View returns the jokes sorted by votes, highest first. Equal votes keep
// fetch order.
func (l *JokeList) View() models.View {
	l.mu.Lock()
	defer l.mu.Unlock()

	sorted := slices.Clone(l.jokes)
	slices.SortStableFunc(sorted, func(a, b models.Joke) int {
		return cmp.Compare(b.Votes, a.Votes)
	})

	locked := 0
	for _, j := range sorted {
		if j.Locked {
			locked++
		}
	}

	v := models.View{
		Jokes:        sorted,
		Target:       l.target,
		AllLocked:    locked == l.target,
		StillLoading: len(sorted) < l.target,
	}
	if l.lastErr != nil {
		v.Error = l.lastErr.Error()
	}
	return v
}

// GenerateNewJokes drops every unlocked joke. The list refills in the
// background.
func (l *JokeList) GenerateNewJokes() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return ErrClosed
	}

	kept := make([]models.Joke, 0, l.target)
	for _, j := range l.jokes {
		if j.Locked {
			kept = append(kept, j)
		}
	}
	l.log.Debug("generating new jokes", zap.Int("kept", len(kept)), zap.Int("dropped", len(l.jokes)-len(kept)))
	l.jokes = kept
	l.lastErr = nil
	l.refreshLocked()
	return nil
}

// Refresh clears a surfaced fetch error and refills the list if it is short.
func (l *JokeList) Refresh() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return ErrClosed
	}
	l.lastErr = nil
	l.refreshLocked()
	return nil
}

// ResetVotes empties the vote store, then zeroes every held joke's votes.
// If the store write fails the held jokes are left as they were.
func (l *JokeList) ResetVotes(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return ErrClosed
	}

	if err := l.store.Reset(ctx); err != nil {
		return fmt.Errorf("reset votes: %w", err)
	}
	for i := range l.jokes {
		l.jokes[i].Votes = 0
	}
	l.log.Info("votes reset", zap.Int("jokes", len(l.jokes)))
	return nil
}

// Vote adds delta to the stored count for id and to the held joke's votes,
// returning the stored count.
func (l *JokeList) Vote(ctx context.Context, id string, delta int) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return 0, ErrClosed
	}

	i := l.indexLocked(id)
	if i < 0 {
		return 0, fmt.Errorf("%w: %s", ErrJokeNotFound, id)
	}
	stored, err := l.store.ApplyVote(ctx, id, delta)
	if err != nil {
		return 0, fmt.Errorf("vote %s: %w", id, err)
	}
	l.jokes[i].Votes += delta
	metrics.RecordVote(delta)
	return stored, nil
}

// ToggleLock flips the locked flag of id and returns the new value.
func (l *JokeList) ToggleLock(id string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return false, ErrClosed
	}

	i := l.indexLocked(id)
	if i < 0 {
		return false, fmt.Errorf("%w: %s", ErrJokeNotFound, id)
	}
	l.jokes[i].Locked = !l.jokes[i].Locked
	return l.jokes[i].Locked, nil
}

func (l *JokeList) indexLocked(id string) int {
	return slices.IndexFunc(l.jokes, func(j models.Joke) bool { return j.ID == id })
}

// refreshLocked starts a fill pass when the list is short, no pass is
// running and no fetch error is waiting to be acknowledged.
func (l *JokeList) refreshLocked() {
	if l.closed || l.pass != nil || l.lastErr != nil || len(l.jokes) >= l.target {
		return
	}
	done := make(chan struct{})
	l.pass = done
	go l.fill(done)
}

func (l *JokeList) fill(done chan struct{}) {
	defer func() {
		l.mu.Lock()
		l.pass = nil
		// the list may have shrunk after the last check
		l.refreshLocked()
		l.mu.Unlock()
		close(done)
	}()

	attempt := 0
	for {
		l.mu.Lock()
		if l.closed {
			l.mu.Unlock()
			return
		}
		held := slices.Clone(l.jokes)
		l.mu.Unlock()
		if len(held) >= l.target {
			return
		}

		attempt++
		err := l.fillOnce(held)
		if err == nil {
			metrics.FillAttempts.WithLabelValues("ok").Inc()
			attempt = 0
			continue
		}
		if l.ctx.Err() != nil {
			metrics.FillAttempts.WithLabelValues("cancelled").Inc()
			l.log.Debug("fill cancelled", zap.Error(err))
			return
		}
		if attempt >= l.retry.MaxAttempts {
			metrics.FillAttempts.WithLabelValues("exhausted").Inc()
			l.log.Error("fetching jokes failed, giving up", zap.Int("attempts", attempt), zap.Error(err))
			l.mu.Lock()
			l.lastErr = err
			l.mu.Unlock()
			return
		}

		metrics.FillAttempts.WithLabelValues("retry").Inc()
		wait := l.retry.Backoff(attempt)
		l.log.Warn("fetching jokes failed, retrying",
			zap.Int("attempt", attempt),
			zap.Duration("backoff", wait),
			zap.Error(err),
		)
		select {
		case <-l.ctx.Done():
			metrics.FillAttempts.WithLabelValues("cancelled").Inc()
			return
		case <-time.After(wait):
		}
	}
}

// fillOnce runs the fetch loop from held and merges the result into the
// current list.
func (l *JokeList) fillOnce(held []models.Joke) error {
	votes, err := l.store.Read(l.ctx)
	if err != nil {
		return err
	}
	list, stats, err := l.fetcher.Fetch(l.ctx, held, l.target, votes)
	if err != nil {
		return err
	}
	fetched := list[len(held):]

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return ErrClosed
	}

	// Votes may have changed while fetching. The re-read and the write below
	// stay under l.mu so no vote lands between them, at the cost of holding
	// the lock for two store round trips.
	current, err := l.store.Read(l.ctx)
	if err != nil {
		return err
	}

	present := make(map[string]struct{}, len(l.jokes))
	for _, j := range l.jokes {
		present[j.ID] = struct{}{}
	}
	room := l.target - len(l.jokes)
	added := make([]models.Joke, 0, len(fetched))
	for _, j := range fetched {
		if len(added) >= room {
			break
		}
		if _, ok := present[j.ID]; ok {
			continue
		}
		if v, ok := current[j.ID]; ok {
			j.Votes = v
		} else {
			current[j.ID] = 0
			j.Votes = 0
		}
		added = append(added, j)
	}

	if err := l.store.Write(l.ctx, current); err != nil {
		return err
	}
	l.jokes = append(l.jokes, added...)
	l.lastErr = nil

	l.log.Info("jokes fetched",
		zap.Int("added", len(added)),
		zap.Int("held", len(l.jokes)),
		zap.Int("requests", stats.Requests),
		zap.Int("duplicates", stats.Duplicates),
	)
	return nil
}
