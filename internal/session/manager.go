// Package session keeps one joke list per client session. A list is created
// and started on first use and closed after it has been idle for the TTL.
package session

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/saxenaaman628/redis-joke-list/internal/controller"
	"github.com/saxenaaman628/redis-joke-list/internal/metrics"
)

// Factory builds the (unstarted) joke list for a session.
type Factory func(sessionID string) (*controller.JokeList, error)

type entry struct {
	list     *controller.JokeList
	lastSeen time.Time
}

type Manager struct {
	factory       Factory
	log           *zap.Logger
	ttl           time.Duration
	cleanupPeriod time.Duration

	mu           sync.Mutex
	m            map[string]*entry
	closed       bool
	startCleanup sync.Once
	stop         chan struct{}
}

func NewManager(factory Factory, ttl time.Duration, log *zap.Logger) *Manager {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	period := ttl / 10
	if period < time.Second {
		period = time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{
		factory:       factory,
		log:           log,
		ttl:           ttl,
		cleanupPeriod: period,
		m:             make(map[string]*entry),
		stop:          make(chan struct{}),
	}
}

// Get returns the session's joke list, creating and starting it if needed.
func (m *Manager) Get(sessionID string) (*controller.JokeList, error) {
	m.startCleanup.Do(func() {
		go m.cleanupLoop()
	})

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, controller.ErrClosed
	}
	if e, ok := m.m[sessionID]; ok {
		e.lastSeen = time.Now()
		return e.list, nil
	}

	list, err := m.factory(sessionID)
	if err != nil {
		return nil, err
	}
	list.Start()
	m.m[sessionID] = &entry{list: list, lastSeen: time.Now()}
	metrics.ActiveSessions.Inc()
	m.log.Info("session started", zap.String("session", sessionID))
	return list, nil
}

func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.m)
}

// Evict closes every session not seen since cutoff and returns how many
// were closed.
func (m *Manager) Evict(cutoff time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for id, e := range m.m {
		if e.lastSeen.Before(cutoff) {
			e.list.Close()
			delete(m.m, id)
			metrics.ActiveSessions.Dec()
			m.log.Info("session expired", zap.String("session", id))
			n++
		}
	}
	return n
}

// Close closes every session and waits for their fill passes to end.
func (m *Manager) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	close(m.stop)
	lists := make([]*controller.JokeList, 0, len(m.m))
	for id, e := range m.m {
		e.list.Close()
		lists = append(lists, e.list)
		delete(m.m, id)
		metrics.ActiveSessions.Dec()
	}
	m.mu.Unlock()

	for _, l := range lists {
		l.Wait()
	}
}

func (m *Manager) cleanupLoop() {
	ticker := time.NewTicker(m.cleanupPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-m.stop:
			return
		case <-ticker.C:
			m.Evict(time.Now().Add(-m.ttl))
		}
	}
}
