package store

import (
	"container/list"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// Config configures the session store manager.
type Config struct {
	// TTL is the sliding idle window after which a session store is
	// evicted. Every access refreshes it. Default: 30 minutes.
	TTL time.Duration

	// MaxSessions bounds the number of live session stores. When the
	// bound is hit, the least recently accessed store is evicted.
	// Default: 1000.
	MaxSessions int

	// SweepInterval is how often the background sweep removes expired
	// stores. Default: 1 minute.
	SweepInterval time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		TTL:           30 * time.Minute,
		MaxSessions:   1000,
		SweepInterval: time.Minute,
	}
}

// ErrManagerClosed is returned by operations on a closed manager.
var ErrManagerClosed = errors.New("session store manager is closed")

// Manager owns the process-wide map of session stores. Stores are created
// lazily on first access and evicted after the idle TTL; eviction is the
// only destruction path. A store lost to eviction is transparently
// replaced by a fresh one on the next access, so mid-session values revert
// to signal defaults rather than raising an error.
type Manager struct {
	mu sync.Mutex

	entries map[string]*entry

	// lru orders session ids by last access (front = most recent).
	lru *list.List

	config Config

	// baseline yields the static registry's component counter at session
	// creation time, keeping static and session component ids disjoint.
	baseline func() int

	logger *slog.Logger

	done   chan struct{}
	closed bool

	evicted uint64
}

type entry struct {
	store      *Store
	lastAccess time.Time
	elem       *list.Element
}

// NewManager creates a session store manager and starts its background
// sweep. baseline may be nil, in which case new stores start counting
// component ids from zero.
func NewManager(config Config, baseline func() int, logger *slog.Logger) *Manager {
	defaults := DefaultConfig()
	if config.TTL <= 0 {
		config.TTL = defaults.TTL
	}
	if config.MaxSessions <= 0 {
		config.MaxSessions = defaults.MaxSessions
	}
	if config.SweepInterval <= 0 {
		config.SweepInterval = defaults.SweepInterval
	}
	if logger == nil {
		logger = slog.Default()
	}

	m := &Manager{
		entries:  make(map[string]*entry),
		lru:      list.New(),
		config:   config,
		baseline: baseline,
		logger:   logger.With("component", "store_manager"),
		done:     make(chan struct{}),
	}

	go m.sweepLoop()

	return m
}

// GetOrCreate returns the store for the session id, creating a fresh one
// on miss or after expiry. Access refreshes the sliding TTL.
func (m *Manager) GetOrCreate(sessionID string) *Store {
	now := time.Now()

	m.mu.Lock()
	defer m.mu.Unlock()

	if e, ok := m.entries[sessionID]; ok {
		if now.Sub(e.lastAccess) <= m.config.TTL {
			e.lastAccess = now
			m.lru.MoveToFront(e.elem)
			return e.store
		}
		// Expired but not yet swept: treat as a miss.
		m.removeLocked(sessionID)
	}

	base := 0
	if m.baseline != nil {
		base = m.baseline()
	}

	e := &entry{
		store:      New(base),
		lastAccess: now,
	}
	e.elem = m.lru.PushFront(sessionID)
	m.entries[sessionID] = e

	for len(m.entries) > m.config.MaxSessions {
		m.evictOldestLocked()
	}

	m.logger.Debug("session store created",
		"session_id", sessionID,
		"baseline", base,
		"sessions", len(m.entries))

	return e.store
}

// Touch refreshes the TTL for a session without creating it.
func (m *Manager) Touch(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if e, ok := m.entries[sessionID]; ok {
		e.lastAccess = time.Now()
		m.lru.MoveToFront(e.elem)
	}
}

// EvictExpired removes every store idle for longer than the TTL.
// The background sweep calls this periodically; it is exported so hosts
// driving eviction lazily can call it themselves.
func (m *Manager) EvictExpired() int {
	now := time.Now()

	m.mu.Lock()
	defer m.mu.Unlock()

	var expired []string
	for id, e := range m.entries {
		if now.Sub(e.lastAccess) > m.config.TTL {
			expired = append(expired, id)
		}
	}
	for _, id := range expired {
		m.removeLocked(id)
	}

	if len(expired) > 0 {
		m.logger.Debug("evicted expired session stores",
			"count", len(expired),
			"remaining", len(m.entries))
	}

	return len(expired)
}

// Len returns the number of live session stores.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// Stats returns manager statistics.
func (m *Manager) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Stats{
		Sessions: len(m.entries),
		Evicted:  m.evicted,
	}
}

// Stats contains session store manager statistics.
type Stats struct {
	// Sessions is the number of live session stores.
	Sessions int

	// Evicted is the total number of stores evicted since start.
	Evicted uint64
}

// Close stops the background sweep. Existing stores remain readable.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return
	}
	m.closed = true
	close(m.done)
}

func (m *Manager) removeLocked(sessionID string) {
	e, ok := m.entries[sessionID]
	if !ok {
		return
	}
	delete(m.entries, sessionID)
	m.lru.Remove(e.elem)
	m.evicted++
}

func (m *Manager) evictOldestLocked() {
	back := m.lru.Back()
	if back == nil {
		return
	}
	id := back.Value.(string)
	m.removeLocked(id)
	m.logger.Debug("evicted session store",
		"session_id", id,
		"reason", "max_sessions_exceeded")
}

func (m *Manager) sweepLoop() {
	ticker := time.NewTicker(m.config.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.EvictExpired()
		case <-m.done:
			return
		}
	}
}
