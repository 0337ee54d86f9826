// Package session keeps a bounded conversation history per session id.
//
// Sessions are serialized with one mutex per session so traffic on
// different sessions never contends. Expiry is checked lazily: reads
// treat an expired session as absent without touching its timestamps;
// the next write starts a fresh history in place.
package session

import (
	"sync"
	"time"

	"github.com/lai-labs/sales-assistant/internal/core/domain"
)

const (
	DefaultMaxTurns = 20
	DefaultTimeout  = 24 * time.Hour
)

type entry struct {
	mu      sync.Mutex
	session domain.Session
}

type Manager struct {
	maxTurns  int
	timeout   time.Duration
	snapshots *snapshotStore
	now       func() time.Time

	mu       sync.Mutex
	sessions map[string]*entry
}

type Option func(*Manager)

// WithSnapshotDir persists each session as a JSON snapshot under dir and
// reloads existing snapshots immediately.
func WithSnapshotDir(dir string) Option {
	return func(m *Manager) {
		m.snapshots = newSnapshotStore(dir)
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

func NewManager(maxTurns int, timeout time.Duration, options ...Option) *Manager {
	if maxTurns <= 0 {
		maxTurns = DefaultMaxTurns
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	m := &Manager{
		maxTurns: maxTurns,
		timeout:  timeout,
		now:      time.Now,
		sessions: make(map[string]*entry),
	}
	for _, option := range options {
		option(m)
	}
	if m.snapshots != nil {
		m.restoreSnapshots()
	}
	return m
}

func (m *Manager) GetOrCreate(sessionID string) *domain.Session {
	e := m.entryFor(sessionID)
	e.mu.Lock()
	defer e.mu.Unlock()

	m.resetIfExpired(e)
	e.session.LastActiveAt = m.now()
	return cloneSession(&e.session)
}

// Append adds one turn, refreshes activity and evicts the oldest turns
// beyond the bound before releasing the session lock.
func (m *Manager) Append(sessionID string, turn domain.SessionTurn) {
	e := m.entryFor(sessionID)
	e.mu.Lock()
	defer e.mu.Unlock()

	m.resetIfExpired(e)
	now := m.now()
	if turn.Timestamp.IsZero() {
		turn.Timestamp = now
	}
	e.session.Turns = append(e.session.Turns, turn)
	if excess := len(e.session.Turns) - m.maxTurns; excess > 0 {
		e.session.Turns = append([]domain.SessionTurn(nil), e.session.Turns[excess:]...)
	}
	e.session.LastActiveAt = now
	m.saveSnapshot(&e.session)
}

// Context returns the unexpired history, or an empty sequence for an
// unknown or expired session. It never errors and does not refresh the
// activity timestamp.
func (m *Manager) Context(sessionID string) []domain.SessionTurn {
	e := m.lookup(sessionID)
	if e == nil {
		return nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	if m.expired(&e.session) {
		return nil
	}
	return append([]domain.SessionTurn(nil), e.session.Turns...)
}

func (m *Manager) Clear(sessionID string) {
	e := m.lookup(sessionID)
	if e == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	e.session.Turns = nil
	e.session.LastActiveAt = m.now()
	m.saveSnapshot(&e.session)
}

func (m *Manager) Info(sessionID string) domain.SessionInfo {
	e := m.lookup(sessionID)
	if e == nil {
		return domain.SessionInfo{}
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	if m.expired(&e.session) {
		return domain.SessionInfo{}
	}
	return domain.SessionInfo{
		Exists:       true,
		CreatedAt:    e.session.CreatedAt,
		LastActiveAt: e.session.LastActiveAt,
		TurnCount:    len(e.session.Turns),
	}
}

// Sweep drops expired sessions from the map. Lazy expiry makes this
// optional; it only bounds memory for long-running processes.
func (m *Manager) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for id, e := range m.sessions {
		e.mu.Lock()
		if m.expired(&e.session) {
			m.removeSnapshot(id)
			delete(m.sessions, id)
			removed++
		}
		e.mu.Unlock()
	}
	return removed
}

func (m *Manager) entryFor(sessionID string) *entry {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.sessions[sessionID]
	if !ok {
		now := m.now()
		e = &entry{session: domain.Session{
			ID:           sessionID,
			CreatedAt:    now,
			LastActiveAt: now,
		}}
		m.sessions[sessionID] = e
	}
	return e
}

func (m *Manager) lookup(sessionID string) *entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessions[sessionID]
}

func (m *Manager) expired(s *domain.Session) bool {
	return m.now().Sub(s.LastActiveAt) > m.timeout
}

// resetIfExpired starts a fresh history in place; the stale one is never
// resumed. Caller holds the entry lock.
func (m *Manager) resetIfExpired(e *entry) {
	if !m.expired(&e.session) {
		return
	}
	m.removeSnapshot(e.session.ID)
	now := m.now()
	e.session = domain.Session{
		ID:           e.session.ID,
		CreatedAt:    now,
		LastActiveAt: now,
	}
}

func cloneSession(s *domain.Session) *domain.Session {
	out := *s
	out.Turns = append([]domain.SessionTurn(nil), s.Turns...)
	return &out
}
