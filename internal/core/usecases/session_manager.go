package usecases

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/samirrijal/geodraw/internal/core/domain"
	"github.com/samirrijal/geodraw/internal/core/ports"
)

// ErrTooManySessions is returned when the session limit is reached.
var ErrTooManySessions = errors.New("too many active draw sessions")

// ManagedSession is a draw session together with the surface it draws on.
type ManagedSession struct {
	ID      string
	Session *DrawSession
	Surface ports.EditableSurface

	lastUsed time.Time
}

// SessionManager owns the draw sessions of remote clients.
type SessionManager struct {
	mu         sync.Mutex
	sessions   map[string]*ManagedSession
	max        int
	newSurface func() ports.EditableSurface
	opts       []SessionOption
	now        func() time.Time
}

// NewSessionManager creates a manager holding at most max sessions. Every
// session gets a fresh surface from newSurface and is built with opts.
func NewSessionManager(max int, newSurface func() ports.EditableSurface, opts ...SessionOption) *SessionManager {
	if max <= 0 {
		max = 1000
	}
	return &SessionManager{
		sessions:   make(map[string]*ManagedSession),
		max:        max,
		newSurface: newSurface,
		opts:       opts,
		now:        time.Now,
	}
}

// Create starts a new session.
func (m *SessionManager) Create() (*ManagedSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.sessions) >= m.max {
		return nil, ErrTooManySessions
	}

	surface := m.newSurface()
	ms := &ManagedSession{
		ID:       uuid.NewString(),
		Session:  NewDrawSession(surface, m.opts...),
		Surface:  surface,
		lastUsed: m.now(),
	}
	m.sessions[ms.ID] = ms
	return ms, nil
}

// Get returns a session and marks it as used.
func (m *SessionManager) Get(id string) (*ManagedSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ms, ok := m.sessions[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	ms.lastUsed = m.now()
	return ms, nil
}

// Delete removes a session. Unknown ids are ignored.
func (m *SessionManager) Delete(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
}

func (m *SessionManager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// EvictIdle drops sessions unused for longer than maxIdle and returns how
// many were removed.
func (m *SessionManager) EvictIdle(maxIdle time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := m.now().Add(-maxIdle)
	n := 0
	for id, ms := range m.sessions {
		if ms.lastUsed.Before(cutoff) {
			delete(m.sessions, id)
			n++
		}
	}
	return n
}
