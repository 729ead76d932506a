package builder

import (
	"context"
	"sync"
	"time"

	"github.com/dreamcraft-ai/dreamcraft/internal/project"
)

// Manager tracks the open builder session per project. Sessions are created
// lazily on first edit and flushed on close or shutdown.
type Manager struct {
	svc      *project.Service
	debounce time.Duration

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewManager(svc *project.Service, debounce time.Duration) *Manager {
	return &Manager{
		svc:      svc,
		debounce: debounce,
		sessions: make(map[string]*Session),
	}
}

// Open returns the live session for a project, loading the record when none
// is open yet. Ownership is checked on load.
func (m *Manager) Open(ctx context.Context, userID uint64, projectID string) (*Session, error) {
	m.mu.Lock()
	if s, ok := m.sessions[projectID]; ok {
		m.mu.Unlock()
		return s, nil
	}
	m.mu.Unlock()

	p, err := m.svc.Get(ctx, userID, projectID)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[projectID]; ok {
		return s, nil
	}
	s := NewSession(m.svc, userID, p, m.debounce)
	m.sessions[projectID] = s
	return s, nil
}

// Peek returns the open session without loading, for read paths that want the
// freshest working copy.
func (m *Manager) Peek(projectID string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[projectID]
	return s, ok
}

// Close flushes and discards a project's session; no-op when none is open.
func (m *Manager) Close(ctx context.Context, projectID string) error {
	m.mu.Lock()
	s, ok := m.sessions[projectID]
	delete(m.sessions, projectID)
	m.mu.Unlock()
	if !ok {
		return nil
	}
	return s.Close(ctx)
}

// Discard drops a project's session without flushing; used when the project
// is being deleted and a deferred write would resurrect it.
func (m *Manager) Discard(projectID string) {
	m.mu.Lock()
	s, ok := m.sessions[projectID]
	delete(m.sessions, projectID)
	m.mu.Unlock()
	if ok {
		s.mu.Lock()
		s.closed = true
		s.stopTimerLocked()
		s.mu.Unlock()
	}
}

// CloseAll flushes every open session; called on shutdown.
func (m *Manager) CloseAll(ctx context.Context) {
	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	for _, s := range sessions {
		_ = s.Close(ctx)
	}
}
