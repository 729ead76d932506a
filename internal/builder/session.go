// Package builder holds the in-memory working copy of a project being edited
// and its debounced autosave.
package builder

import (
	"context"
	"sync"
	"time"

	"github.com/dreamcraft-ai/dreamcraft/internal/project"
)

// Saver is the snapshot write target. *project.Service satisfies it.
type Saver interface {
	Save(ctx context.Context, userID uint64, p *project.Project) (bool, error)
}

// Session owns one working copy and a single cancel-and-restart autosave
// timer: every mutation re-arms the window, so rapid edits coalesce into one
// write. Manual Flush bypasses the window. A mutation still inside the window
// when the process exits may be lost.
type Session struct {
	saver    Saver
	userID   uint64
	debounce time.Duration

	mu     sync.Mutex
	proj   project.Project
	timer  *time.Timer
	dirty  bool
	closed bool
}

func NewSession(saver Saver, userID uint64, p *project.Project, debounce time.Duration) *Session {
	if debounce <= 0 {
		debounce = 2 * time.Second
	}
	return &Session{
		saver:    saver,
		userID:   userID,
		debounce: debounce,
		proj:     *p,
	}
}

// SetCode replaces the working copy's code artifact.
func (s *Session) SetCode(code string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.proj.Code == code {
		return
	}
	s.proj.Code = code
	s.touchLocked()
}

// SetName renames the working copy.
func (s *Session) SetName(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || name == "" || s.proj.Name == name {
		return
	}
	s.proj.Name = name
	s.touchLocked()
}

// Refresh replaces the working copy after an out-of-band mutation (a revision
// applied through the engine) without scheduling another write.
func (s *Session) Refresh(p *project.Project) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.proj = *p
	s.dirty = false
	s.stopTimerLocked()
}

// Touch re-arms the autosave window without changing the copy; used when the
// chat history grows so the snapshot's LastModified tracks activity.
func (s *Session) Touch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.touchLocked()
}

// touchLocked cancels and restarts the single-shot timer. Timers are never
// stacked.
func (s *Session) touchLocked() {
	s.dirty = true
	s.stopTimerLocked()
	s.timer = time.AfterFunc(s.debounce, func() {
		_, _ = s.Flush(context.Background())
	})
}

func (s *Session) stopTimerLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

// Flush writes the snapshot immediately, cancelling any pending timer. It is
// a no-op when nothing changed since the last write.
func (s *Session) Flush(ctx context.Context) (bool, error) {
	s.mu.Lock()
	s.stopTimerLocked()
	if !s.dirty {
		s.mu.Unlock()
		return true, nil
	}
	snapshot := s.proj
	s.dirty = false
	s.mu.Unlock()

	persisted, err := s.saver.Save(ctx, s.userID, &snapshot)

	s.mu.Lock()
	// carry the store's LastModified stamp back into the working copy
	if err == nil && !s.closed {
		s.proj.LastModified = snapshot.LastModified
	}
	s.mu.Unlock()
	return persisted, err
}

// Close flushes and permanently stops the session.
func (s *Session) Close(ctx context.Context) error {
	_, err := s.Flush(ctx)
	s.mu.Lock()
	s.closed = true
	s.stopTimerLocked()
	s.mu.Unlock()
	return err
}

// Snapshot returns a copy of the current working state.
func (s *Session) Snapshot() project.Project {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.proj
}
