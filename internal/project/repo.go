package project

import (
	"context"
	"errors"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repo persists projects and their chat history. Storage failures never
// propagate past this boundary: a failed write parks the record in an
// in-memory overlay (reported as persisted=false) and reads merge the overlay
// back in, so callers always proceed with a working value. The overlay is
// process-local; concurrent writers to the same id are last-writer-wins with
// no merge.
type Repo struct {
	db *gorm.DB

	mu          sync.RWMutex
	projOverlay map[string]Project
	msgOverlay  map[string][]ChatMessage
}

func NewRepo(db *gorm.DB) *Repo {
	return &Repo{
		db:          db,
		projOverlay: make(map[string]Project),
		msgOverlay:  make(map[string][]ChatMessage),
	}
}

// Save upserts by id. LastModified is always stamped here, overriding any
// caller-supplied value. Returns false when the record only lives in memory.
func (r *Repo) Save(ctx context.Context, p *Project) bool {
	p.LastModified = time.Now()
	if err := r.db.WithContext(ctx).Save(p).Error; err != nil {
		log.Printf("project save degraded to memory id=%s err=%v", p.ID, err)
		r.mu.Lock()
		r.projOverlay[p.ID] = *p
		r.mu.Unlock()
		return false
	}
	r.mu.Lock()
	delete(r.projOverlay, p.ID)
	r.mu.Unlock()
	return true
}

// Get returns the project or gorm.ErrRecordNotFound. A storage read failure
// falls back to the overlay; with no overlay entry the record is reported
// absent rather than erroring.
func (r *Repo) Get(ctx context.Context, id string) (*Project, error) {
	var p Project
	err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error
	if err == nil {
		return &p, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Printf("project get degraded id=%s err=%v", id, err)
	}
	r.mu.RLock()
	ov, ok := r.projOverlay[id]
	r.mu.RUnlock()
	if ok {
		return &ov, nil
	}
	return nil, gorm.ErrRecordNotFound
}

// List returns a user's projects in storage order; callers sort for display.
func (r *Repo) List(ctx context.Context, userID uint64) []Project {
	var projects []Project
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Find(&projects).Error; err != nil {
		log.Printf("project list degraded user=%d err=%v", userID, err)
		projects = nil
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, ov := range r.projOverlay {
		if ov.UserID != userID {
			continue
		}
		replaced := false
		for i := range projects {
			if projects[i].ID == ov.ID {
				projects[i] = ov
				replaced = true
				break
			}
		}
		if !replaced {
			projects = append(projects, ov)
		}
	}
	return projects
}

// Delete removes a project and its messages. Deleting an absent id is a
// silent no-op; storage failures are swallowed after clearing the overlay.
func (r *Repo) Delete(ctx context.Context, id string) {
	if err := r.db.WithContext(ctx).Where("project_id = ?", id).Delete(&ChatMessage{}).Error; err != nil {
		log.Printf("message delete failed project=%s err=%v", id, err)
	}
	if err := r.db.WithContext(ctx).Delete(&Project{}, "id = ?", id).Error; err != nil {
		log.Printf("project delete failed id=%s err=%v", id, err)
	}
	r.mu.Lock()
	delete(r.projOverlay, id)
	delete(r.msgOverlay, id)
	r.mu.Unlock()
}

// AppendMessage appends to a project's history. History is append-only;
// nothing here ever rewrites past messages.
func (r *Repo) AppendMessage(ctx context.Context, m *ChatMessage) bool {
	if m.MessageID == "" {
		m.MessageID = uuid.NewString()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		log.Printf("message append degraded project=%s err=%v", m.ProjectID, err)
		r.mu.Lock()
		r.msgOverlay[m.ProjectID] = append(r.msgOverlay[m.ProjectID], *m)
		r.mu.Unlock()
		return false
	}
	return true
}

// ListMessages returns the full history oldest first. Overlay entries may
// predate rows persisted after storage recovered, so the merged result is
// ordered by append time rather than storage order.
func (r *Repo) ListMessages(ctx context.Context, projectID string) []ChatMessage {
	var msgs []ChatMessage
	if err := r.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("id ASC").
		Find(&msgs).Error; err != nil {
		log.Printf("message list degraded project=%s err=%v", projectID, err)
		msgs = nil
	}
	r.mu.RLock()
	msgs = append(msgs, r.msgOverlay[projectID]...)
	r.mu.RUnlock()
	sort.SliceStable(msgs, func(i, j int) bool {
		return msgs[i].CreatedAt.Before(msgs[j].CreatedAt)
	})
	return msgs
}

// ListMessagesPage returns messages in DESC id order (newest -> oldest) for
// cursor pagination.
func (r *Repo) ListMessagesPage(ctx context.Context, projectID string, limit int, beforeID uint64) []ChatMessage {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	q := r.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("id DESC").
		Limit(limit)
	if beforeID > 0 {
		q = q.Where("id < ?", beforeID)
	}
	var msgs []ChatMessage
	if err := q.Find(&msgs).Error; err != nil {
		log.Printf("message page degraded project=%s err=%v", projectID, err)
		return nil
	}
	return msgs
}

// CountMessages reports history length, including unpersisted overlay entries.
func (r *Repo) CountMessages(ctx context.Context, projectID string) int64 {
	var n int64
	if err := r.db.WithContext(ctx).
		Model(&ChatMessage{}).
		Where("project_id = ?", projectID).
		Count(&n).Error; err != nil {
		log.Printf("message count degraded project=%s err=%v", projectID, err)
		n = 0
	}
	r.mu.RLock()
	n += int64(len(r.msgOverlay[projectID]))
	r.mu.RUnlock()
	return n
}
