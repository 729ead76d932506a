package project

import (
	"context"
	"sort"

	"gorm.io/gorm"

	"github.com/dreamcraft-ai/dreamcraft/internal/template"
)

const defaultProjectName = "Untitled Project"

type Service struct {
	repo *Repo
}

func NewService(repo *Repo) *Service {
	return &Service{repo: repo}
}

// Create starts a blank project: placeholder code, empty history.
func (s *Service) Create(ctx context.Context, userID uint64, id, name string) (*Project, bool) {
	if id == "" {
		id = NewID()
	}
	if name == "" {
		name = defaultProjectName
	}
	p := &Project{
		ID:     id,
		UserID: userID,
		Name:   name,
		Code:   template.InitialCode,
	}
	persisted := s.repo.Save(ctx, p)
	return p, persisted
}

// CreateFromTemplate starts a project seeded from a catalog entry and returns
// the template's initial prompt, which the client submits as the first
// revision before any user-typed message exists.
func (s *Service) CreateFromTemplate(ctx context.Context, userID uint64, templateID string) (*Project, string, error) {
	tpl, ok := template.Get(templateID)
	if !ok {
		return nil, "", gorm.ErrRecordNotFound
	}
	tid := tpl.ID
	p := &Project{
		ID:         NewID(),
		UserID:     userID,
		Name:       tpl.Name,
		Code:       template.InitialCode,
		TemplateID: &tid,
	}
	s.repo.Save(ctx, p)
	return p, tpl.InitialPrompt, nil
}

// List returns the user's projects sorted by LastModified descending.
func (s *Service) List(ctx context.Context, userID uint64) []Project {
	projects := s.repo.List(ctx, userID)
	sort.Slice(projects, func(i, j int) bool {
		return projects[i].LastModified.After(projects[j].LastModified)
	})
	return projects
}

// Get returns the project if it exists and belongs to userID; ownership
// mismatches are indistinguishable from absence.
func (s *Service) Get(ctx context.Context, userID uint64, id string) (*Project, error) {
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.UserID != userID {
		return nil, gorm.ErrRecordNotFound
	}
	return p, nil
}

// Save writes a working-copy snapshot. The repo restamps LastModified.
func (s *Service) Save(ctx context.Context, userID uint64, p *Project) (bool, error) {
	if _, err := s.Get(ctx, userID, p.ID); err != nil {
		return false, err
	}
	return s.repo.Save(ctx, p), nil
}

// Rename updates the project name only.
func (s *Service) Rename(ctx context.Context, userID uint64, id, name string) (*Project, error) {
	p, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	p.Name = name
	s.repo.Save(ctx, p)
	return p, nil
}

// Delete is idempotent: absent ids and foreign ids are silent no-ops.
func (s *Service) Delete(ctx context.Context, userID uint64, id string) {
	p, err := s.repo.Get(ctx, id)
	if err != nil || p.UserID != userID {
		return
	}
	s.repo.Delete(ctx, id)
}

// History returns the full chat history oldest first.
func (s *Service) History(ctx context.Context, userID uint64, id string) ([]ChatMessage, error) {
	if _, err := s.Get(ctx, userID, id); err != nil {
		return nil, err
	}
	return s.repo.ListMessages(ctx, id), nil
}

// HistoryPage returns a newest-first page for cursor pagination.
func (s *Service) HistoryPage(ctx context.Context, userID uint64, id string, limit int, beforeID uint64) ([]ChatMessage, error) {
	if _, err := s.Get(ctx, userID, id); err != nil {
		return nil, err
	}
	return s.repo.ListMessagesPage(ctx, id, limit, beforeID), nil
}

func (s *Service) Repo() *Repo { return s.repo }
