package project

import (
	"context"
	"testing"
	"time"

	gormsqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/dreamcraft-ai/dreamcraft/internal/template"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(gormsqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&Project{}, &ChatMessage{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func TestSave_StampsLastModifiedMonotonically(t *testing.T) {
	repo := NewRepo(openTestDB(t))
	ctx := context.Background()

	p := &Project{ID: NewID(), UserID: 1, Name: "App", Code: template.InitialCode}
	if !repo.Save(ctx, p) {
		t.Fatalf("expected persisted save")
	}
	first := p.LastModified

	// caller-supplied timestamps are overridden by the store
	p.LastModified = time.Now().Add(-time.Hour)
	p.Name = "Renamed"
	time.Sleep(2 * time.Millisecond)
	repo.Save(ctx, p)

	got, err := repo.Get(ctx, p.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Name != "Renamed" {
		t.Fatalf("expected upsert, got name=%q", got.Name)
	}
	if !got.LastModified.After(first) {
		t.Fatalf("LastModified must be refreshed: first=%v got=%v", first, got.LastModified)
	}
}

func TestDelete_IsIdempotentAndScoped(t *testing.T) {
	repo := NewRepo(openTestDB(t))
	ctx := context.Background()

	keep := &Project{ID: NewID(), UserID: 1, Name: "Keep", Code: template.InitialCode}
	gone := &Project{ID: NewID(), UserID: 1, Name: "Gone", Code: template.InitialCode}
	repo.Save(ctx, keep)
	repo.Save(ctx, gone)
	repo.AppendMessage(ctx, &ChatMessage{ProjectID: gone.ID, Role: RoleUser, Content: "hello"})

	repo.Delete(ctx, gone.ID)
	// absent id: silent no-op
	repo.Delete(ctx, "01NOTAREALPROJECTID0000000")
	repo.Delete(ctx, gone.ID)

	if _, err := repo.Get(ctx, gone.ID); err == nil {
		t.Fatalf("deleted project still present")
	}
	if msgs := repo.ListMessages(ctx, gone.ID); len(msgs) != 0 {
		t.Fatalf("deleted project messages remain: %d", len(msgs))
	}
	if _, err := repo.Get(ctx, keep.ID); err != nil {
		t.Fatalf("unrelated project affected: %v", err)
	}
}

func TestAppendMessage_PreservesInsertionOrder(t *testing.T) {
	repo := NewRepo(openTestDB(t))
	ctx := context.Background()

	p := &Project{ID: NewID(), UserID: 1, Name: "App", Code: template.InitialCode}
	repo.Save(ctx, p)

	contents := []string{"first", "second", "third"}
	for _, content := range contents {
		if !repo.AppendMessage(ctx, &ChatMessage{ProjectID: p.ID, Role: RoleUser, Content: content}) {
			t.Fatalf("append %q not persisted", content)
		}
	}

	msgs := repo.ListMessages(ctx, p.ID)
	if len(msgs) != len(contents) {
		t.Fatalf("expected %d messages, got %d", len(contents), len(msgs))
	}
	for i, content := range contents {
		if msgs[i].Content != content {
			t.Fatalf("order broken at %d: got %q", i, msgs[i].Content)
		}
		if msgs[i].MessageID == "" {
			t.Fatalf("message id not assigned")
		}
	}
}

func TestListMessages_OverlayMergedByAppendTime(t *testing.T) {
	repo := NewRepo(openTestDB(t))
	ctx := context.Background()

	p := &Project{ID: NewID(), UserID: 1, Name: "App", Code: template.InitialCode}
	repo.Save(ctx, p)

	// a message parked in memory during a storage outage, appended before the
	// rows that persisted once storage recovered
	parked := ChatMessage{
		MessageID: "parked-message",
		ProjectID: p.ID,
		Role:      RoleUser,
		Content:   "written while storage was down",
		CreatedAt: time.Now().Add(-time.Minute),
	}
	repo.mu.Lock()
	repo.msgOverlay[p.ID] = append(repo.msgOverlay[p.ID], parked)
	repo.mu.Unlock()

	repo.AppendMessage(ctx, &ChatMessage{ProjectID: p.ID, Role: RoleAssistant, Content: "persisted later"})

	msgs := repo.ListMessages(ctx, p.ID)
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	if msgs[0].Content != "written while storage was down" || msgs[1].Content != "persisted later" {
		t.Fatalf("append order broken: %q then %q", msgs[0].Content, msgs[1].Content)
	}
}

func TestSave_DegradesToMemoryOnStorageFailure(t *testing.T) {
	db := openTestDB(t)
	repo := NewRepo(db)
	ctx := context.Background()

	p := &Project{ID: NewID(), UserID: 1, Name: "App", Code: template.InitialCode}
	if !repo.Save(ctx, p) {
		t.Fatalf("initial save should persist")
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("raw db: %v", err)
	}
	if err := sqlDB.Close(); err != nil {
		t.Fatalf("close db: %v", err)
	}

	p.Name = "Edited while storage is down"
	if repo.Save(ctx, p) {
		t.Fatalf("save must report not persisted when storage fails")
	}

	// the caller still proceeds with the in-memory value
	got, err := repo.Get(ctx, p.ID)
	if err != nil {
		t.Fatalf("get after degraded save: %v", err)
	}
	if got.Name != "Edited while storage is down" {
		t.Fatalf("expected overlay value, got %q", got.Name)
	}

	if projects := repo.List(ctx, 1); len(projects) != 1 {
		t.Fatalf("overlay project missing from list: %d", len(projects))
	}
}

func TestService_ListSortsByLastModifiedDesc(t *testing.T) {
	svc := NewService(NewRepo(openTestDB(t)))
	ctx := context.Background()

	old, _ := svc.Create(ctx, 1, "", "Old")
	time.Sleep(2 * time.Millisecond)
	recent, _ := svc.Create(ctx, 1, "", "Recent")
	// another user's projects are invisible
	svc.Create(ctx, 2, "", "Foreign")

	projects := svc.List(ctx, 1)
	if len(projects) != 2 {
		t.Fatalf("expected 2 projects, got %d", len(projects))
	}
	if projects[0].ID != recent.ID || projects[1].ID != old.ID {
		t.Fatalf("expected most recent first")
	}
}

func TestService_OwnershipIndistinguishableFromAbsence(t *testing.T) {
	svc := NewService(NewRepo(openTestDB(t)))
	ctx := context.Background()

	p, _ := svc.Create(ctx, 1, "", "Mine")

	if _, err := svc.Get(ctx, 2, p.ID); err == nil {
		t.Fatalf("foreign user must not see the project")
	}

	// foreign delete is a no-op, not an error
	svc.Delete(ctx, 2, p.ID)
	if _, err := svc.Get(ctx, 1, p.ID); err != nil {
		t.Fatalf("foreign delete removed the project: %v", err)
	}
}

func TestService_CreateFromTemplate(t *testing.T) {
	svc := NewService(NewRepo(openTestDB(t)))
	ctx := context.Background()

	p, seed, err := svc.CreateFromTemplate(ctx, 1, "landing-page")
	if err != nil {
		t.Fatalf("create from template: %v", err)
	}
	if p.Name != "Landing Page" {
		t.Fatalf("unexpected name %q", p.Name)
	}
	if !template.IsInitialCode(p.Code) {
		t.Fatalf("expected placeholder document")
	}
	if p.TemplateID == nil || *p.TemplateID != "landing-page" {
		t.Fatalf("template id not recorded")
	}
	if seed == "" {
		t.Fatalf("expected seed instruction")
	}
	if history, _ := svc.History(ctx, 1, p.ID); len(history) != 0 {
		t.Fatalf("expected empty history")
	}

	if _, _, err := svc.CreateFromTemplate(ctx, 1, "no-such-template"); err == nil {
		t.Fatalf("unknown template must fail")
	}
}
