package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	gormsqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/dreamcraft-ai/dreamcraft/internal/ai"
	"github.com/dreamcraft-ai/dreamcraft/internal/builder"
	"github.com/dreamcraft-ai/dreamcraft/internal/config"
	"github.com/dreamcraft-ai/dreamcraft/internal/httpapi/middleware"
	"github.com/dreamcraft-ai/dreamcraft/internal/models"
	"github.com/dreamcraft-ai/dreamcraft/internal/project"
	"github.com/dreamcraft-ai/dreamcraft/internal/revision"
)

const testDoc = `<!DOCTYPE html>
<html>
<head><title>Test</title></head>
<body><h1>Hello from the generated test application</h1></body>
</html>`

type staticProvider struct {
	reply string
}

func (p *staticProvider) Chat(_ context.Context, _ []ai.Message) (string, error) {
	return p.reply, nil
}

func setupRouter(t *testing.T) (*gin.Engine, *Handler) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(gormsqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &project.Project{}, &project.ChatMessage{}, &revision.Job{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}

	cfg := config.Config{
		JWTSecret:        "test-secret",
		AutosaveDebounce: 20 * time.Millisecond,
	}

	svc := project.NewService(project.NewRepo(db))

	reg := ai.NewRegistry()
	reg.Register("fake", func(ctx context.Context, model string) (ai.Provider, error) {
		return &staticProvider{reply: "```html\n" + testDoc + "\n```"}, nil
	})
	engine := revision.NewEngine(svc, revision.NewJobRepo(db), reg, "fake", "")

	h := &Handler{
		DB:       db,
		Cfg:      cfg,
		Projects: svc,
		Engine:   engine,
		Sessions: builder.NewManager(svc, cfg.AutosaveDebounce),
	}

	r := gin.New()
	r.POST("/auth/login", h.Login)
	r.GET("/templates", h.ListTemplates)

	authGroup := r.Group("/")
	authGroup.Use(middleware.AuthRequired(cfg.JWTSecret))
	authGroup.GET("/me", h.Me)
	authGroup.GET("/projects", h.ListProjects)
	authGroup.POST("/projects", h.CreateProject)
	authGroup.POST("/projects/from-template", h.CreateProjectFromTemplate)
	authGroup.GET("/projects/:id", h.GetProject)
	authGroup.PATCH("/projects/:id", h.UpdateProject)
	authGroup.POST("/projects/:id/save", h.SaveProject)
	authGroup.DELETE("/projects/:id", h.DeleteProject)
	authGroup.POST("/projects/:id/revisions", h.CreateRevision)
	authGroup.POST("/projects/:id/revisions/async", h.CreateRevisionJob)
	authGroup.GET("/revisions/jobs/:job_id", h.GetRevisionJob)

	return r, h
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func do(t *testing.T, r *gin.Engine, method, path, token string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	var env envelope
	if err := json.Unmarshal(rr.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope: %v body=%s", err, rr.Body.String())
	}
	return rr, env
}

func login(t *testing.T, r *gin.Engine, email string) string {
	t.Helper()
	rr, env := do(t, r, http.MethodPost, "/auth/login", "", gin.H{"email": email})
	if rr.Code != http.StatusOK {
		t.Fatalf("login status %d: %s", rr.Code, rr.Body.String())
	}
	var data struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil || data.Token == "" {
		t.Fatalf("missing token: %s", env.Data)
	}
	return data.Token
}

func TestLogin_DerivesNameFromEmailLocalPart(t *testing.T) {
	r, _ := setupRouter(t)

	rr, env := do(t, r, http.MethodPost, "/auth/login", "", gin.H{"email": "a@b.com", "name": ""})
	if rr.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rr.Code, rr.Body.String())
	}
	var data struct {
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if data.Email != "a@b.com" || data.Name != "a" {
		t.Fatalf("expected derived name 'a', got %+v", data)
	}
}

func TestLogin_OptionalPasswordIsVerifiedOnReuse(t *testing.T) {
	r, _ := setupRouter(t)

	rr, _ := do(t, r, http.MethodPost, "/auth/login", "", gin.H{"email": "x@y.com", "password": "hunter2"})
	if rr.Code != http.StatusOK {
		t.Fatalf("first login status %d", rr.Code)
	}

	rr, _ = do(t, r, http.MethodPost, "/auth/login", "", gin.H{"email": "x@y.com", "password": "wrong"})
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for wrong password, got %d", rr.Code)
	}

	rr, _ = do(t, r, http.MethodPost, "/auth/login", "", gin.H{"email": "x@y.com", "password": "hunter2"})
	if rr.Code != http.StatusOK {
		t.Fatalf("correct password rejected: %d", rr.Code)
	}
}

func TestProjectLifecycle(t *testing.T) {
	r, _ := setupRouter(t)
	token := login(t, r, "dev@example.com")

	// create
	rr, env := do(t, r, http.MethodPost, "/projects", token, gin.H{"name": "My App"})
	if rr.Code != http.StatusOK {
		t.Fatalf("create status %d: %s", rr.Code, rr.Body.String())
	}
	var created struct {
		Project project.Project `json:"project"`
	}
	if err := json.Unmarshal(env.Data, &created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	id := created.Project.ID
	if id == "" {
		t.Fatalf("missing project id")
	}

	// rename through the working copy, then save manually
	rr, _ = do(t, r, http.MethodPatch, "/projects/"+id, token, gin.H{"name": "Renamed App"})
	if rr.Code != http.StatusOK {
		t.Fatalf("patch status %d", rr.Code)
	}
	rr, _ = do(t, r, http.MethodPost, "/projects/"+id+"/save", token, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("save status %d", rr.Code)
	}

	rr, env = do(t, r, http.MethodGet, "/projects/"+id, token, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("get status %d", rr.Code)
	}
	var got struct {
		Project project.Project `json:"project"`
	}
	if err := json.Unmarshal(env.Data, &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Project.Name != "Renamed App" {
		t.Fatalf("rename lost: %q", got.Project.Name)
	}

	// delete is idempotent
	rr, _ = do(t, r, http.MethodDelete, "/projects/"+id, token, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("delete status %d", rr.Code)
	}
	rr, _ = do(t, r, http.MethodDelete, "/projects/"+id, token, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("second delete status %d", rr.Code)
	}
	rr, _ = do(t, r, http.MethodGet, "/projects/"+id, token, nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", rr.Code)
	}
}

func TestCreateRevision_AppliesDocument(t *testing.T) {
	r, _ := setupRouter(t)
	token := login(t, r, "dev@example.com")

	_, env := do(t, r, http.MethodPost, "/projects/from-template", token, gin.H{"template_id": "landing-page"})
	var created struct {
		Project       project.Project `json:"project"`
		InitialPrompt string          `json:"initial_prompt"`
	}
	if err := json.Unmarshal(env.Data, &created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if created.InitialPrompt == "" {
		t.Fatalf("expected template seed instruction")
	}

	rr, env := do(t, r, http.MethodPost, "/projects/"+created.Project.ID+"/revisions", token,
		gin.H{"instruction": created.InitialPrompt})
	if rr.Code != http.StatusOK {
		t.Fatalf("revision status %d: %s", rr.Code, rr.Body.String())
	}
	var out struct {
		Project project.Project     `json:"project"`
		Message project.ChatMessage `json:"message"`
	}
	if err := json.Unmarshal(env.Data, &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Project.Code != testDoc {
		t.Fatalf("expected normalized document applied")
	}
	if out.Message.Role != project.RoleAssistant {
		t.Fatalf("expected assistant ack, got %q", out.Message.Role)
	}
}

type recordingPublisher struct {
	calls []string
	fail  bool
}

func (p *recordingPublisher) PublishJob(_ context.Context, jobID string) error {
	p.calls = append(p.calls, jobID)
	if p.fail {
		return errors.New("broker unavailable")
	}
	return nil
}

func TestCreateRevisionJob_RetryRepublishesQueuedJob(t *testing.T) {
	r, h := setupRouter(t)
	pub := &recordingPublisher{fail: true}
	h.Publisher = pub
	token := login(t, r, "dev@example.com")

	_, env := do(t, r, http.MethodPost, "/projects", token, gin.H{"name": "My App"})
	var created struct {
		Project project.Project `json:"project"`
	}
	if err := json.Unmarshal(env.Data, &created); err != nil {
		t.Fatalf("decode: %v", err)
	}

	body := gin.H{"instruction": "Build it"}
	path := "/projects/" + created.Project.ID + "/revisions/async"

	req := httptest.NewRequest(http.MethodPost, path, encodeBody(t, body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Idempotency-Key", "retry-1")
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("failed publish must surface an error, got %d", rr.Code)
	}

	// retry with the same key once the broker is back
	pub.fail = false
	req = httptest.NewRequest(http.MethodPost, path, encodeBody(t, body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Idempotency-Key", "retry-1")
	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("retry status %d: %s", rr.Code, rr.Body.String())
	}

	var retryEnv envelope
	if err := json.Unmarshal(rr.Body.Bytes(), &retryEnv); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	var data struct {
		Job     revision.Job `json:"job"`
		Created bool         `json:"created"`
	}
	if err := json.Unmarshal(retryEnv.Data, &data); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if data.Created {
		t.Fatalf("retry must reuse the existing job")
	}
	if len(pub.calls) != 2 || pub.calls[0] != pub.calls[1] {
		t.Fatalf("queued job must be republished on retry, calls=%v", pub.calls)
	}
	if data.Job.Status != revision.JobQueued {
		t.Fatalf("expected queued job, got %s", data.Job.Status)
	}
}

func encodeBody(t *testing.T, body any) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		t.Fatalf("encode body: %v", err)
	}
	return &buf
}

func TestTemplates_PublicCatalog(t *testing.T) {
	r, _ := setupRouter(t)

	rr, env := do(t, r, http.MethodGet, "/templates", "", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status %d", rr.Code)
	}
	var data struct {
		Templates []struct {
			ID string `json:"id"`
		} `json:"templates"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(data.Templates) == 0 {
		t.Fatalf("expected catalog entries")
	}
}

func TestAuthRequired(t *testing.T) {
	r, _ := setupRouter(t)

	rr, _ := do(t, r, http.MethodGet, "/projects", "", nil)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
}
