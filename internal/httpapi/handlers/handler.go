package handlers

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/dreamcraft-ai/dreamcraft/internal/ai"
	"github.com/dreamcraft-ai/dreamcraft/internal/builder"
	"github.com/dreamcraft-ai/dreamcraft/internal/common"
	"github.com/dreamcraft-ai/dreamcraft/internal/config"
	"github.com/dreamcraft-ai/dreamcraft/internal/httpapi/middleware"
	"github.com/dreamcraft-ai/dreamcraft/internal/project"
	"github.com/dreamcraft-ai/dreamcraft/internal/revision"
	"github.com/dreamcraft-ai/dreamcraft/internal/store/rabbitmq"
	"github.com/dreamcraft-ai/dreamcraft/internal/store/redisstore"
)

// JobPublisher enqueues revision jobs for the worker; *rabbitmq.Publisher
// satisfies it.
type JobPublisher interface {
	PublishJob(ctx context.Context, jobID string) error
}

type Handler struct {
	DB        *gorm.DB
	Cfg       config.Config
	Projects  *project.Service
	Engine    *revision.Engine
	Sessions  *builder.Manager
	Publisher JobPublisher // nil disables the async revision path
}

// NewRegistry wires the configured generation backends. Shared between the
// api and worker processes.
func NewRegistry(cfg config.Config) *ai.Registry {
	reg := ai.NewRegistry()
	reg.Register("ollama", func(ctx context.Context, model string) (ai.Provider, error) {
		m := strings.TrimSpace(model)
		if m == "" {
			m = cfg.OllamaModel
		}
		return ai.NewOllamaProvider(cfg.OllamaBaseURL, m), nil
	})
	reg.Register("openrouter", func(ctx context.Context, model string) (ai.Provider, error) {
		m := strings.TrimSpace(model)
		if m == "" {
			m = cfg.OpenRouterModel
		}
		return ai.NewOpenRouterProvider(cfg.OpenRouterBaseURL, cfg.OpenRouterAPIKey, m, cfg.OpenRouterSiteURL, cfg.OpenRouterAppName), nil
	})
	return reg
}

func NewHandler(db *gorm.DB, cfg config.Config, rds *redisstore.Store, pub *rabbitmq.Publisher) *Handler {
	repo := project.NewRepo(db)
	svc := project.NewService(repo)

	engine := revision.NewEngine(svc, revision.NewJobRepo(db), NewRegistry(cfg), cfg.AIProvider, "")
	if rds != nil {
		engine.UseSharedLocks(rds)
	}

	h := &Handler{
		DB:       db,
		Cfg:      cfg,
		Projects: svc,
		Engine:   engine,
		Sessions: builder.NewManager(svc, cfg.AutosaveDebounce),
	}
	// keep the interface nil when the concrete publisher is nil
	if pub != nil {
		h.Publisher = pub
	}
	return h
}

func (h *Handler) Ping(c *gin.Context) {
	common.OK(c, gin.H{"pong": true})
}

func userIDFromContext(c *gin.Context) (uint64, bool) {
	v, ok := c.Get(middleware.UserIDKey)
	if !ok {
		return 0, false
	}
	id, ok := v.(uint64)
	return id, ok
}
