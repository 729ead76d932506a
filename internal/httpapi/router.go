package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/dreamcraft-ai/dreamcraft/internal/common"
	"github.com/dreamcraft-ai/dreamcraft/internal/config"
	"github.com/dreamcraft-ai/dreamcraft/internal/httpapi/handlers"
	"github.com/dreamcraft-ai/dreamcraft/internal/httpapi/middleware"
	"github.com/dreamcraft-ai/dreamcraft/internal/store/rabbitmq"
	"github.com/dreamcraft-ai/dreamcraft/internal/store/redisstore"
)

func NewRouter(db *gorm.DB, cfg config.Config, rds *redisstore.Store, pub *rabbitmq.Publisher) (*gin.Engine, *handlers.Handler) {
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(gin.Logger())
	r.Use(middleware.Recovery())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Idempotency-Key", middleware.RequestIDHeader},
		ExposeHeaders:    []string{middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.NoRoute(func(c *gin.Context) {
		common.Fail(c, http.StatusNotFound, 40400, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		common.Fail(c, http.StatusMethodNotAllowed, 40500, "method not allowed")
	})

	r.Use(middleware.RequestID())

	h := handlers.NewHandler(db, cfg, rds, pub)

	r.GET("/ping", h.Ping)

	// stub identity: create-or-reuse by email, optional password
	r.POST("/auth/login", h.Login)

	// static catalog, no auth needed
	r.GET("/templates", h.ListTemplates)

	authGroup := r.Group("/")
	authGroup.Use(middleware.AuthRequired(cfg.JWTSecret))
	authGroup.POST("/auth/logout", h.Logout)
	authGroup.GET("/me", h.Me)

	authGroup.GET("/projects", h.ListProjects)
	authGroup.POST("/projects", h.CreateProject)
	authGroup.POST("/projects/from-template", h.CreateProjectFromTemplate)
	authGroup.GET("/projects/:id", h.GetProject)
	authGroup.PATCH("/projects/:id", h.UpdateProject)
	authGroup.POST("/projects/:id/save", h.SaveProject)
	authGroup.DELETE("/projects/:id", h.DeleteProject)
	authGroup.GET("/projects/:id/messages", h.ListProjectMessages)

	authGroup.POST("/projects/:id/revisions", h.CreateRevision)
	authGroup.POST("/projects/:id/revisions/async", h.CreateRevisionJob)
	authGroup.GET("/revisions/jobs/:job_id", h.GetRevisionJob)

	return r, h
}
