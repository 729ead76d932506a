package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/dreamcraft-ai/dreamcraft/internal/common"
	"github.com/dreamcraft-ai/dreamcraft/internal/template"
)

func (h *Handler) ListProjects(c *gin.Context) {
	uid, ok := userIDFromContext(c)
	if !ok {
		common.Fail(c, http.StatusUnauthorized, 40101, "unauthorized")
		return
	}
	common.OK(c, gin.H{"projects": h.Projects.List(c.Request.Context(), uid)})
}

type createProjectReq struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func (h *Handler) CreateProject(c *gin.Context) {
	uid, ok := userIDFromContext(c)
	if !ok {
		common.Fail(c, http.StatusUnauthorized, 40101, "unauthorized")
		return
	}

	var req createProjectReq
	_ = c.ShouldBindJSON(&req) // allow empty {}

	p, persisted := h.Projects.Create(c.Request.Context(), uid, req.ID, req.Name)
	common.OK(c, gin.H{"project": p, "persisted": persisted})
}

type fromTemplateReq struct {
	TemplateID string `json:"template_id" binding:"required"`
}

// CreateProjectFromTemplate seeds a project from the catalog: placeholder
// code, empty history. The returned initial_prompt is submitted by the client
// as the first revision request.
func (h *Handler) CreateProjectFromTemplate(c *gin.Context) {
	uid, ok := userIDFromContext(c)
	if !ok {
		common.Fail(c, http.StatusUnauthorized, 40101, "unauthorized")
		return
	}

	var req fromTemplateReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}

	p, seed, err := h.Projects.CreateFromTemplate(c.Request.Context(), uid, req.TemplateID)
	if err != nil {
		common.Fail(c, http.StatusNotFound, 40402, "template not found")
		return
	}
	common.OK(c, gin.H{"project": p, "initial_prompt": seed})
}

func (h *Handler) GetProject(c *gin.Context) {
	uid, ok := userIDFromContext(c)
	if !ok {
		common.Fail(c, http.StatusUnauthorized, 40101, "unauthorized")
		return
	}
	id := c.Param("id")

	p, err := h.Projects.Get(c.Request.Context(), uid, id)
	if err != nil {
		common.Fail(c, http.StatusNotFound, 40403, "project not found")
		return
	}
	// an open builder session may hold unsaved edits newer than the store
	if s, open := h.Sessions.Peek(id); open {
		snap := s.Snapshot()
		p = &snap
	}

	history, _ := h.Projects.History(c.Request.Context(), uid, id)
	common.OK(c, gin.H{"project": p, "history": history})
}

type updateProjectReq struct {
	Name *string `json:"name"`
	Code *string `json:"code"`
}

// UpdateProject edits the working copy; the write lands via the debounced
// autosave rather than immediately.
func (h *Handler) UpdateProject(c *gin.Context) {
	uid, ok := userIDFromContext(c)
	if !ok {
		common.Fail(c, http.StatusUnauthorized, 40101, "unauthorized")
		return
	}

	var req updateProjectReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}

	s, err := h.Sessions.Open(c.Request.Context(), uid, c.Param("id"))
	if err != nil {
		common.Fail(c, http.StatusNotFound, 40403, "project not found")
		return
	}
	if req.Name != nil {
		s.SetName(*req.Name)
	}
	if req.Code != nil {
		s.SetCode(*req.Code)
	}
	common.OK(c, gin.H{"project": s.Snapshot()})
}

// SaveProject is the manual save: bypasses the debounce window.
func (h *Handler) SaveProject(c *gin.Context) {
	uid, ok := userIDFromContext(c)
	if !ok {
		common.Fail(c, http.StatusUnauthorized, 40101, "unauthorized")
		return
	}

	s, err := h.Sessions.Open(c.Request.Context(), uid, c.Param("id"))
	if err != nil {
		common.Fail(c, http.StatusNotFound, 40403, "project not found")
		return
	}
	persisted, err := s.Flush(c.Request.Context())
	if err != nil {
		common.Fail(c, http.StatusNotFound, 40403, "project not found")
		return
	}
	common.OK(c, gin.H{"persisted": persisted})
}

// DeleteProject is idempotent; deleting an absent id succeeds.
func (h *Handler) DeleteProject(c *gin.Context) {
	uid, ok := userIDFromContext(c)
	if !ok {
		common.Fail(c, http.StatusUnauthorized, 40101, "unauthorized")
		return
	}
	id := c.Param("id")

	// drop any open session first so a pending autosave cannot resurrect it
	h.Sessions.Discard(id)
	h.Projects.Delete(c.Request.Context(), uid, id)
	common.OK(c, nil)
}

func (h *Handler) ListProjectMessages(c *gin.Context) {
	uid, ok := userIDFromContext(c)
	if !ok {
		common.Fail(c, http.StatusUnauthorized, 40101, "unauthorized")
		return
	}
	id := c.Param("id")

	limit, _ := strconv.Atoi(c.Query("limit"))
	var beforeID uint64
	if v := c.Query("before_id"); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			beforeID = n
		}
	}

	msgs, err := h.Projects.HistoryPage(c.Request.Context(), uid, id, limit, beforeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			common.Fail(c, http.StatusNotFound, 40403, "project not found")
			return
		}
		common.Fail(c, http.StatusInternalServerError, 50002, "failed to list messages")
		return
	}

	var nextBeforeID uint64
	if len(msgs) > 0 {
		nextBeforeID = msgs[len(msgs)-1].ID
	}
	common.OK(c, gin.H{"messages": msgs, "next_before_id": nextBeforeID})
}

func (h *Handler) ListTemplates(c *gin.Context) {
	common.OK(c, gin.H{"templates": template.List()})
}
