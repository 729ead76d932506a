package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/dreamcraft-ai/dreamcraft/internal/common"
	"github.com/dreamcraft-ai/dreamcraft/internal/revision"
)

type revisionReq struct {
	Instruction string `json:"instruction" binding:"required"`
}

// CreateRevision runs one synchronous revision. On generation failure the
// project code is untouched and the error notice is already in the chat
// history; the client re-renders and may retry.
func (h *Handler) CreateRevision(c *gin.Context) {
	uid, ok := userIDFromContext(c)
	if !ok {
		common.Fail(c, http.StatusUnauthorized, 40101, "unauthorized")
		return
	}

	var req revisionReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}

	projectID := c.Param("id")
	out, err := h.Engine.Request(c.Request.Context(), uid, projectID, req.Instruction)
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			common.Fail(c, http.StatusNotFound, 40403, "project not found")
		case errors.Is(err, revision.ErrInFlight):
			common.Fail(c, http.StatusConflict, 40901, "a revision is already in progress")
		case errors.Is(err, revision.ErrEmptyInstruction):
			common.Fail(c, http.StatusBadRequest, 10003, "instruction required")
		default:
			common.Fail(c, http.StatusBadGateway, 50201, "generation failed, previous code is intact")
		}
		return
	}

	// keep any open builder session in step with the applied revision
	if s, open := h.Sessions.Peek(projectID); open {
		s.Refresh(out.Project)
	}

	common.OK(c, gin.H{
		"project":   out.Project,
		"message":   out.ResultMessage,
		"persisted": out.Persisted,
	})
}

// CreateRevisionJob queues the async form. An Idempotency-Key header makes
// retried submissions return the original job.
func (h *Handler) CreateRevisionJob(c *gin.Context) {
	uid, ok := userIDFromContext(c)
	if !ok {
		common.Fail(c, http.StatusUnauthorized, 40101, "unauthorized")
		return
	}
	if h.Publisher == nil {
		common.Fail(c, http.StatusServiceUnavailable, 50301, "async revisions are not configured")
		return
	}

	var req revisionReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}

	projectID := c.Param("id")
	if _, err := h.Projects.Get(c.Request.Context(), uid, projectID); err != nil {
		common.Fail(c, http.StatusNotFound, 40403, "project not found")
		return
	}

	job := &revision.Job{
		ID:          revision.NewJobID(),
		UserID:      uid,
		ProjectID:   projectID,
		Instruction: req.Instruction,
		Status:      revision.JobQueued,
	}
	if key := c.GetHeader("Idempotency-Key"); key != "" {
		job.IdempotencyKey = &key
	}

	job, created, err := h.Engine.CreateJob(c.Request.Context(), job)
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 50003, "failed to create job")
		return
	}
	// a job that is still queued gets (re)published: a retried submission
	// whose original publish failed would otherwise stay queued forever.
	// The worker ignores duplicate deliveries of an already-started job.
	if job.Status == revision.JobQueued {
		if err := h.Publisher.PublishJob(c.Request.Context(), job.ID); err != nil {
			common.Fail(c, http.StatusInternalServerError, 50004, "failed to enqueue job")
			return
		}
	}

	common.OK(c, gin.H{"job": job, "created": created})
}

func (h *Handler) GetRevisionJob(c *gin.Context) {
	uid, ok := userIDFromContext(c)
	if !ok {
		common.Fail(c, http.StatusUnauthorized, 40101, "unauthorized")
		return
	}

	job, err := h.Engine.GetJob(c.Request.Context(), c.Param("job_id"))
	if err != nil || job.UserID != uid {
		common.Fail(c, http.StatusNotFound, 40404, "job not found")
		return
	}
	common.OK(c, gin.H{"job": job})
}
