package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jne-ops/opsboard-api/internal/models"
	"github.com/jne-ops/opsboard-api/internal/service"
	appErrors "github.com/jne-ops/opsboard-api/pkg/errors"
	"github.com/jne-ops/opsboard-api/pkg/response"
)

// JobHandler exposes the board's job CRUD endpoints.
type JobHandler struct {
	board *service.BoardService
}

// NewJobHandler constructs handler.
func NewJobHandler(board *service.BoardService) *JobHandler {
	return &JobHandler{board: board}
}

// List returns jobs, filterable by category and subCategory query params.
func (h *JobHandler) List(c *gin.Context) {
	jobs := h.board.Jobs(c.Query("category"), c.Query("subCategory"))
	response.JSON(c, http.StatusOK, jobs)
}

// Create validates and prepends a new job.
func (h *JobHandler) Create(c *gin.Context) {
	var job models.Job
	if err := c.ShouldBindJSON(&job); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid job payload"))
		return
	}

	created, err := h.board.AddJob(c.Request.Context(), job, actorEmail(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, created)
}

// Update replaces a job via the full edit form.
func (h *JobHandler) Update(c *gin.Context) {
	var job models.Job
	if err := c.ShouldBindJSON(&job); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid job payload"))
		return
	}

	updated, err := h.board.UpdateJob(c.Request.Context(), c.Param("id"), job)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, updated)
}

// Patch applies an inline status or deadline edit.
func (h *JobHandler) Patch(c *gin.Context) {
	var patch service.JobPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid patch payload"))
		return
	}

	updated, err := h.board.PatchJob(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, updated)
}

// Delete removes a job.
func (h *JobHandler) Delete(c *gin.Context) {
	if err := h.board.DeleteJob(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// BulkImport prepends a batch of jobs as one audited mutation.
func (h *JobHandler) BulkImport(c *gin.Context) {
	var payload struct {
		Jobs []models.Job `json:"jobs" binding:"required"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid import payload"))
		return
	}

	count, err := h.board.BulkImport(c.Request.Context(), payload.Jobs, actorEmail(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, gin.H{"imported": count})
}
