package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jne-ops/opsboard-api/internal/service"
	appErrors "github.com/jne-ops/opsboard-api/pkg/errors"
	"github.com/jne-ops/opsboard-api/pkg/response"
)

// ExportHandler serves board exports as file downloads.
type ExportHandler struct {
	exports *service.ExportService
	enabled bool
}

// NewExportHandler constructs handler.
func NewExportHandler(exports *service.ExportService, enabled bool) *ExportHandler {
	return &ExportHandler{exports: exports, enabled: enabled}
}

// JobsCSV streams the job board as CSV.
func (h *ExportHandler) JobsCSV(c *gin.Context) {
	h.serve(c, "text/csv", "jobs", "csv", h.exports.JobsCSV)
}

// JobsPDF streams the job board as a landscape PDF.
func (h *ExportHandler) JobsPDF(c *gin.Context) {
	h.serve(c, "application/pdf", "jobs", "pdf", h.exports.JobsPDF)
}

// LogsCSV streams the audit trail as CSV.
func (h *ExportHandler) LogsCSV(c *gin.Context) {
	h.serve(c, "text/csv", "validation-logs", "csv", h.exports.LogsCSV)
}

func (h *ExportHandler) serve(c *gin.Context, mimeType, name, ext string, render func() ([]byte, error)) {
	if !h.enabled {
		response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "exports are disabled"))
		return
	}

	payload, err := render()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, http.StatusInternalServerError, "export failed"))
		return
	}

	filename := fmt.Sprintf("%s-%s.%s", name, time.Now().UTC().Format("20060102"), ext)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", filename))
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, mimeType, payload)
}
