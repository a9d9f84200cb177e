package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jne-ops/opsboard-api/internal/service"
	"github.com/jne-ops/opsboard-api/pkg/response"
)

// LogHandler exposes the audit trail.
type LogHandler struct {
	board *service.BoardService
}

// NewLogHandler constructs handler.
func NewLogHandler(board *service.BoardService) *LogHandler {
	return &LogHandler{board: board}
}

// List returns validation log entries, newest first.
func (h *LogHandler) List(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.board.Logs())
}
