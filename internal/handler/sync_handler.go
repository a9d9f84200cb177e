package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jne-ops/opsboard-api/internal/models"
	"github.com/jne-ops/opsboard-api/internal/service"
	syncengine "github.com/jne-ops/opsboard-api/internal/sync"
	appErrors "github.com/jne-ops/opsboard-api/pkg/errors"
	"github.com/jne-ops/opsboard-api/pkg/response"
)

// SyncHandler exposes the engine's status and the storage settings.
type SyncHandler struct {
	engine *syncengine.Engine
	auth   *service.AuthService
}

// NewSyncHandler constructs handler.
func NewSyncHandler(engine *syncengine.Engine, auth *service.AuthService) *SyncHandler {
	return &SyncHandler{engine: engine, auth: auth}
}

type syncStatusView struct {
	models.SyncStatus
	Severity models.SyncSeverity `json:"severity"`
}

// Status reports the current sync state without touching the remote.
func (h *SyncHandler) Status(c *gin.Context) {
	status := h.engine.Status()
	response.JSON(c, http.StatusOK, syncStatusView{SyncStatus: status, Severity: status.Severity()})
}

// Refresh forces a load cycle and reconciles the session against the
// freshly merged user list.
func (h *SyncHandler) Refresh(c *gin.Context) {
	status := h.engine.Load(c.Request.Context())
	h.auth.RefreshSession()
	response.JSON(c, http.StatusOK, syncStatusView{SyncStatus: status, Severity: status.Severity()})
}

// Settings returns the persisted storage preference.
func (h *SyncHandler) Settings(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.engine.Settings())
}

// UpdateSettings switches the storage backend and immediately loads from
// the new target.
func (h *SyncHandler) UpdateSettings(c *gin.Context) {
	var req models.StorageSettings
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid settings payload"))
		return
	}
	if !req.Mode.Valid() {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "unknown storage mode"))
		return
	}

	if err := h.engine.SetStorageMode(req.Mode, req.ScriptURL); err != nil {
		response.Error(c, err)
		return
	}

	status := h.engine.Load(c.Request.Context())
	h.auth.RefreshSession()
	response.JSON(c, http.StatusOK, syncStatusView{SyncStatus: status, Severity: status.Severity()})
}
