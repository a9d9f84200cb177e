package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/jne-ops/opsboard-api/internal/middleware"
	"github.com/jne-ops/opsboard-api/internal/service"
	"github.com/jne-ops/opsboard-api/pkg/config"
	"github.com/jne-ops/opsboard-api/pkg/logger"
	corsmiddleware "github.com/jne-ops/opsboard-api/pkg/middleware/cors"
	reqidmiddleware "github.com/jne-ops/opsboard-api/pkg/middleware/requestid"
)

// Handlers bundles the endpoint handlers the router mounts.
type Handlers struct {
	Auth   *AuthHandler
	Jobs   *JobHandler
	Logs   *LogHandler
	Sync   *SyncHandler
	Export *ExportHandler
}

// NewRouter assembles the gin engine: ambient middleware, the public auth
// and health endpoints, and the token-guarded board API.
func NewRouter(cfg *config.Config, logr *zap.Logger, authSvc *service.AuthService, metricsSvc *service.MetricsService, h Handlers) *gin.Engine {
	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	api := r.Group(cfg.APIPrefix)

	api.POST("/auth/login", h.Auth.Login)

	protected := api.Group("")
	protected.Use(middleware.JWT(authSvc))

	protected.POST("/auth/logout", h.Auth.Logout)
	protected.POST("/auth/change-password", h.Auth.ChangePassword)
	protected.POST("/auth/reset-password", h.Auth.ResetPassword)
	protected.GET("/auth/me", h.Auth.Me)

	protected.GET("/jobs", h.Jobs.List)
	protected.POST("/jobs", h.Jobs.Create)
	protected.PUT("/jobs/:id", h.Jobs.Update)
	protected.PATCH("/jobs/:id", h.Jobs.Patch)
	protected.DELETE("/jobs/:id", h.Jobs.Delete)
	protected.POST("/jobs/import", h.Jobs.BulkImport)

	protected.GET("/logs", h.Logs.List)

	protected.GET("/sync/status", h.Sync.Status)
	protected.POST("/sync/refresh", h.Sync.Refresh)
	protected.GET("/sync/settings", h.Sync.Settings)
	protected.PUT("/sync/settings", h.Sync.UpdateSettings)

	protected.GET("/exports/jobs.csv", h.Export.JobsCSV)
	protected.GET("/exports/jobs.pdf", h.Export.JobsPDF)
	protected.GET("/exports/logs.csv", h.Export.LogsCSV)

	return r
}
