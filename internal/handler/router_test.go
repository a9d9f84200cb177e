package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jne-ops/opsboard-api/internal/audit"
	"github.com/jne-ops/opsboard-api/internal/models"
	"github.com/jne-ops/opsboard-api/internal/service"
	"github.com/jne-ops/opsboard-api/internal/session"
	syncengine "github.com/jne-ops/opsboard-api/internal/sync"
	"github.com/jne-ops/opsboard-api/pkg/config"
)

type memoryPort struct {
	data     *models.AppData
	session  *models.User
	settings *models.StorageSettings
}

func (m *memoryPort) ReadData() (*models.AppData, error) {
	if m.data == nil {
		return nil, nil
	}
	return m.data.Clone(), nil
}

func (m *memoryPort) WriteData(data *models.AppData) error {
	m.data = data.Clone()
	return nil
}

func (m *memoryPort) ReadSession() (*models.User, error) { return m.session, nil }

func (m *memoryPort) WriteSession(user *models.User) error {
	u := *user
	m.session = &u
	return nil
}

func (m *memoryPort) ClearSession() error {
	m.session = nil
	return nil
}

func (m *memoryPort) ReadSettings() (*models.StorageSettings, error) { return m.settings, nil }

func (m *memoryPort) WriteSettings(settings models.StorageSettings) error {
	m.settings = &settings
	return nil
}

func buildBoardRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		Env:       config.EnvDevelopment,
		APIPrefix: "/api/v1",
		Sync:      config.SyncConfig{DefaultMode: "LOCAL"},
		JWT:       config.JWTConfig{Secret: "test-secret", Expiration: time.Hour, Issuer: "opsboard-test"},
		Export:    config.ExportConfig{Enabled: true},
	}

	port := &memoryPort{}
	engine := syncengine.New(cfg.Sync, syncengine.Deps{Cache: port})
	sessions := session.New(port, nil)
	appender := audit.New(sessions.ActorName, time.Now, func() string { return "log-1" })

	metricsSvc := service.NewMetricsService()
	authSvc := service.NewAuthService(engine, sessions, appender, nil, nil, service.AuthConfig{
		Secret:     cfg.JWT.Secret,
		Expiration: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	})
	boardSvc := service.NewBoardService(engine, appender, nil)
	exportSvc := service.NewExportService(engine)

	return NewRouter(cfg, zap.NewNop(), authSvc, metricsSvc, Handlers{
		Auth:   NewAuthHandler(authSvc),
		Jobs:   NewJobHandler(boardSvc),
		Logs:   NewLogHandler(boardSvc),
		Sync:   NewSyncHandler(engine, authSvc),
		Export: NewExportHandler(exportSvc, cfg.Export.Enabled),
	})
}

func performRequest(router *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func loginAs(t *testing.T, router *gin.Engine, email, password string) string {
	t.Helper()
	body, _ := json.Marshal(models.LoginRequest{Email: email, Password: password})
	req, _ := http.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp := performRequest(router, req)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var envelope struct {
		Data models.LoginResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	require.NotEmpty(t, envelope.Data.AccessToken)
	return envelope.Data.AccessToken
}

func authed(req *http.Request, token string) *http.Request {
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func TestRouterHealth(t *testing.T) {
	router := buildBoardRouter(t)
	req, _ := http.NewRequest(http.MethodGet, "/health", nil)
	resp := performRequest(router, req)
	require.Equal(t, http.StatusOK, resp.Code)
}

func TestRouterRejectsMissingToken(t *testing.T) {
	router := buildBoardRouter(t)
	req, _ := http.NewRequest(http.MethodGet, "/api/v1/jobs", nil)
	resp := performRequest(router, req)
	require.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestRouterJobLifecycle(t *testing.T) {
	router := buildBoardRouter(t)
	token := loginAs(t, router, "admin@jne.co.id", "admin123")

	body, _ := json.Marshal(models.Job{
		Category:   "Regular",
		JobType:    "Rekonsiliasi COD",
		DateInput:  "2024-05-01",
		BranchDept: "JKT",
	})
	req, _ := http.NewRequest(http.MethodPost, "/api/v1/jobs", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp := performRequest(router, authed(req, token))
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())

	var created struct {
		Data models.Job `json:"data"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &created))
	require.NotEmpty(t, created.Data.ID)

	req, _ = http.NewRequest(http.MethodGet, "/api/v1/jobs?category=Regular", nil)
	resp = performRequest(router, authed(req, token))
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "Rekonsiliasi COD")

	patch, _ := json.Marshal(map[string]string{"status": "In Progress"})
	req, _ = http.NewRequest(http.MethodPatch, "/api/v1/jobs/"+created.Data.ID, bytes.NewReader(patch))
	req.Header.Set("Content-Type", "application/json")
	resp = performRequest(router, authed(req, token))
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	assert.Contains(t, resp.Body.String(), "In Progress")

	req, _ = http.NewRequest(http.MethodGet, "/api/v1/logs", nil)
	resp = performRequest(router, authed(req, token))
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "Mengubah status")

	req, _ = http.NewRequest(http.MethodDelete, "/api/v1/jobs/"+created.Data.ID, nil)
	resp = performRequest(router, authed(req, token))
	require.Equal(t, http.StatusNoContent, resp.Code)
}

func TestRouterSyncStatusAndSettings(t *testing.T) {
	router := buildBoardRouter(t)
	token := loginAs(t, router, "admin@jne.co.id", "admin123")

	req, _ := http.NewRequest(http.MethodGet, "/api/v1/sync/status", nil)
	resp := performRequest(router, authed(req, token))
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"mode":"LOCAL"`)

	req, _ = http.NewRequest(http.MethodPost, "/api/v1/sync/refresh", nil)
	resp = performRequest(router, authed(req, token))
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"connectionError":false`)
	assert.Contains(t, resp.Body.String(), `"severity":"ok"`)

	bad, _ := json.Marshal(map[string]string{"mode": "FTP"})
	req, _ = http.NewRequest(http.MethodPut, "/api/v1/sync/settings", bytes.NewReader(bad))
	req.Header.Set("Content-Type", "application/json")
	resp = performRequest(router, authed(req, token))
	require.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestRouterResetPasswordRequiresAdmin(t *testing.T) {
	router := buildBoardRouter(t)
	token := loginAs(t, router, "ops1@jne.co.id", "jne2024")

	body, _ := json.Marshal(models.ResetPasswordRequest{Email: "ops2@jne.co.id"})
	req, _ := http.NewRequest(http.MethodPost, "/api/v1/auth/reset-password", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp := performRequest(router, authed(req, token))
	require.Equal(t, http.StatusForbidden, resp.Code)
}

func TestRouterExportsCSV(t *testing.T) {
	router := buildBoardRouter(t)
	token := loginAs(t, router, "admin@jne.co.id", "admin123")

	req, _ := http.NewRequest(http.MethodGet, "/api/v1/exports/jobs.csv", nil)
	resp := performRequest(router, authed(req, token))
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Header().Get("Content-Disposition"), "attachment")
}
