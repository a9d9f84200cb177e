package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/jne-ops/opsboard-api/internal/audit"
	"github.com/jne-ops/opsboard-api/internal/cache"
	"github.com/jne-ops/opsboard-api/internal/handler"
	"github.com/jne-ops/opsboard-api/internal/models"
	"github.com/jne-ops/opsboard-api/internal/remote"
	"github.com/jne-ops/opsboard-api/internal/service"
	"github.com/jne-ops/opsboard-api/internal/session"
	syncengine "github.com/jne-ops/opsboard-api/internal/sync"
	"github.com/jne-ops/opsboard-api/pkg/config"
	"github.com/jne-ops/opsboard-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	var cachePort cache.Port
	switch cfg.Cache.Backend {
	case "redis":
		client, err := cache.NewRedisClient(cfg.Redis)
		if err != nil {
			logr.Sugar().Fatalw("failed to connect redis", "error", err)
		}
		defer client.Close() //nolint:errcheck
		cachePort = cache.NewRedisStore(client, logr)
	default:
		fileStore, err := cache.NewFileStore(cfg.Cache.DataDir, logr)
		if err != nil {
			logr.Sugar().Fatalw("failed to init file cache", "error", err)
		}
		cachePort = fileStore
	}

	probe := remote.NetProbe{Host: cfg.Sync.ProbeHost, Timeout: cfg.Sync.ProbeTimeout}
	metricsSvc := service.NewMetricsService()
	sessions := session.New(cachePort, logr)

	engine := syncengine.New(cfg.Sync, syncengine.Deps{
		Cache:      cachePort,
		Probe:      probe,
		Metrics:    metricsSvc,
		Logger:     logr,
		KnownUsers: models.DefaultAuthorizedUsers,
		StoreFactory: func(mode models.StorageMode, resolveScriptURL func() string) remote.Store {
			return remote.NewStore(mode, cfg.Sync, probe, resolveScriptURL, logr)
		},
		OnUsersChanged: sessions.Refresh,
	})

	appender := audit.New(sessions.ActorName, time.Now, uuid.NewString)

	authSvc := service.NewAuthService(engine, sessions, appender, nil, logr, service.AuthConfig{
		Secret:     cfg.JWT.Secret,
		Expiration: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	})
	boardSvc := service.NewBoardService(engine, appender, logr)
	exportSvc := service.NewExportService(engine)

	r := handler.NewRouter(cfg, logr, authSvc, metricsSvc, handler.Handlers{
		Auth:   handler.NewAuthHandler(authSvc),
		Jobs:   handler.NewJobHandler(boardSvc),
		Logs:   handler.NewLogHandler(boardSvc),
		Sync:   handler.NewSyncHandler(engine, authSvc),
		Export: handler.NewExportHandler(exportSvc, cfg.Export.Enabled),
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go engine.Run(ctx)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: r,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}
