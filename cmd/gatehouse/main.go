package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gatehouse-hq/gatehouse/internal/access"
	"github.com/gatehouse-hq/gatehouse/internal/app"
	"github.com/gatehouse-hq/gatehouse/internal/grants"
	"github.com/gatehouse-hq/gatehouse/internal/groups"
	"github.com/gatehouse-hq/gatehouse/internal/observability"
	"github.com/gatehouse-hq/gatehouse/internal/orgs"
	"github.com/gatehouse-hq/gatehouse/internal/platform/cache"
	"github.com/gatehouse-hq/gatehouse/internal/platform/db"
	"github.com/gatehouse-hq/gatehouse/internal/roles"
	"github.com/gatehouse-hq/gatehouse/internal/shared"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN, cfg.PGMaxConns)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis unavailable, decisions will not be cached", slog.Any("error", err))
		redisClient = nil
	}
	defer func() {
		if redisClient == nil {
			return
		}
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	metrics := observability.NewMetrics()
	auditLogger := shared.NewAuditLogger(pool)
	orgRepo := orgs.NewRepository(pool)

	var decisionCache *access.DecisionCache
	if redisClient != nil {
		decisionCache = access.NewDecisionCache(redisClient, cfg.DecisionCacheTTL)
	}

	accessRepo := access.NewRepository(pool)
	accessService := access.NewService(accessRepo, decisionCache, metrics, logger)
	accessHandler := access.NewHandler(logger, accessService)

	rolesRepo := roles.NewRepository(pool)
	rolesService := roles.NewService(rolesRepo, orgRepo, auditLogger, decisionCache, logger)
	rolesHandler := roles.NewHandler(logger, rolesService)

	groupsRepo := groups.NewRepository(pool)
	groupsService := groups.NewService(groupsRepo, orgRepo, orgRepo, auditLogger, decisionCache, logger)
	groupsHandler := groups.NewHandler(logger, groupsService)

	grantsRepo := grants.NewRepository(pool)
	grantsService := grants.NewService(grantsRepo, orgRepo, auditLogger, decisionCache, logger)
	grantsHandler := grants.NewHandler(logger, grantsService)

	router := app.NewRouter(app.RouterParams{
		Logger:        logger,
		Config:        cfg,
		AccessHandler: accessHandler,
		RolesHandler:  rolesHandler,
		GroupsHandler: groupsHandler,
		GrantsHandler: grantsHandler,
		Pool:          pool,
		Metrics:       metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", slog.String("addr", cfg.AppAddr))
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown", slog.Any("error", err))
		}
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server failed", slog.Any("error", err))
			os.Exit(1)
		}
	}
	logger.Info("server stopped")
}
