package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/atlas-admin/atlas-admin/internal/app"
	"github.com/atlas-admin/atlas-admin/internal/audit"
	"github.com/atlas-admin/atlas-admin/internal/auth"
	"github.com/atlas-admin/atlas-admin/internal/observability"
	"github.com/atlas-admin/atlas-admin/internal/permissions"
	"github.com/atlas-admin/atlas-admin/internal/platform/db"
	"github.com/atlas-admin/atlas-admin/internal/rbac"
	"github.com/atlas-admin/atlas-admin/internal/roles"
	"github.com/atlas-admin/atlas-admin/internal/shared"
	"github.com/atlas-admin/atlas-admin/internal/users"
	"github.com/atlas-admin/atlas-admin/jobs"
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

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Warn("redis ping", slog.Any("error", err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, "atlas_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)
	metrics := observability.NewMetrics()

	authRepo := auth.NewRepository(dbpool)
	authService := auth.NewService(authRepo)
	authHandler := auth.NewHandler(logger, authService, sessionManager, csrfManager, metrics)

	auditLogger := shared.NewAuditLogger(dbpool)

	rbacStore := rbac.NewStore(dbpool)
	rbacEngine := rbac.NewEngine(rbacStore)
	rbacMiddleware := rbac.Middleware{Engine: rbacEngine, Logger: logger}

	jobsClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init jobs client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobsClient.Close(); err != nil {
			logger.Warn("jobs client close", slog.Any("error", err))
		}
	}()

	usersRepo := users.NewRepository(dbpool)
	usersService := users.NewService(usersRepo, rbacEngine, auditLogger, jobsClient, logger)
	usersHandler := users.NewHandler(logger, usersService)

	rolesRepo := roles.NewRepository(dbpool)
	rolesService := roles.NewService(rolesRepo, rbacEngine, auditLogger, logger)
	rolesHandler := roles.NewHandler(logger, rolesService)

	permissionsRepo := permissions.NewRepository(dbpool)
	permissionsService := permissions.NewService(permissionsRepo, rbacEngine, auditLogger, logger)
	permissionsHandler := permissions.NewHandler(logger, permissionsService)

	auditRepo := audit.NewRepository(dbpool)
	auditService := audit.NewService(auditRepo, rbacEngine)
	auditHandler := audit.NewHandler(logger, auditService)

	router := app.NewRouter(app.RouterParams{
		Logger:             logger,
		Config:             cfg,
		SessionManager:     sessionManager,
		CSRFManager:        csrfManager,
		AuthHandler:        authHandler,
		UsersHandler:       usersHandler,
		RolesHandler:       rolesHandler,
		PermissionsHandler: permissionsHandler,
		AuditHandler:       auditHandler,
		RBACMiddleware:     rbacMiddleware,
		Metrics:            metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
