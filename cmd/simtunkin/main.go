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
	"golang.org/x/sync/errgroup"

	"github.com/simtunkin/simtunkin/internal/app"
	"github.com/simtunkin/simtunkin/internal/auth"
	"github.com/simtunkin/simtunkin/internal/authz"
	"github.com/simtunkin/simtunkin/internal/observability"
	"github.com/simtunkin/simtunkin/internal/periods"
	"github.com/simtunkin/simtunkin/internal/platform/cache"
	"github.com/simtunkin/simtunkin/internal/platform/db"
	"github.com/simtunkin/simtunkin/internal/records"
	"github.com/simtunkin/simtunkin/internal/roles"
	"github.com/simtunkin/simtunkin/internal/shared"
	"github.com/simtunkin/simtunkin/internal/staff"
	"github.com/simtunkin/simtunkin/internal/tasks"
	"github.com/simtunkin/simtunkin/internal/users"
	"github.com/simtunkin/simtunkin/jobs"
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

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, "simtunkin_session", cfg.SessionTTL, cfg.IsProduction())
	auditLogger := shared.NewAuditLogger(dbpool)

	verifier, err := authz.NewTokenVerifier(cfg.AccessTokenSecret, cfg.RefreshTokenSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	if err != nil {
		logger.Error("token verifier", slog.Any("error", err))
		os.Exit(1)
	}

	rolesRepo := roles.NewRepository(dbpool)
	usersRepo := users.NewRepository(dbpool)

	permissionCache := authz.NewPermissionCache(cfg.PermissionCacheTTL)
	resolver := authz.NewResolver(rolesRepo, usersRepo, logger)
	engine := authz.NewEngine(resolver, permissionCache, logger)
	broadcaster := authz.NewBroadcaster(redisClient)

	metrics := observability.NewMetrics()
	authzMiddleware := authz.Middleware{
		Engine:   engine,
		Verifier: verifier,
		Logger:   logger,
		Metrics:  metrics,
	}

	authRepo := auth.NewRepository(dbpool)
	authService := auth.NewService(authRepo, verifier)
	authHandler := auth.NewHandler(logger, authService, sessionManager)

	jobClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init job client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()

	rolesService := roles.NewService(rolesRepo, permissionCache, broadcaster, auditLogger, logger)
	rolesHandler := roles.NewHandler(logger, rolesService, authzMiddleware)

	usersService := users.NewService(usersRepo, permissionCache, broadcaster, auditLogger, logger)
	usersHandler := users.NewHandler(logger, usersService, authzMiddleware)

	staffRepo := staff.NewRepository(dbpool)
	staffService := staff.NewService(staffRepo, auditLogger, logger)
	staffHandler := staff.NewHandler(logger, staffService, authzMiddleware)

	tasksRepo := tasks.NewRepository(dbpool)
	tasksService := tasks.NewService(tasksRepo, auditLogger, logger)
	tasksHandler := tasks.NewHandler(logger, tasksService, authzMiddleware)

	periodsRepo := periods.NewRepository(dbpool)
	periodsService := periods.NewService(periodsRepo, jobClient, redisClient, auditLogger, logger)
	periodsHandler := periods.NewHandler(logger, periodsService, authzMiddleware)

	recordsRepo := records.NewRepository(dbpool)
	recordsService := records.NewService(recordsRepo, tasksRepo, periodsRepo, auditLogger, logger)
	recordsHandler := records.NewHandler(logger, recordsService, authzMiddleware)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:          logger,
		Config:          cfg,
		SessionManager:  sessionManager,
		AuthHandler:     authHandler,
		RolesHandler:    rolesHandler,
		UsersHandler:    usersHandler,
		StaffHandler:    staffHandler,
		TasksHandler:    tasksHandler,
		PeriodsHandler:  periodsHandler,
		RecordsHandler:  recordsHandler,
		JobHandler:      jobHandler,
		AuthzMiddleware: authzMiddleware,
		Metrics:         metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	group.Go(func() error {
		// Keeps this instance's permission cache in step with mutations
		// performed by other instances.
		authz.ListenInvalidations(groupCtx, redisClient, permissionCache, logger)
		return nil
	})

	group.Go(func() error {
		<-groupCtx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		logger.Error("run", slog.Any("error", err))
		os.Exit(1)
	}
}
