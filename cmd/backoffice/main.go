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

	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"

	"github.com/lumina-media/backoffice/internal/access"
	"github.com/lumina-media/backoffice/internal/app"
	"github.com/lumina-media/backoffice/internal/audit"
	"github.com/lumina-media/backoffice/internal/auth"
	"github.com/lumina-media/backoffice/internal/observability"
	"github.com/lumina-media/backoffice/internal/platform/cache"
	"github.com/lumina-media/backoffice/internal/platform/db"
	"github.com/lumina-media/backoffice/internal/shared"
	"github.com/lumina-media/backoffice/internal/users"
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
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, "backoffice_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())

	matrix := access.DefaultMatrix()
	if err := matrix.Validate(); err != nil {
		logger.Error("permission matrix", slog.Any("error", err))
		os.Exit(1)
	}

	var recorder audit.Recorder = audit.NewPGRecorder(pool)
	var asynqClient *asynq.Client
	if cfg.AuditAsync {
		asynqClient = asynq.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
		defer func() {
			if err := asynqClient.Close(); err != nil {
				logger.Warn("asynq close", slog.Any("error", err))
			}
		}()
		recorder = audit.NewAsyncRecorder(asynqClient)
	}
	sink := audit.NewBestEffort(recorder, logger)

	checker := access.NewChecker(matrix, access.DefaultRegistry(), sink, logger)
	metrics := observability.NewMetrics()
	accessMW := access.Middleware{Checker: checker, Logger: logger, Metrics: metrics}

	usersService := users.NewService(users.NewRepository(pool))
	authService := auth.NewService(auth.NewRepository(pool))

	router := app.NewRouter(app.RouterParams{
		Logger:         logger,
		Config:         cfg,
		SessionManager: sessionManager,
		Resolver:       usersService,
		Checker:        checker,
		AccessMW:       accessMW,
		AuthHandler:    auth.NewHandler(logger, authService, sessionManager, checker),
		UsersHandler:   users.NewHandler(logger, usersService),
		AuditHandler:   audit.NewHandler(logger, audit.NewService(audit.NewTimelineRepository(pool))),
		Metrics:        metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		logger.Info("http server listening", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		logger.Error("server exit", slog.Any("error", err))
		os.Exit(1)
	}
}
