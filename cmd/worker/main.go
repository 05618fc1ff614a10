package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/lumina-media/backoffice/internal/app"
	"github.com/lumina-media/backoffice/internal/audit"
	"github.com/lumina-media/backoffice/internal/platform/db"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
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

	server := asynq.NewServer(
		asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		asynq.Config{
			Concurrency: 4,
			Queues:      map[string]int{audit.QueueName: 1},
		},
	)

	mux := asynq.NewServeMux()
	mux.Handle(audit.TypeRecordEvent, audit.NewTaskHandler(audit.NewPGRecorder(pool)))

	go func() {
		<-ctx.Done()
		server.Shutdown()
	}()

	logger.Info("audit worker starting", slog.String("redis", cfg.RedisAddr))
	if err := server.Run(mux); err != nil {
		logger.Error("worker exit", slog.Any("error", err))
		os.Exit(1)
	}
}
