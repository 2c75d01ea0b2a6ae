package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bidrelay_backend/internal/archive"
	"bidrelay_backend/internal/email"
	"bidrelay_backend/internal/projects"
	"bidrelay_backend/internal/records"
	"bidrelay_backend/internal/scheduler"
	"bidrelay_backend/platform/config"
	"bidrelay_backend/platform/db"
	"bidrelay_backend/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting worker", "env", cfg.Env, "queue", cfg.AsynqQueue)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()

	schedClient, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize scheduler client", "error", err)
		panic("failed to initialize scheduler client: " + err.Error())
	}
	defer func() { _ = schedClient.Close() }()

	var uploader scheduler.Uploader
	if cfg.IsArchiveEnabled() {
		archiveUploader, err := archive.NewUploader(cfg)
		if err != nil {
			log.Error("failed to initialize archive uploader", "error", err)
			panic("failed to initialize archive uploader: " + err.Error())
		}
		if err := archiveUploader.EnsureBucket(ctx); err != nil {
			log.Error("failed to ensure archive bucket", "error", err)
			panic("failed to ensure archive bucket: " + err.Error())
		}
		uploader = archiveUploader
	} else {
		log.Warn("archive store not configured; settlement sheets stay local")
	}

	exec := scheduler.NewExecutor(
		email.NewSMTPSender(),
		records.New(pool),
		schedClient,
		projects.New(pool),
		log,
	)

	worker, err := scheduler.NewWorker(cfg, exec, uploader, log)
	if err != nil {
		log.Error("failed to initialize worker", "error", err)
		panic("failed to initialize worker: " + err.Error())
	}

	worker.Run(ctx)
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return errors.New(name + ": invalid retry attempts")
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
