package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"bidrelay_backend/platform/apperr"
	"bidrelay_backend/platform/config"
	"bidrelay_backend/platform/logger"
)

// Uploader pushes a generated file to the archive store. Satisfied by
// the archive module.
type Uploader interface {
	Upload(ctx context.Context, localPath, remoteName string) error
}

// Worker consumes the queue and drives the executor.
type Worker struct {
	server   *asynq.Server
	mux      *asynq.ServeMux
	exec     *Executor
	uploader Uploader
	log      *logger.Logger
}

// NewWorker builds the asynq server with the fixed-backoff retry policy.
// uploader may be nil when archiving is disabled.
func NewWorker(cfg config.SchedulerConfig, exec *Executor, uploader Uploader, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
		RetryDelayFunc: func(n int, err error, task *asynq.Task) time.Duration {
			return retryDelay
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server:   server,
		mux:      mux,
		exec:     exec,
		uploader: uploader,
		log:      log,
	}

	mux.HandleFunc(TaskMailChainSend, w.handleMailChainSend)
	mux.HandleFunc(TaskArchiveUpload, w.handleArchiveUpload)

	return w, nil
}

func (w *Worker) handleMailChainSend(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseMailChainSendPayload(task)
	if err != nil {
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}
	if payload.Descriptor == nil {
		return fmt.Errorf("empty descriptor: %w", asynq.SkipRetry)
	}
	if err := payload.Descriptor.Validate(); err != nil {
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}

	if err := w.exec.Execute(ctx, payload.Descriptor); err != nil {
		// Configuration inconsistencies never heal on retry.
		if apperr.GetKind(err) == apperr.KindConfig {
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}
		return err
	}
	return nil
}

func (w *Worker) handleArchiveUpload(ctx context.Context, task *asynq.Task) error {
	if w.uploader == nil {
		return nil
	}

	payload, err := ParseArchiveUploadPayload(task)
	if err != nil {
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}

	if err := w.uploader.Upload(ctx, payload.LocalPath, payload.RemoteName); err != nil {
		return fmt.Errorf("archive upload %s: %w", payload.RemoteName, err)
	}
	w.log.Info("archived settlement sheet", "remote", payload.RemoteName)
	return nil
}

// Run blocks serving tasks until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil && !errors.Is(err, asynq.ErrServerClosed) {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}
