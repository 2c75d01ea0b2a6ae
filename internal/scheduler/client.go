// Package scheduler is the deferred task layer: an asynq client that
// enqueues chain stages and archive uploads, and the worker-side
// executor implementing send, persist, follow-up semantics.
package scheduler

import (
	"context"
	"crypto/tls"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"bidrelay_backend/internal/conversation"
	"bidrelay_backend/platform/config"
)

// Retry policy for every chain stage: a bounded number of attempts with
// a fixed backoff.
const (
	maxRetry   = 3
	retryDelay = 60 * time.Second
)

// ChainScheduler is the core's boundary exposed to the dispatch layer.
type ChainScheduler interface {
	ScheduleChain(ctx context.Context, head *conversation.Descriptor, initialDelay time.Duration) error
	ScheduleArchiveUpload(ctx context.Context, localPath, remoteName string) error
}

// Client enqueues tasks on the shared queue.
type Client struct {
	client *asynq.Client
	queue  string
}

// NewClient creates an asynq client from the scheduler configuration.
func NewClient(cfg config.SchedulerConfig) (*Client, error) {
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

	return &Client{
		client: asynq.NewClient(opt),
		queue:  queue,
	}, nil
}

// Close releases the underlying Redis connections.
func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// Compile-time check that Client implements ChainScheduler.
var _ ChainScheduler = (*Client)(nil)

// ScheduleChain enqueues the head descriptor to run no sooner than
// initialDelay from now. The rest of the chain rides along inside the
// payload; each stage re-enters here through the executor's follow-up.
func (c *Client) ScheduleChain(ctx context.Context, head *conversation.Descriptor, initialDelay time.Duration) error {
	if err := head.Validate(); err != nil {
		return err
	}

	task, err := NewMailChainSendTask(MailChainSendPayload{Descriptor: head})
	if err != nil {
		return err
	}

	_, err = c.client.EnqueueContext(ctx, task,
		asynq.ProcessIn(initialDelay),
		asynq.Queue(c.queue),
		asynq.MaxRetry(maxRetry),
	)
	return err
}

// ScheduleArchiveUpload enqueues a fire-and-forget archive upload.
func (c *Client) ScheduleArchiveUpload(ctx context.Context, localPath, remoteName string) error {
	task, err := NewArchiveUploadTask(ArchiveUploadPayload{LocalPath: localPath, RemoteName: remoteName})
	if err != nil {
		return err
	}

	_, err = c.client.EnqueueContext(ctx, task,
		asynq.Queue(c.queue),
		asynq.MaxRetry(maxRetry),
	)
	return err
}

func redisClientOpt(redisURL string, tlsInsecure bool) (asynq.RedisClientOpt, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return asynq.RedisClientOpt{}, err
	}

	var tlsConfig *tls.Config
	if opt.TLSConfig != nil {
		clone := opt.TLSConfig.Clone()
		if tlsInsecure {
			clone.InsecureSkipVerify = true
		}
		tlsConfig = clone
	} else if tlsInsecure {
		tlsConfig = &tls.Config{InsecureSkipVerify: true}
	}

	return asynq.RedisClientOpt{
		Addr:      opt.Addr,
		Password:  opt.Password,
		DB:        opt.DB,
		TLSConfig: tlsConfig,
	}, nil
}
