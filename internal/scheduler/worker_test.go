package scheduler

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/hibiken/asynq"

	"bidrelay_backend/internal/conversation"
	"bidrelay_backend/platform/logger"
)

func newTestWorker(t *testing.T, exec *Executor, uploader Uploader) *Worker {
	t.Helper()
	srv := miniredis.RunT(t)
	w, err := NewWorker(testSchedulerConfig{redisURL: "redis://" + srv.Addr(), queue: "mailflow"}, exec, uploader, logger.New("test"))
	if err != nil {
		t.Fatalf("NewWorker: %v", err)
	}
	return w
}

func TestHandleMailChainSendSkipsRetryOnGarbage(t *testing.T) {
	exec := newTestExecutor(&fakeSender{}, &fakeStore{}, &fakeEnqueuer{}, nil)
	w := newTestWorker(t, exec, nil)

	err := w.handleMailChainSend(context.Background(), asynq.NewTask(TaskMailChainSend, []byte("not json")))
	if !errors.Is(err, asynq.SkipRetry) {
		t.Fatalf("garbage payload must skip retry, got %v", err)
	}

	empty, _ := NewMailChainSendTask(MailChainSendPayload{})
	err = w.handleMailChainSend(context.Background(), empty)
	if !errors.Is(err, asynq.SkipRetry) {
		t.Fatalf("empty descriptor must skip retry, got %v", err)
	}

	invalid, _ := NewMailChainSendTask(MailChainSendPayload{Descriptor: &conversation.Descriptor{Stage: "B99"}})
	err = w.handleMailChainSend(context.Background(), invalid)
	if !errors.Is(err, asynq.SkipRetry) {
		t.Fatalf("invalid descriptor must skip retry, got %v", err)
	}
}

func TestHandleMailChainSendRetriesTransportFailures(t *testing.T) {
	sender := &fakeSender{failFor: map[conversation.Stage]error{
		conversation.StageB5: errors.New("connection refused"),
	}}
	exec := newTestExecutor(sender, &fakeStore{}, &fakeEnqueuer{}, nil)
	w := newTestWorker(t, exec, nil)

	task, err := NewMailChainSendTask(MailChainSendPayload{Descriptor: execDescriptor(conversation.StageB5, nil, 0)})
	if err != nil {
		t.Fatalf("NewMailChainSendTask: %v", err)
	}

	handleErr := w.handleMailChainSend(context.Background(), task)
	if handleErr == nil {
		t.Fatal("transport failure must surface for retry")
	}
	if errors.Is(handleErr, asynq.SkipRetry) {
		t.Fatal("transport failure must stay retryable")
	}
}

func TestHandleArchiveUploadWithoutUploaderIsNoop(t *testing.T) {
	exec := newTestExecutor(&fakeSender{}, &fakeStore{}, &fakeEnqueuer{}, nil)
	w := newTestWorker(t, exec, nil)

	task, err := NewArchiveUploadTask(ArchiveUploadPayload{LocalPath: "/tmp/x.xlsx", RemoteName: "x.xlsx"})
	if err != nil {
		t.Fatalf("NewArchiveUploadTask: %v", err)
	}
	if err := w.handleArchiveUpload(context.Background(), task); err != nil {
		t.Fatalf("nil uploader should no-op, got %v", err)
	}
}
