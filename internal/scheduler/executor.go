package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"bidrelay_backend/internal/conversation"
	"bidrelay_backend/internal/records"
	"bidrelay_backend/platform/logger"
)

// Sender delivers one descriptor's message. Satisfied by email.SMTPSender.
type Sender interface {
	Send(ctx context.Context, d conversation.Descriptor) error
}

// Enqueuer schedules the follow-up descriptor. Satisfied by Client.
type Enqueuer interface {
	ScheduleChain(ctx context.Context, head *conversation.Descriptor, initialDelay time.Duration) error
}

// PhaseMarker flips the project's phase-completion flag after a
// successful stage. Satisfied by the projects repository.
type PhaseMarker interface {
	MarkStageDone(ctx context.Context, id uuid.UUID, stage string) error
}

// Executor runs one chain stage: send the mail, persist the outcome
// unconditionally, and on success schedule the follow-up after its
// stated delay. Returned errors are retryable; the worker's retry
// policy bounds them.
type Executor struct {
	sender  Sender
	store   records.Store
	enqueue Enqueuer
	phases  PhaseMarker
	log     *logger.Logger
}

// NewExecutor creates an Executor. phases may be nil.
func NewExecutor(sender Sender, store records.Store, enqueue Enqueuer, phases PhaseMarker, log *logger.Logger) *Executor {
	return &Executor{sender: sender, store: store, enqueue: enqueue, phases: phases, log: log}
}

// Execute performs one stage. Side effects are strictly one outbound
// email, one persisted record, and at most one follow-up schedule call.
// The follow-up is only ever scheduled on the attempt that observes a
// successful, persisted delivery, so retries cannot double-schedule it.
func (e *Executor) Execute(ctx context.Context, d *conversation.Descriptor) error {
	sendErr := e.sender.Send(ctx, *d)

	rec := records.DeliveryRecord{
		ProjectID: d.ProjectID,
		Stage:     string(d.Stage),
		Recipient: d.To,
		Subject:   d.Subject,
		Body:      d.Body,
		SentAt:    time.Now(),
	}
	if sendErr != nil {
		rec.Status = records.StatusFailed
		rec.ErrorDetail = sendErr.Error()
	} else {
		rec.Status = records.StatusSuccess
	}

	// Persist-then-check-success: the record is written whatever the
	// transport outcome was.
	persistErr := e.store.Save(ctx, rec)
	if persistErr != nil {
		e.log.DatabaseError("save delivery record", persistErr)
	}

	e.log.MailDelivery(string(d.Stage), d.To, sendErr == nil, rec.ErrorDetail)

	if sendErr != nil {
		return fmt.Errorf("send stage %s: %w", d.Stage, sendErr)
	}
	if persistErr != nil {
		return fmt.Errorf("persist record for stage %s: %w", d.Stage, persistErr)
	}

	if e.phases != nil && d.ProjectID != uuid.Nil {
		if err := e.phases.MarkStageDone(ctx, d.ProjectID, string(d.Stage)); err != nil {
			e.log.DatabaseError("mark stage done", err)
		}
	}

	if d.Followup == nil {
		return nil
	}
	if err := e.enqueue.ScheduleChain(ctx, d.Followup, time.Duration(d.FollowupDelay)*time.Second); err != nil {
		return fmt.Errorf("schedule followup for stage %s: %w", d.Stage, err)
	}
	e.log.ChainScheduled(string(d.Followup.Stage), d.Followup.To, d.FollowupDelay)
	return nil
}
