package crm

import (
	"context"

	"bidrelay_backend/internal/events"
	"bidrelay_backend/platform/logger"
)

// Subscriber listens for company D reassignments and pushes the
// correction to the CRM form.
type Subscriber struct {
	client *Client
	log    *logger.Logger
}

// NewSubscriber creates a Subscriber. A nil client disables the sync.
func NewSubscriber(client *Client, log *logger.Logger) *Subscriber {
	return &Subscriber{client: client, log: log}
}

// Register subscribes to the events the CRM module cares about.
func (s *Subscriber) Register(bus events.Bus) {
	bus.Subscribe(events.CompanyDReassigned{}.EventName(), s)
}

// Handle implements events.Handler.
func (s *Subscriber) Handle(ctx context.Context, event events.Event) error {
	e, ok := event.(events.CompanyDReassigned)
	if !ok {
		return nil
	}
	if s.client == nil {
		return nil
	}

	err := s.client.UpdateProjectForm(ctx, ProjectUpdate{
		SerialNumber: e.SerialNumber,
		CompanyC:     e.CompanyC,
		CompanyD:     e.CompanyD,
	})
	if err != nil {
		s.log.Error("crm form sync failed", "project", e.ProjectID.String(), "error", err)
		return err
	}
	return nil
}
