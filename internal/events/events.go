// Package events defines the domain events exchanged between modules.
// The bus infrastructure lives in platform/events; this package only
// carries the event vocabulary.
package events

import (
	"github.com/google/uuid"

	platformevents "bidrelay_backend/platform/events"
)

// Re-exported infrastructure types so modules depend on one events package.
type (
	Event       = platformevents.Event
	BaseEvent   = platformevents.BaseEvent
	Bus         = platformevents.Bus
	Handler     = platformevents.Handler
	HandlerFunc = platformevents.HandlerFunc
	InMemoryBus = platformevents.InMemoryBus
)

// NewBaseEvent stamps a new event with the current time.
var NewBaseEvent = platformevents.NewBaseEvent

// ProjectClassified fires when a contract audit resolves a project's
// topology for the first time.
type ProjectClassified struct {
	BaseEvent
	ProjectID      uuid.UUID
	Classification string
	CompanyC       string
	CompanyD       string
}

// EventName implements Event.
func (ProjectClassified) EventName() string { return "project.classified" }

// CompanyDReassigned fires on a genuine re-classification: the resolved
// D party differs from the stored one and is not a C/D swap. The CRM
// module writes the correction back upstream.
type CompanyDReassigned struct {
	BaseEvent
	ProjectID      uuid.UUID
	SerialNumber   string
	Classification string
	CompanyC       string
	CompanyD       string
}

// EventName implements Event.
func (CompanyDReassigned) EventName() string { return "project.company_d_reassigned" }
