// Package records is the append-only delivery log: one row per send
// attempt, never mutated after insert.
package records

import (
	"time"

	"github.com/google/uuid"
)

// Delivery statuses.
const (
	StatusPending = "pending"
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// DeliveryRecord is one send attempt outcome.
type DeliveryRecord struct {
	ID          uuid.UUID `json:"id"`
	ProjectID   uuid.UUID `json:"projectId"`
	Stage       string    `json:"stage"`
	Recipient   string    `json:"recipient"`
	Subject     string    `json:"subject"`
	Body        string    `json:"body"`
	Status      string    `json:"status"`
	ErrorDetail string    `json:"errorDetail,omitempty"`
	SentAt      time.Time `json:"sentAt"`
	CreatedAt   time.Time `json:"createdAt"`
}
