package conversation

import (
	"bidrelay_backend/platform/apperr"

	"github.com/google/uuid"
)

// SMTPAccount holds the outbound credentials captured into a descriptor
// at build time. Chains execute minutes to hours after construction, so
// descriptors must never depend on live directory rows.
type SMTPAccount struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Username string `json:"username"`
	Password string `json:"password"`
	FromName string `json:"fromName"`
	FromAddr string `json:"fromAddr"`
}

// Attachment is a file attached to one outbound message.
type Attachment struct {
	Filename string `json:"filename"`
	Path     string `json:"path"`
}

// Descriptor describes one deferred send. Descriptors form a singly
// linked, acyclic chain via Followup; the chain is fully built before
// anything executes. Immutable once built.
type Descriptor struct {
	ProjectID   uuid.UUID    `json:"projectId"`
	Stage       Stage        `json:"stage"`
	To          string       `json:"to"`
	Subject     string       `json:"subject"`
	Body        string       `json:"body"`
	SMTP        SMTPAccount  `json:"smtp"`
	CC          []string     `json:"cc,omitempty"`
	Attachments []Attachment `json:"attachments,omitempty"`

	// Followup is scheduled FollowupDelay seconds after this send succeeds.
	Followup      *Descriptor `json:"followup,omitempty"`
	FollowupDelay int64       `json:"followupDelaySeconds,omitempty"`
}

// Validate checks the whole chain rooted at d: every stage must belong to
// the known vocabulary, every descriptor needs a recipient and transport
// account, a followup requires a non-negative delay, and the chain must
// be acyclic.
func (d *Descriptor) Validate() error {
	seen := make(map[*Descriptor]bool)
	for cur := d; cur != nil; cur = cur.Followup {
		if seen[cur] {
			return apperr.Validation("descriptor chain is cyclic")
		}
		seen[cur] = true

		if !cur.Stage.IsKnown() {
			return apperr.Validation("unknown stage " + string(cur.Stage))
		}
		if cur.To == "" {
			return apperr.Validation("descriptor for stage " + string(cur.Stage) + " has no recipient")
		}
		if cur.SMTP.Host == "" || cur.SMTP.FromAddr == "" {
			return apperr.Validation("descriptor for stage " + string(cur.Stage) + " has no transport account")
		}
		if cur.Followup != nil && cur.FollowupDelay < 0 {
			return apperr.Validation("descriptor for stage " + string(cur.Stage) + " has a followup without a delay")
		}
	}
	return nil
}

// Len returns the number of stages remaining in the chain, d included.
func (d *Descriptor) Len() int {
	n := 0
	for cur := d; cur != nil; cur = cur.Followup {
		n++
	}
	return n
}

// Stages returns the ordered stage labels of the chain. Useful for
// dispatch summaries and logs.
func (d *Descriptor) Stages() []Stage {
	var stages []Stage
	for cur := d; cur != nil; cur = cur.Followup {
		stages = append(stages, cur.Stage)
	}
	return stages
}
