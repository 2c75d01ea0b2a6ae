// Package conversation builds the deferred email chains for each project
// topology. Everything in here is pure: the builders read snapshots,
// draw delays, render text through an injected Renderer, and return a
// fully linked head Descriptor without executing anything.
package conversation

import (
	"context"
	"fmt"
	"math/rand"
	"sync"

	"bidrelay_backend/platform/apperr"
)

// Delay windows, in seconds. Replies take deliberation time; the first
// invitation of a registration goes out quickly.
const (
	replyDelayMinMinutes  = 5
	replyDelayMaxMinutes  = 60
	inviteDelayMaxMinutes = 5
)

// ScheduledChain pairs a chain head with the initial delay before the
// head itself runs.
type ScheduledChain struct {
	Head         *Descriptor
	InitialDelay int64
}

// Builder constructs descriptor chains. Safe for concurrent use.
type Builder struct {
	mu     sync.Mutex
	rng    *rand.Rand
	render Renderer
	cc     CCPolicy
}

// NewBuilder creates a Builder drawing delays from rng.
func NewBuilder(rng *rand.Rand, render Renderer, cc CCPolicy) *Builder {
	return &Builder{rng: rng, render: render, cc: cc}
}

// replyDelay draws a uniform whole-minute delay from the reply window.
func (b *Builder) replyDelay() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	minutes := replyDelayMinMinutes + b.rng.Int63n(replyDelayMaxMinutes-replyDelayMinMinutes+1)
	return minutes * 60
}

// inviteDelay draws a uniform whole-minute delay from the first-invitation window.
func (b *Builder) inviteDelay() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.rng.Int63n(inviteDelayMaxMinutes+1) * 60
}

// ChainInput carries the project and participant snapshots for the
// contract-phase conversation. C is ignored for CCD and BD.
type ChainInput struct {
	Project ProjectInfo
	B       Participant
	C       Participant
	D       Participant
}

// BuildBidChain builds the contract-phase chain for the project's
// classification. The head descriptor is meant to be scheduled with zero
// initial delay.
func (b *Builder) BuildBidChain(ctx context.Context, in ChainInput) (*Descriptor, error) {
	if err := requireParticipant("B", in.B); err != nil {
		return nil, err
	}
	if err := requireParticipant("D", in.D); err != nil {
		return nil, err
	}

	var specs []stageSpec
	switch in.Project.Classification {
	case BCD:
		if err := requireParticipant("C", in.C); err != nil {
			return nil, err
		}
		specs = []stageSpec{
			{StageB3, in.B, in.C, nil},
			{StageB4, in.C, in.B, nil},
			{StageB5, in.B, in.D, nil},
			{StageB6, in.D, in.B, nil},
		}
	case CCD:
		specs = []stageSpec{
			{StageB5Spec, in.B, in.D, nil},
			{StageB6, in.D, in.B, nil},
		}
	case BD:
		specs = []stageSpec{
			{StageB5, in.B, in.D, nil},
			{StageB6, in.D, in.B, nil},
		}
	default:
		return nil, apperr.BadRequest(fmt.Sprintf("no contract chain for classification %q", in.Project.Classification))
	}

	return b.link(ctx, specs, in.Project, in.D)
}

// SettlementInput carries the settlement snapshots plus the generated
// settlement sheets per monetary exchange.
type SettlementInput struct {
	Project ProjectInfo
	B       Participant
	C       Participant
	D       Participant
	// SheetBC is attached to the B↔C exchange (BCD only).
	SheetBC []Attachment
	// SheetBD is attached to the B↔D exchange.
	SheetBD []Attachment
}

// BuildSettlementChain builds the settlement-phase chain: C7→C10 for
// BCD, C8→C9 for the collapsed CCD/BD cases.
func (b *Builder) BuildSettlementChain(ctx context.Context, in SettlementInput) (*Descriptor, error) {
	if err := requireParticipant("B", in.B); err != nil {
		return nil, err
	}
	if err := requireParticipant("D", in.D); err != nil {
		return nil, err
	}

	var specs []stageSpec
	switch in.Project.Classification {
	case BCD:
		if err := requireParticipant("C", in.C); err != nil {
			return nil, err
		}
		specs = []stageSpec{
			{StageC7, in.C, in.B, in.SheetBC},
			{StageC8, in.B, in.D, in.SheetBD},
			{StageC9, in.D, in.B, nil},
			{StageC10, in.B, in.C, nil},
		}
	case CCD, BD:
		specs = []stageSpec{
			{StageC8, in.B, in.D, in.SheetBD},
			{StageC9, in.D, in.B, nil},
		}
	default:
		return nil, apperr.BadRequest(fmt.Sprintf("no settlement chain for classification %q", in.Project.Classification))
	}

	return b.link(ctx, specs, in.Project, in.D)
}

// RegistrationInput carries the registration fan-out: one invitation per
// D-role counterparty, each with its own serial number.
type RegistrationInput struct {
	Project     ProjectInfo
	B           Participant
	Invitations []Invitation
}

// Invitation is one D-role counterparty inviting B to register.
type Invitation struct {
	D            Participant
	SerialNumber string
}

// BuildRegistrationChains builds one independent A1→A2 chain per
// invitation. Each chain's initial delay is drawn from the short
// first-invitation window; delays are independent draws.
func (b *Builder) BuildRegistrationChains(ctx context.Context, in RegistrationInput) ([]ScheduledChain, error) {
	if err := requireParticipant("B", in.B); err != nil {
		return nil, err
	}
	if len(in.Invitations) == 0 {
		return nil, apperr.BadRequest("registration requires at least one counterparty")
	}

	chains := make([]ScheduledChain, 0, len(in.Invitations))
	for _, inv := range in.Invitations {
		if err := requireParticipant("D", inv.D); err != nil {
			return nil, err
		}

		project := in.Project
		project.SerialNumber = inv.SerialNumber

		specs := []stageSpec{
			{StageA1, inv.D, in.B, nil},
			{StageA2, in.B, inv.D, nil},
		}
		head, err := b.link(ctx, specs, project, inv.D)
		if err != nil {
			return nil, err
		}

		chains = append(chains, ScheduledChain{Head: head, InitialDelay: b.inviteDelay()})
	}
	return chains, nil
}

type stageSpec struct {
	stage       Stage
	from        Participant
	to          Participant
	attachments []Attachment
}

// link builds the chain back to front: each descriptor embeds its
// successor by value, so the last stage must exist before its
// predecessor can reference it and carry the delay before it.
func (b *Builder) link(ctx context.Context, specs []stageSpec, project ProjectInfo, d Participant) (*Descriptor, error) {
	ccActive := b.cc.Applies(d, project.Alias)

	var next *Descriptor
	for i := len(specs) - 1; i >= 0; i-- {
		spec := specs[i]
		fields := chainFields(project, spec.from, spec.to)

		subject, err := b.render.Subject(ctx, spec.stage, spec.from.ShortCode, fields)
		if err != nil {
			return nil, fmt.Errorf("render subject for stage %s: %w", spec.stage, err)
		}
		body, err := b.render.Body(ctx, spec.stage, fields)
		if err != nil {
			return nil, fmt.Errorf("render body for stage %s: %w", spec.stage, err)
		}

		desc := &Descriptor{
			ProjectID:   project.ID,
			Stage:       spec.stage,
			To:          spec.to.Email,
			Subject:     subject,
			Body:        body,
			SMTP:        spec.from.SMTP,
			CC:          b.cc.CCFor(spec.stage, ccActive),
			Attachments: spec.attachments,
			Followup:    next,
		}
		if next != nil {
			desc.FollowupDelay = b.replyDelay()
		}
		next = desc
	}

	if err := next.Validate(); err != nil {
		return nil, err
	}
	return next, nil
}

// requireParticipant rejects snapshots missing the fields a chain cannot
// run without. These are configuration inconsistencies, never retried.
func requireParticipant(role string, p Participant) error {
	switch {
	case p.Name == "":
		return apperr.Config(fmt.Sprintf("%s participant has no company name", role))
	case p.Email == "":
		return apperr.Config(fmt.Sprintf("%s participant %q has no mail address", role, p.Name))
	case p.SMTP.Host == "" || p.SMTP.FromAddr == "":
		return apperr.Config(fmt.Sprintf("%s participant %q has no outbound mail account", role, p.Name))
	}
	return nil
}

// chainFields assembles the renderer placeholder values for one stage.
// The recipient's identity fills the company placeholders; the sender's
// signature fields travel alongside.
func chainFields(p ProjectInfo, from, to Participant) Fields {
	return Fields{
		CompanyName:    to.Name,
		ShortName:      to.ShortName,
		ProjectName:    p.Name,
		SerialNumber:   p.SerialNumber,
		TenderNumber:   p.TenderNumber,
		ContractAmount: p.ContractAmount,
		WinningTime:    p.WinningTime,
		SenderCompany:  from.Name,
		SenderContact:  from.ContactName,
		SenderPhone:    from.Phone,
		SenderAddress:  from.Address,
	}
}
