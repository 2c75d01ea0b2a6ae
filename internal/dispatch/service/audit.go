package service

import (
	"context"
	"fmt"

	"bidrelay_backend/internal/conversation"
	"bidrelay_backend/internal/events"
	"bidrelay_backend/internal/projects"
	"bidrelay_backend/platform/apperr"
)

// ContractItem is one audited contract line.
type ContractItem struct {
	Type     string
	Payer    string
	CompanyC string
	CompanyD string
}

// AuditInput is the contract-audit business event.
type AuditInput struct {
	SerialNumber string
	Items        []ContractItem
}

// AuditContract runs the classifier state machine and, on first
// classification or genuine re-trigger, dispatches the contract chain.
// Precondition failures are deliberate no-ops, not errors.
func (s *Service) AuditContract(ctx context.Context, in AuditInput) (Summary, error) {
	project, err := s.store.GetBySerialNumber(ctx, in.SerialNumber)
	if err != nil {
		return Summary{}, err
	}

	if !project.HasAllSerials() {
		return noop(project, "not a registered bidding project"), nil
	}

	item, ok := multiPartyItem(in.Items)
	if !ok {
		return noop(project, "no paying three/four-party contract item"), nil
	}
	cName, dName := item.CompanyC, item.CompanyD

	if _, err := s.dir.GetByName(ctx, project.CompanyB); err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return noop(project, "B company not in directory"), nil
		}
		return Summary{}, err
	}
	if _, err := s.dir.GetByName(ctx, dName); err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return noop(project, "D company is an external party"), nil
		}
		return Summary{}, err
	}

	classification := conversation.BCD
	if _, err := s.dir.GetByName(ctx, cName); err != nil {
		if !apperr.Is(err, apperr.KindNotFound) {
			return Summary{}, err
		}
		classification = conversation.BD
	} else if cName == project.CompanyB {
		classification = conversation.CCD
	}

	// Idempotency: once classified, only a genuinely different D company
	// re-enters, and a bare C/D swap is a data-correction artifact, not
	// a change.
	reclassified := false
	if project.Classification != string(conversation.Unclassified) {
		if dName == project.CompanyD {
			return noop(project, "D company unchanged"), nil
		}
		if dName == project.CompanyC && cName == project.CompanyD {
			return noop(project, "C/D swap suppressed"), nil
		}
		reclassified = true
	}

	if err := s.store.UpdateClassification(ctx, project.ID, string(classification), cName, dName); err != nil {
		return Summary{}, err
	}
	project.Classification = string(classification)
	project.CompanyC = cName
	project.CompanyD = dName

	summary, err := s.dispatchContractChain(ctx, project)
	if err != nil {
		return Summary{}, err
	}

	if reclassified {
		s.bus.Publish(ctx, events.CompanyDReassigned{
			BaseEvent:      events.NewBaseEvent(),
			ProjectID:      project.ID,
			SerialNumber:   project.SerialNumbers[0],
			Classification: project.Classification,
			CompanyC:       cName,
			CompanyD:       dName,
		})
	} else {
		s.bus.Publish(ctx, events.ProjectClassified{
			BaseEvent:      events.NewBaseEvent(),
			ProjectID:      project.ID,
			Classification: project.Classification,
			CompanyC:       cName,
			CompanyD:       dName,
		})
	}

	return summary, nil
}

// dispatchContractChain builds the B-phase chain for the project's
// classification and schedules it with zero initial delay.
func (s *Service) dispatchContractChain(ctx context.Context, project projects.Project) (Summary, error) {
	input, err := s.chainInput(ctx, project)
	if err != nil {
		return Summary{}, err
	}

	head, err := s.builder.BuildBidChain(ctx, input)
	if err != nil {
		return Summary{}, err
	}

	if err := s.sched.ScheduleChain(ctx, head, 0); err != nil {
		return Summary{}, fmt.Errorf("schedule contract chain: %w", err)
	}
	s.log.ChainScheduled(string(head.Stage), head.To, 0)

	return Summary{
		Outcome:        OutcomeDispatched,
		ProjectID:      project.ID,
		Classification: project.Classification,
		MailAlias:      project.MailAlias,
		Chains:         []ChainSummary{chainSummary(head, 0)},
	}, nil
}

// chainInput resolves the stored parties into chain snapshots.
func (s *Service) chainInput(ctx context.Context, project projects.Project) (conversation.ChainInput, error) {
	input := conversation.ChainInput{
		Project: s.projectInfo(ctx, project),
	}

	b, err := s.resolveParticipant(ctx, project.CompanyB, project.MailAlias)
	if err != nil {
		return conversation.ChainInput{}, err
	}
	input.B = b

	d, err := s.resolveParticipant(ctx, project.CompanyD, project.MailAlias)
	if err != nil {
		return conversation.ChainInput{}, err
	}
	input.D = d

	if project.Classification == string(conversation.BCD) {
		c, err := s.resolveParticipant(ctx, project.CompanyC, project.MailAlias)
		if err != nil {
			return conversation.ChainInput{}, err
		}
		input.C = c
	}

	return input, nil
}

func multiPartyItem(items []ContractItem) (ContractItem, bool) {
	for _, item := range items {
		if item.Type == ContractItemMultiParty && item.Payer == PayerDesignationPay {
			return item, true
		}
	}
	return ContractItem{}, false
}

func noop(project projects.Project, reason string) Summary {
	return Summary{
		Outcome:        OutcomeNoop,
		Reason:         reason,
		ProjectID:      project.ID,
		Classification: project.Classification,
	}
}
