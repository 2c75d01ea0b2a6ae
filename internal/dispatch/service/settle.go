package service

import (
	"context"
	"fmt"

	"bidrelay_backend/internal/conversation"
	"bidrelay_backend/internal/projects"
	"bidrelay_backend/internal/sheets"
)

// SettleInput is the settlement business event: the itemized fee
// breakdown for an awarded, classified project.
type SettleInput struct {
	ContractNumber  string
	ReceivedAmount  string
	ReceivableItems []projects.ReceivableItem
}

// Settle stores the settlement breakdown, generates the settlement
// sheets, dispatches the C-phase chain, and fires the archive uploads.
// A project whose fee details are already flagged sent is reported as
// such without any new chain or records.
func (s *Service) Settle(ctx context.Context, in SettleInput) (Summary, error) {
	project, err := s.store.GetByContractNumber(ctx, in.ContractNumber)
	if err != nil {
		return Summary{}, err
	}

	fd, err := s.store.GetFeeDetails(ctx, project.ID)
	if err != nil {
		return Summary{}, err
	}
	if fd.IsSent {
		return Summary{
			Outcome:        OutcomeAlreadySent,
			Reason:         "settlement already dispatched",
			ProjectID:      project.ID,
			Classification: project.Classification,
		}, nil
	}

	if err := s.store.UpdateSettlement(ctx, project.ID, in.ReceivedAmount, in.ReceivableItems); err != nil {
		return Summary{}, err
	}

	input := conversation.SettlementInput{}
	chainIn, err := s.chainInput(ctx, project)
	if err != nil {
		return Summary{}, err
	}
	input.Project = chainIn.Project
	input.B = chainIn.B
	input.C = chainIn.C
	input.D = chainIn.D

	generated, err := s.generateSheets(project, in)
	if err != nil {
		return Summary{}, err
	}
	input.SheetBC = generated.bc
	input.SheetBD = generated.bd

	head, err := s.builder.BuildSettlementChain(ctx, input)
	if err != nil {
		return Summary{}, err
	}

	if err := s.sched.ScheduleChain(ctx, head, 0); err != nil {
		return Summary{}, fmt.Errorf("schedule settlement chain: %w", err)
	}
	s.log.ChainScheduled(string(head.Stage), head.To, 0)

	// Archive uploads ride their own tasks, never gated on mail success.
	for _, sheet := range generated.all {
		if err := s.sched.ScheduleArchiveUpload(ctx, sheet.Path, sheet.Filename); err != nil {
			s.log.Error("schedule archive upload failed", "sheet", sheet.Filename, "error", err)
		}
	}

	if err := s.store.MarkSettlementSent(ctx, project.ID); err != nil {
		return Summary{}, err
	}

	return Summary{
		Outcome:        OutcomeDispatched,
		ProjectID:      project.ID,
		Classification: project.Classification,
		Chains:         []ChainSummary{chainSummary(head, 0)},
	}, nil
}

type generatedSheets struct {
	bc  []conversation.Attachment
	bd  []conversation.Attachment
	all []sheets.Sheet
}

// generateSheets writes one workbook per monetary exchange: B↔C for the
// full BCD topology, B↔D always.
func (s *Service) generateSheets(project projects.Project, in SettleInput) (generatedSheets, error) {
	var out generatedSheets
	if s.sheets == nil {
		return out, nil
	}

	base := sheets.Input{
		ContractNumber: project.ContractNumber,
		SerialNumber:   project.SerialNumbers[0],
		Mode:           project.Classification,
		ProjectName:    project.Name,
		ReceivedAmount: in.ReceivedAmount,
		Items:          in.ReceivableItems,
	}

	if project.Classification == string(conversation.BCD) {
		// C issues the B-C sheet and mails it at the chain head.
		bc := base
		bc.Pair = "BC"
		bc.HeadCompany = project.CompanyC
		bc.BottomCompany = project.CompanyB
		sheet, err := s.sheets.Generate(bc)
		if err != nil {
			return generatedSheets{}, fmt.Errorf("generate BC settlement sheet: %w", err)
		}
		out.bc = []conversation.Attachment{{Filename: sheet.Filename, Path: sheet.Path}}
		out.all = append(out.all, sheet)
	}

	bd := base
	bd.Pair = "BD"
	bd.HeadCompany = project.CompanyB
	bd.BottomCompany = project.CompanyD
	sheet, err := s.sheets.Generate(bd)
	if err != nil {
		return generatedSheets{}, fmt.Errorf("generate BD settlement sheet: %w", err)
	}
	out.bd = []conversation.Attachment{{Filename: sheet.Filename, Path: sheet.Path}}
	out.all = append(out.all, sheet)

	return out, nil
}
