package service

import (
	"context"
	"time"

	"bidrelay_backend/internal/projects"
)

// AwardInput is the winning-info business event: the project was
// awarded and the financial figures arrive.
type AwardInput struct {
	SerialNumber   string
	TenderNumber   string
	ContractNumber string
	ContractAmount string
	WinningTime    *time.Time
}

// RecordAward stores the award figures and creates the fee details.
// No chain is dispatched here; the contract audit does that.
func (s *Service) RecordAward(ctx context.Context, in AwardInput) (Summary, error) {
	project, err := s.store.GetBySerialNumber(ctx, in.SerialNumber)
	if err != nil {
		return Summary{}, err
	}

	if err := s.store.UpdateAward(ctx, project.ID, in.TenderNumber, in.ContractNumber); err != nil {
		return Summary{}, err
	}

	fd, err := s.store.CreateFeeDetails(ctx, projects.FeeDetails{
		ProjectID:      project.ID,
		ContractAmount: in.ContractAmount,
		WinningTime:    in.WinningTime,
	})
	if err != nil {
		return Summary{}, err
	}

	s.log.Info("award recorded", "project", project.ID.String(), "contract", in.ContractNumber, "amount", fd.ContractAmount)

	return Summary{
		Outcome:   OutcomeCreated,
		ProjectID: project.ID,
	}, nil
}
