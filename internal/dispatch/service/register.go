package service

import (
	"context"
	"fmt"

	"bidrelay_backend/internal/conversation"
	"bidrelay_backend/internal/directory"
	"bidrelay_backend/internal/projects"
	"bidrelay_backend/platform/apperr"
)

// RegisterInput is the registration business event: a new bidding
// project with one serial number per invited counterparty.
type RegisterInput struct {
	ProjectName   string
	SerialNumbers [3]string
}

// Register creates the project, advances the rotating mail alias, and
// fans out three independent A1→A2 invitation chains.
func (s *Service) Register(ctx context.Context, in RegisterInput) (Summary, error) {
	bCompanies, err := s.dir.ListByRole(ctx, directory.RoleB, 1)
	if err != nil {
		return Summary{}, err
	}
	if len(bCompanies) == 0 {
		return Summary{}, apperr.Config("no B-role company in directory")
	}
	b := bCompanies[0]

	counterparties, err := s.dir.ListByRole(ctx, directory.RoleD, registrationFanOut)
	if err != nil {
		return Summary{}, err
	}
	if len(counterparties) != registrationFanOut {
		return Summary{}, apperr.Config(fmt.Sprintf("registration requires %d D-role companies, directory has %d", registrationFanOut, len(counterparties)))
	}

	// The alias is decided once, before the project exists, and stored
	// immutably on it.
	previous, err := s.store.MostRecentAlias(ctx)
	if err != nil {
		return Summary{}, err
	}
	alias := s.rotation.Next(previous)

	project, err := s.store.Create(ctx, projects.Project{
		Name:          in.ProjectName,
		SerialNumbers: in.SerialNumbers,
		CompanyB:      b.Name,
		MailAlias:     alias,
	})
	if err != nil {
		return Summary{}, err
	}

	invitations := make([]conversation.Invitation, 0, registrationFanOut)
	for i, company := range counterparties {
		d := company.Participant()
		if company.IsPR {
			account, err := s.dir.GetMailAccount(ctx, alias)
			if err != nil {
				if apperr.Is(err, apperr.KindNotFound) {
					return Summary{}, apperr.Config("rotating alias " + alias + " has no mail account")
				}
				return Summary{}, err
			}
			d = account.Apply(d)
		}
		invitations = append(invitations, conversation.Invitation{
			D:            d,
			SerialNumber: in.SerialNumbers[i],
		})
	}

	info := conversation.ProjectInfo{
		ID:    project.ID,
		Name:  project.Name,
		Alias: alias,
	}

	chains, err := s.builder.BuildRegistrationChains(ctx, conversation.RegistrationInput{
		Project:     info,
		B:           b.Participant(),
		Invitations: invitations,
	})
	if err != nil {
		return Summary{}, err
	}

	summary := Summary{
		Outcome:   OutcomeCreated,
		ProjectID: project.ID,
		MailAlias: alias,
	}
	for _, chain := range chains {
		if err := s.sched.ScheduleChain(ctx, chain.Head, secondsToDuration(chain.InitialDelay)); err != nil {
			return Summary{}, fmt.Errorf("schedule registration chain: %w", err)
		}
		s.log.ChainScheduled(string(chain.Head.Stage), chain.Head.To, chain.InitialDelay)
		summary.Chains = append(summary.Chains, chainSummary(chain.Head, chain.InitialDelay))
	}

	return summary, nil
}
