// Package service implements the project classifier and dispatcher:
// it turns inbound business events into persisted project state and
// scheduled conversation chains.
package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"bidrelay_backend/internal/conversation"
	"bidrelay_backend/internal/directory"
	"bidrelay_backend/internal/events"
	"bidrelay_backend/internal/projects"
	"bidrelay_backend/internal/sheets"
	"bidrelay_backend/platform/apperr"
	"bidrelay_backend/platform/logger"
)

// Contract line item vocabulary the classifier matches on.
const (
	ContractItemMultiParty = "three_four_party_contract"
	PayerDesignationPay    = "pay"
)

// registrationFanOut is the fixed number of D-role counterparties
// invited per registration.
const registrationFanOut = 3

// ProjectStore is the project persistence surface the dispatcher needs.
type ProjectStore interface {
	Create(ctx context.Context, p projects.Project) (projects.Project, error)
	GetByID(ctx context.Context, id uuid.UUID) (projects.Project, error)
	GetBySerialNumber(ctx context.Context, serial string) (projects.Project, error)
	GetByContractNumber(ctx context.Context, contractNumber string) (projects.Project, error)
	UpdateAward(ctx context.Context, id uuid.UUID, tenderNumber, contractNumber string) error
	UpdateClassification(ctx context.Context, id uuid.UUID, classification, companyC, companyD string) error
	MostRecentAlias(ctx context.Context) (string, error)
	CreateFeeDetails(ctx context.Context, fd projects.FeeDetails) (projects.FeeDetails, error)
	GetFeeDetails(ctx context.Context, projectID uuid.UUID) (projects.FeeDetails, error)
	UpdateSettlement(ctx context.Context, projectID uuid.UUID, receivedAmount string, items []projects.ReceivableItem) error
	MarkSettlementSent(ctx context.Context, projectID uuid.UUID) error
}

// ChainScheduler hands built chains to the deferred task layer.
type ChainScheduler interface {
	ScheduleChain(ctx context.Context, head *conversation.Descriptor, initialDelay time.Duration) error
	ScheduleArchiveUpload(ctx context.Context, localPath, remoteName string) error
}

// SheetGenerator writes one settlement workbook.
type SheetGenerator interface {
	Generate(in sheets.Input) (sheets.Sheet, error)
}

// Service orchestrates classification and chain dispatch.
type Service struct {
	dir      directory.Reader
	store    ProjectStore
	builder  *conversation.Builder
	sched    ChainScheduler
	sheets   SheetGenerator
	rotation conversation.AliasRotationPolicy
	bus      events.Bus
	log      *logger.Logger
}

// New creates the dispatch service. sheets may be nil when settlement
// sheet generation is disabled (chains then go out without attachments).
func New(dir directory.Reader, store ProjectStore, builder *conversation.Builder, sched ChainScheduler, gen SheetGenerator, bus events.Bus, log *logger.Logger) *Service {
	return &Service{
		dir:     dir,
		store:   store,
		builder: builder,
		sched:   sched,
		sheets:  gen,
		bus:     bus,
		log:     log,
	}
}

// ChainSummary describes one scheduled chain for the synchronous response.
type ChainSummary struct {
	Stages       []string `json:"stages"`
	InitialDelay int64    `json:"initialDelaySeconds"`
}

// Summary is the synchronous classification/dispatch outcome. The
// actual chain runs on worker timelines; callers observe it only
// through the delivery records.
type Summary struct {
	Outcome        string         `json:"outcome"`
	Reason         string         `json:"reason,omitempty"`
	ProjectID      uuid.UUID      `json:"projectId,omitempty"`
	Classification string         `json:"classification,omitempty"`
	MailAlias      string         `json:"mailAlias,omitempty"`
	Chains         []ChainSummary `json:"chains,omitempty"`
}

// Summary outcomes.
const (
	OutcomeDispatched  = "dispatched"
	OutcomeNoop        = "noop"
	OutcomeAlreadySent = "already_sent"
	OutcomeCreated     = "created"
)

func secondsToDuration(seconds int64) time.Duration {
	return time.Duration(seconds) * time.Second
}

func chainSummary(head *conversation.Descriptor, initialDelay int64) ChainSummary {
	stages := head.Stages()
	out := ChainSummary{InitialDelay: initialDelay}
	for _, s := range stages {
		out.Stages = append(out.Stages, string(s))
	}
	return out
}

// resolveParticipant loads a company and captures it into a chain
// snapshot. When the company is the rotating PR identity, the project's
// assigned alias account replaces its outbound credentials.
func (s *Service) resolveParticipant(ctx context.Context, name, alias string) (conversation.Participant, error) {
	company, err := s.dir.GetByName(ctx, name)
	if err != nil {
		return conversation.Participant{}, err
	}

	p := company.Participant()
	if company.IsPR && alias != "" {
		account, err := s.dir.GetMailAccount(ctx, alias)
		if err != nil {
			if apperr.Is(err, apperr.KindNotFound) {
				return conversation.Participant{}, apperr.Config("rotating alias " + alias + " has no mail account")
			}
			return conversation.Participant{}, err
		}
		p = account.Apply(p)
	}
	return p, nil
}

// projectInfo assembles the immutable snapshot rendered into chains.
// Fee details are optional; before award there are none.
func (s *Service) projectInfo(ctx context.Context, p projects.Project) conversation.ProjectInfo {
	info := conversation.ProjectInfo{
		ID:             p.ID,
		Name:           p.Name,
		SerialNumber:   p.SerialNumbers[0],
		TenderNumber:   p.TenderNumber,
		ContractNumber: p.ContractNumber,
		Alias:          p.MailAlias,
		Classification: conversation.ParseClassification(p.Classification),
	}

	fd, err := s.store.GetFeeDetails(ctx, p.ID)
	if err == nil {
		info.ContractAmount = fd.ContractAmount
		if fd.WinningTime != nil {
			info.WinningTime = fd.WinningTime.Format("2006-01-02")
		}
	} else if !apperr.Is(err, apperr.KindNotFound) {
		s.log.DatabaseError("get fee details", err)
	}
	return info
}
