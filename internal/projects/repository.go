package projects

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"bidrelay_backend/platform/apperr"
)

const projectColumns = `id, name, serial_number_1, serial_number_2, serial_number_3,
	tender_number, contract_number, classification, company_b, company_c, company_d, mail_alias,
	a1, a2, b3, b4, b5, b6, c7, c8, c9, c10, created_at, updated_at`

// stageColumns whitelists the phase-flag column per stage label. The
// B5 variant completes the same phase as B5.
var stageColumns = map[string]string{
	"A1": "a1", "A2": "a2",
	"B3": "b3", "B4": "b4", "B5": "b5", "B5_SPEC": "b5", "B6": "b6",
	"C7": "c7", "C8": "c8", "C9": "c9", "C10": "c10",
}

// Repo implements project persistence with PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new projects repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Create inserts a new project and returns it with generated fields.
func (r *Repo) Create(ctx context.Context, p Project) (Project, error) {
	query := fmt.Sprintf(`
		INSERT INTO projects (id, name, serial_number_1, serial_number_2, serial_number_3,
			tender_number, contract_number, classification, company_b, company_c, company_d, mail_alias)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING %s`, projectColumns)

	id := p.ID
	if id == uuid.Nil {
		id = uuid.New()
	}
	classification := p.Classification
	if classification == "" {
		classification = "unclassified"
	}

	row := r.pool.QueryRow(ctx, query,
		id, p.Name, p.SerialNumbers[0], p.SerialNumbers[1], p.SerialNumbers[2],
		p.TenderNumber, p.ContractNumber, classification,
		p.CompanyB, p.CompanyC, p.CompanyD, p.MailAlias,
	)
	created, err := scanProject(row)
	if err != nil {
		return Project{}, fmt.Errorf("create project: %w", err)
	}
	return created, nil
}

// GetByID retrieves a project by its ID.
func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (Project, error) {
	query := fmt.Sprintf(`SELECT %s FROM projects WHERE id = $1`, projectColumns)
	return r.getOne(ctx, query, id)
}

// GetBySerialNumber retrieves the project carrying the serial number in
// any of its three parallel slots.
func (r *Repo) GetBySerialNumber(ctx context.Context, serial string) (Project, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM projects
		WHERE serial_number_1 = $1 OR serial_number_2 = $1 OR serial_number_3 = $1`, projectColumns)
	return r.getOne(ctx, query, serial)
}

// GetByTenderNumber retrieves a project by its tender number.
func (r *Repo) GetByTenderNumber(ctx context.Context, tenderNumber string) (Project, error) {
	query := fmt.Sprintf(`SELECT %s FROM projects WHERE tender_number = $1`, projectColumns)
	return r.getOne(ctx, query, tenderNumber)
}

// GetByContractNumber retrieves a project by its contract number.
func (r *Repo) GetByContractNumber(ctx context.Context, contractNumber string) (Project, error) {
	query := fmt.Sprintf(`SELECT %s FROM projects WHERE contract_number = $1`, projectColumns)
	return r.getOne(ctx, query, contractNumber)
}

// List returns projects newest first, up to limit.
func (r *Repo) List(ctx context.Context, limit int) ([]Project, error) {
	query := fmt.Sprintf(`SELECT %s FROM projects ORDER BY created_at DESC LIMIT $1`, projectColumns)

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var out []Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// UpdateAward records the award figures on the project.
func (r *Repo) UpdateAward(ctx context.Context, id uuid.UUID, tenderNumber, contractNumber string) error {
	query := `
		UPDATE projects
		SET tender_number = $2, contract_number = $3, updated_at = now()
		WHERE id = $1`

	tag, err := r.pool.Exec(ctx, query, id, tenderNumber, contractNumber)
	if err != nil {
		return fmt.Errorf("update project award: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("project not found")
	}
	return nil
}

// UpdateClassification stores the resolved topology and C/D parties.
func (r *Repo) UpdateClassification(ctx context.Context, id uuid.UUID, classification, companyC, companyD string) error {
	query := `
		UPDATE projects
		SET classification = $2, company_c = $3, company_d = $4, updated_at = now()
		WHERE id = $1`

	tag, err := r.pool.Exec(ctx, query, id, classification, companyC, companyD)
	if err != nil {
		return fmt.Errorf("update project classification: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("project not found")
	}
	return nil
}

// MarkStageDone flips the phase-completion flag for a stage label.
func (r *Repo) MarkStageDone(ctx context.Context, id uuid.UUID, stage string) error {
	column, ok := stageColumns[stage]
	if !ok {
		return apperr.Validation("unknown stage " + stage)
	}

	query := fmt.Sprintf(`UPDATE projects SET %s = TRUE, updated_at = now() WHERE id = $1`, column)
	if _, err := r.pool.Exec(ctx, query, id); err != nil {
		return fmt.Errorf("mark stage %s done: %w", stage, err)
	}
	return nil
}

// MostRecentAlias returns the mail alias of the most recently created
// project that has one, or "" when no prior project exists. Seeds the
// alias rotation for the next registration.
func (r *Repo) MostRecentAlias(ctx context.Context) (string, error) {
	query := `
		SELECT mail_alias FROM projects
		WHERE mail_alias <> ''
		ORDER BY created_at DESC
		LIMIT 1`

	var alias string
	err := r.pool.QueryRow(ctx, query).Scan(&alias)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("most recent alias: %w", err)
	}
	return alias, nil
}

// CreateFeeDetails inserts the 1:1 financial record at award time.
func (r *Repo) CreateFeeDetails(ctx context.Context, fd FeeDetails) (FeeDetails, error) {
	query := `
		INSERT INTO project_fee_details (id, project_id, contract_amount, winning_time)
		VALUES ($1, $2, NULLIF($3, '')::numeric, $4)
		ON CONFLICT (project_id) DO UPDATE
		SET contract_amount = EXCLUDED.contract_amount, winning_time = EXCLUDED.winning_time, updated_at = now()
		RETURNING id, project_id, COALESCE(contract_amount::text, ''), winning_time,
			COALESCE(received_amount::text, ''), receivable_items, is_sent, created_at, updated_at`

	id := fd.ID
	if id == uuid.Nil {
		id = uuid.New()
	}

	row := r.pool.QueryRow(ctx, query, id, fd.ProjectID, fd.ContractAmount, fd.WinningTime)
	created, err := scanFeeDetails(row)
	if err != nil {
		return FeeDetails{}, fmt.Errorf("create fee details: %w", err)
	}
	return created, nil
}

// GetFeeDetails retrieves the fee details for a project.
func (r *Repo) GetFeeDetails(ctx context.Context, projectID uuid.UUID) (FeeDetails, error) {
	query := `
		SELECT id, project_id, COALESCE(contract_amount::text, ''), winning_time,
			COALESCE(received_amount::text, ''), receivable_items, is_sent, created_at, updated_at
		FROM project_fee_details
		WHERE project_id = $1`

	fd, err := scanFeeDetails(r.pool.QueryRow(ctx, query, projectID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return FeeDetails{}, apperr.NotFound("fee details not found")
		}
		return FeeDetails{}, fmt.Errorf("get fee details: %w", err)
	}
	return fd, nil
}

// UpdateSettlement stores the itemized settlement breakdown.
func (r *Repo) UpdateSettlement(ctx context.Context, projectID uuid.UUID, receivedAmount string, items []ReceivableItem) error {
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("marshal receivable items: %w", err)
	}

	query := `
		UPDATE project_fee_details
		SET received_amount = NULLIF($2, '')::numeric, receivable_items = $3, updated_at = now()
		WHERE project_id = $1`

	tag, err := r.pool.Exec(ctx, query, projectID, receivedAmount, data)
	if err != nil {
		return fmt.Errorf("update settlement: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("fee details not found")
	}
	return nil
}

// MarkSettlementSent flips the duplicate-dispatch guard.
func (r *Repo) MarkSettlementSent(ctx context.Context, projectID uuid.UUID) error {
	query := `UPDATE project_fee_details SET is_sent = TRUE, updated_at = now() WHERE project_id = $1`

	tag, err := r.pool.Exec(ctx, query, projectID)
	if err != nil {
		return fmt.Errorf("mark settlement sent: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("fee details not found")
	}
	return nil
}

func (r *Repo) getOne(ctx context.Context, query string, arg any) (Project, error) {
	p, err := scanProject(r.pool.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Project{}, apperr.NotFound("project not found")
		}
		return Project{}, fmt.Errorf("get project: %w", err)
	}
	return p, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProject(row rowScanner) (Project, error) {
	var p Project
	err := row.Scan(
		&p.ID, &p.Name, &p.SerialNumbers[0], &p.SerialNumbers[1], &p.SerialNumbers[2],
		&p.TenderNumber, &p.ContractNumber, &p.Classification,
		&p.CompanyB, &p.CompanyC, &p.CompanyD, &p.MailAlias,
		&p.Phases.A1, &p.Phases.A2, &p.Phases.B3, &p.Phases.B4, &p.Phases.B5, &p.Phases.B6,
		&p.Phases.C7, &p.Phases.C8, &p.Phases.C9, &p.Phases.C10,
		&p.CreatedAt, &p.UpdatedAt,
	)
	return p, err
}

func scanFeeDetails(row rowScanner) (FeeDetails, error) {
	var fd FeeDetails
	var items []byte
	err := row.Scan(
		&fd.ID, &fd.ProjectID, &fd.ContractAmount, &fd.WinningTime,
		&fd.ReceivedAmount, &items, &fd.IsSent, &fd.CreatedAt, &fd.UpdatedAt,
	)
	if err != nil {
		return FeeDetails{}, err
	}
	if len(items) > 0 {
		if err := json.Unmarshal(items, &fd.ReceivableItems); err != nil {
			return FeeDetails{}, fmt.Errorf("unmarshal receivable items: %w", err)
		}
	}
	return fd, nil
}
