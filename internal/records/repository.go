package records

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store persists delivery records.
type Store interface {
	Save(ctx context.Context, rec DeliveryRecord) error
	ListByProject(ctx context.Context, projectID uuid.UUID) ([]DeliveryRecord, error)
}

// Repo implements Store with PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new delivery record repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Compile-time check that Repo implements Store.
var _ Store = (*Repo)(nil)

// Save inserts one delivery record. Records are append-only.
func (r *Repo) Save(ctx context.Context, rec DeliveryRecord) error {
	query := `
		INSERT INTO delivery_records (id, project_id, stage, recipient, subject, body, status, error_detail, sent_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	id := rec.ID
	if id == uuid.Nil {
		id = uuid.New()
	}

	_, err := r.pool.Exec(ctx, query,
		id, rec.ProjectID, rec.Stage, rec.Recipient, rec.Subject, rec.Body,
		rec.Status, rec.ErrorDetail, rec.SentAt,
	)
	if err != nil {
		return fmt.Errorf("save delivery record: %w", err)
	}
	return nil
}

// ListByProject returns a project's delivery log, newest first.
func (r *Repo) ListByProject(ctx context.Context, projectID uuid.UUID) ([]DeliveryRecord, error) {
	query := `
		SELECT id, project_id, stage, recipient, subject, body, status, error_detail, sent_at, created_at
		FROM delivery_records
		WHERE project_id = $1
		ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("list delivery records: %w", err)
	}
	defer rows.Close()

	var out []DeliveryRecord
	for rows.Next() {
		var rec DeliveryRecord
		if err := rows.Scan(
			&rec.ID, &rec.ProjectID, &rec.Stage, &rec.Recipient, &rec.Subject, &rec.Body,
			&rec.Status, &rec.ErrorDetail, &rec.SentAt, &rec.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan delivery record: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
