package email

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"bidrelay_backend/platform/apperr"
)

// SubjectSource resolves a stage and sending company to a subject
// template string with {placeholder} markers.
type SubjectSource interface {
	Get(ctx context.Context, stage, shortCode string) (string, error)
}

// SubjectRepo reads subject templates from PostgreSQL.
type SubjectRepo struct {
	pool *pgxpool.Pool
}

// NewSubjectRepo creates a subject template repository.
func NewSubjectRepo(pool *pgxpool.Pool) *SubjectRepo {
	return &SubjectRepo{pool: pool}
}

// Compile-time check that SubjectRepo implements SubjectSource.
var _ SubjectSource = (*SubjectRepo)(nil)

// Get retrieves the subject template for a stage and company short
// code. Falls back to the stage's default template (empty short code)
// when no company-specific row exists.
func (r *SubjectRepo) Get(ctx context.Context, stage, shortCode string) (string, error) {
	query := `
		SELECT template FROM subject_templates
		WHERE stage = $1 AND short_code = $2`

	var template string
	err := r.pool.QueryRow(ctx, query, stage, shortCode).Scan(&template)
	if errors.Is(err, pgx.ErrNoRows) && shortCode != "" {
		err = r.pool.QueryRow(ctx, query, stage, "").Scan(&template)
	}
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", apperr.Config(fmt.Sprintf("no subject template for stage %s, short code %q", stage, shortCode))
		}
		return "", fmt.Errorf("get subject template: %w", err)
	}
	return template, nil
}
