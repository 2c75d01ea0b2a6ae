package directory

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"bidrelay_backend/platform/apperr"
)

const companyColumns = `id, name, short_name, short_code, role, is_pr, email, contact_name, phone, address,
	smtp_host, smtp_port, smtp_username, smtp_password_enc, from_name, from_addr`

// Repo reads the company directory with PostgreSQL. SMTP passwords come
// back encrypted; the Service decrypts them.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new directory repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// GetByName retrieves a company by its exact name.
func (r *Repo) GetByName(ctx context.Context, name string) (Company, error) {
	query := fmt.Sprintf(`SELECT %s FROM companies WHERE name = $1`, companyColumns)

	c, err := scanCompany(r.pool.QueryRow(ctx, query, name))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Company{}, apperr.NotFound("company not found")
		}
		return Company{}, fmt.Errorf("get company by name: %w", err)
	}
	return c, nil
}

// GetByShortCode retrieves a company by short code within a role.
func (r *Repo) GetByShortCode(ctx context.Context, shortCode, role string) (Company, error) {
	query := fmt.Sprintf(`SELECT %s FROM companies WHERE short_code = $1 AND role = $2`, companyColumns)

	c, err := scanCompany(r.pool.QueryRow(ctx, query, shortCode, role))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Company{}, apperr.NotFound("company not found")
		}
		return Company{}, fmt.Errorf("get company by short code: %w", err)
	}
	return c, nil
}

// ListByRole retrieves up to limit companies with the given role,
// ordered by name for a stable fan-out.
func (r *Repo) ListByRole(ctx context.Context, role string, limit int) ([]Company, error) {
	query := fmt.Sprintf(`SELECT %s FROM companies WHERE role = $1 ORDER BY name ASC LIMIT $2`, companyColumns)

	rows, err := r.pool.Query(ctx, query, role, limit)
	if err != nil {
		return nil, fmt.Errorf("list companies by role: %w", err)
	}
	defer rows.Close()

	var out []Company
	for rows.Next() {
		c, err := scanCompany(rows)
		if err != nil {
			return nil, fmt.Errorf("scan company: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// GetMailAccount retrieves the rotating-pool account for an alias.
func (r *Repo) GetMailAccount(ctx context.Context, alias string) (MailAccount, error) {
	query := `
		SELECT id, alias, company_name, email, smtp_host, smtp_port, smtp_username, smtp_password_enc, from_name, from_addr
		FROM mail_accounts
		WHERE alias = $1`

	var a MailAccount
	err := r.pool.QueryRow(ctx, query, alias).Scan(
		&a.ID, &a.Alias, &a.CompanyName, &a.Email,
		&a.SMTPHost, &a.SMTPPort, &a.SMTPUsername, &a.SMTPPassword,
		&a.FromName, &a.FromAddr,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return MailAccount{}, apperr.NotFound("mail account not found")
		}
		return MailAccount{}, fmt.Errorf("get mail account: %w", err)
	}
	return a, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCompany(row rowScanner) (Company, error) {
	var c Company
	err := row.Scan(
		&c.ID, &c.Name, &c.ShortName, &c.ShortCode, &c.Role, &c.IsPR,
		&c.Email, &c.ContactName, &c.Phone, &c.Address,
		&c.SMTPHost, &c.SMTPPort, &c.SMTPUsername, &c.SMTPPassword,
		&c.FromName, &c.FromAddr,
	)
	return c, err
}
