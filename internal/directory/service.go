package directory

import (
	"context"
	"fmt"

	"bidrelay_backend/platform/config"
	"bidrelay_backend/platform/phone"
	"bidrelay_backend/platform/smtpcrypto"
)

// Reader is the directory surface the dispatch layer depends on.
type Reader interface {
	GetByName(ctx context.Context, name string) (Company, error)
	GetByShortCode(ctx context.Context, shortCode, role string) (Company, error)
	ListByRole(ctx context.Context, role string, limit int) ([]Company, error)
	GetMailAccount(ctx context.Context, alias string) (MailAccount, error)
}

// Service wraps the repository and post-processes rows: SMTP passwords
// are decrypted and contact phones normalized to E.164 on read.
type Service struct {
	repo *Repo
	cfg  config.DirectoryConfig
}

// NewService creates a directory service.
func NewService(repo *Repo, cfg config.DirectoryConfig) *Service {
	return &Service{repo: repo, cfg: cfg}
}

// Compile-time check that Service implements Reader.
var _ Reader = (*Service)(nil)

// GetByName retrieves a company by name with credentials decrypted.
func (s *Service) GetByName(ctx context.Context, name string) (Company, error) {
	c, err := s.repo.GetByName(ctx, name)
	if err != nil {
		return Company{}, err
	}
	return s.prepare(c)
}

// GetByShortCode retrieves a company by short code and role with credentials decrypted.
func (s *Service) GetByShortCode(ctx context.Context, shortCode, role string) (Company, error) {
	c, err := s.repo.GetByShortCode(ctx, shortCode, role)
	if err != nil {
		return Company{}, err
	}
	return s.prepare(c)
}

// ListByRole retrieves companies by role with credentials decrypted.
func (s *Service) ListByRole(ctx context.Context, role string, limit int) ([]Company, error) {
	companies, err := s.repo.ListByRole(ctx, role, limit)
	if err != nil {
		return nil, err
	}
	for i, c := range companies {
		prepared, err := s.prepare(c)
		if err != nil {
			return nil, err
		}
		companies[i] = prepared
	}
	return companies, nil
}

// GetMailAccount retrieves a rotating-pool account with its password decrypted.
func (s *Service) GetMailAccount(ctx context.Context, alias string) (MailAccount, error) {
	a, err := s.repo.GetMailAccount(ctx, alias)
	if err != nil {
		return MailAccount{}, err
	}
	if a.SMTPPassword != "" {
		plain, err := smtpcrypto.Decrypt(a.SMTPPassword, s.cfg.GetSMTPEncryptionKey())
		if err != nil {
			return MailAccount{}, fmt.Errorf("decrypt mail account password for alias %s: %w", a.Alias, err)
		}
		a.SMTPPassword = plain
	}
	return a, nil
}

func (s *Service) prepare(c Company) (Company, error) {
	if c.SMTPPassword != "" {
		plain, err := smtpcrypto.Decrypt(c.SMTPPassword, s.cfg.GetSMTPEncryptionKey())
		if err != nil {
			return Company{}, fmt.Errorf("decrypt smtp password for company %s: %w", c.Name, err)
		}
		c.SMTPPassword = plain
	}
	c.Phone = phone.NormalizeE164(c.Phone)
	return c, nil
}
