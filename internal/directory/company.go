// Package directory is the read-only company directory: who the B/C/D
// parties are, their contact and signature fields, and their outbound
// mail credentials. Managed out-of-band; the core only reads it.
package directory

import (
	"github.com/google/uuid"

	"bidrelay_backend/internal/conversation"
)

// Company roles.
const (
	RoleB        = "B"
	RoleC        = "C"
	RoleD        = "D"
	RoleExternal = "external"
)

// Company is a directory entry keyed by name.
type Company struct {
	ID          uuid.UUID
	Name        string
	ShortName   string
	ShortCode   string
	Role        string
	IsPR        bool
	Email       string
	ContactName string
	Phone       string
	Address     string

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	// SMTPPassword is held decrypted in memory only; the column stores ciphertext.
	SMTPPassword string
	FromName     string
	FromAddr     string
}

// Participant captures the company into an immutable chain snapshot.
func (c Company) Participant() conversation.Participant {
	return conversation.Participant{
		Name:        c.Name,
		ShortName:   c.ShortName,
		ShortCode:   c.ShortCode,
		Email:       c.Email,
		ContactName: c.ContactName,
		Phone:       c.Phone,
		Address:     c.Address,
		SMTP: conversation.SMTPAccount{
			Host:     c.SMTPHost,
			Port:     c.SMTPPort,
			Username: c.SMTPUsername,
			Password: c.SMTPPassword,
			FromName: c.FromName,
			FromAddr: c.FromAddr,
		},
		IsPR: c.IsPR,
	}
}

// MailAccount is one identity from the rotating alias pool used by the
// PR counterparty. Aliased accounts replace the company's own outbound
// credentials for the project they are assigned to.
type MailAccount struct {
	ID           uuid.UUID
	Alias        string
	CompanyName  string
	Email        string
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	FromName     string
	FromAddr     string
}

// Apply overlays the aliased account onto a participant snapshot.
func (a MailAccount) Apply(p conversation.Participant) conversation.Participant {
	p.Email = a.Email
	p.SMTP = conversation.SMTPAccount{
		Host:     a.SMTPHost,
		Port:     a.SMTPPort,
		Username: a.SMTPUsername,
		Password: a.SMTPPassword,
		FromName: a.FromName,
		FromAddr: a.FromAddr,
	}
	return p
}
