package conversation

import (
	"context"

	"github.com/google/uuid"
)

// Participant is an immutable snapshot of a directory company captured
// at chain-build time.
type Participant struct {
	Name        string
	ShortName   string
	ShortCode   string
	Email       string
	ContactName string
	Phone       string
	Address     string
	SMTP        SMTPAccount

	// IsPR marks the rotating "PR" identity among the D-role counterparties.
	// Set by the directory layer; drives the compliance CC policy.
	IsPR bool
}

// ProjectInfo is the immutable project snapshot rendered into subjects
// and bodies.
type ProjectInfo struct {
	ID             uuid.UUID
	Name           string
	SerialNumber   string
	TenderNumber   string
	ContractNumber string
	ContractAmount string
	WinningTime    string
	Alias          string
	Classification Classification
}

// Fields is the placeholder vocabulary handed to the renderer.
type Fields struct {
	CompanyName    string
	ShortName      string
	ProjectName    string
	SerialNumber   string
	TenderNumber   string
	ContractAmount string
	WinningTime    string

	SenderCompany string
	SenderContact string
	SenderPhone   string
	SenderAddress string
}

// Renderer resolves a stage and sending company to rendered subject and
// body text. Implemented by the email module; kept as an interface so
// chain construction stays pure.
type Renderer interface {
	Subject(ctx context.Context, stage Stage, senderShortCode string, f Fields) (string, error)
	Body(ctx context.Context, stage Stage, f Fields) (string, error)
}
