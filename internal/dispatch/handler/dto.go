package handler

// RegisterRequest is the inbound registration webhook payload.
type RegisterRequest struct {
	ProjectName   string    `json:"projectName" binding:"required"`
	SerialNumbers [3]string `json:"serialNumbers" binding:"required" validate:"dive,required"`
}

// AwardRequest is the inbound winning-info webhook payload.
type AwardRequest struct {
	SerialNumber   string `json:"serialNumber" binding:"required"`
	TenderNumber   string `json:"tenderNumber" binding:"required"`
	ContractNumber string `json:"contractNumber" binding:"required"`
	ContractAmount string `json:"contractAmount" binding:"required" validate:"amount"`
	// WinningTime is an RFC 3339 timestamp; optional.
	WinningTime string `json:"winningTime"`
}

// ContractItemRequest is one audited contract line.
type ContractItemRequest struct {
	Type     string `json:"type" binding:"required"`
	Payer    string `json:"payer"`
	CompanyC string `json:"companyC"`
	CompanyD string `json:"companyD"`
}

// AuditRequest is the inbound contract-audit webhook payload.
type AuditRequest struct {
	SerialNumber string                `json:"serialNumber" binding:"required"`
	Items        []ContractItemRequest `json:"items" binding:"required"`
}

// ReceivableItemRequest is one itemized settlement fee line.
type ReceivableItemRequest struct {
	Name   string `json:"name" binding:"required"`
	Amount string `json:"amount" binding:"required" validate:"amount"`
}

// SettleRequest is the inbound settlement webhook payload.
type SettleRequest struct {
	ContractNumber  string                  `json:"contractNumber" binding:"required"`
	ReceivedAmount  string                  `json:"receivedAmount" binding:"required" validate:"amount"`
	ReceivableItems []ReceivableItemRequest `json:"receivableItems" validate:"dive"`
}
