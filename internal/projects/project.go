// Package projects owns the bidding-engagement records: one row per
// project, created at registration, classified at contract audit, and
// frozen once settlement begins.
package projects

import (
	"time"

	"github.com/google/uuid"
)

// Project is one bidding engagement.
type Project struct {
	ID             uuid.UUID  `json:"id"`
	Name           string     `json:"name"`
	SerialNumbers  [3]string  `json:"serialNumbers"`
	TenderNumber   string     `json:"tenderNumber"`
	ContractNumber string     `json:"contractNumber"`
	Classification string     `json:"classification"`
	CompanyB       string     `json:"companyB"`
	CompanyC       string     `json:"companyC"`
	CompanyD       string     `json:"companyD"`
	MailAlias      string     `json:"mailAlias"`
	Phases         PhaseFlags `json:"phases"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

// PhaseFlags records which conversation stages have completed for the
// project. Set when a stage's delivery record is persisted with success.
type PhaseFlags struct {
	A1  bool `json:"a1"`
	A2  bool `json:"a2"`
	B3  bool `json:"b3"`
	B4  bool `json:"b4"`
	B5  bool `json:"b5"`
	B6  bool `json:"b6"`
	C7  bool `json:"c7"`
	C8  bool `json:"c8"`
	C9  bool `json:"c9"`
	C10 bool `json:"c10"`
}

// HasAllSerials reports whether the project carries all three parallel
// serial numbers, i.e. went through a full registration.
func (p Project) HasAllSerials() bool {
	for _, s := range p.SerialNumbers {
		if s == "" {
			return false
		}
	}
	return true
}

// ReceivableItem is one itemized settlement fee line.
type ReceivableItem struct {
	Name   string `json:"name"`
	Amount string `json:"amount"`
}

// FeeDetails holds the financial figures attached 1:1 to a project.
// Created at award time, itemized at settlement time. IsSent guards
// against duplicate settlement dispatch.
type FeeDetails struct {
	ID              uuid.UUID        `json:"id"`
	ProjectID       uuid.UUID        `json:"projectId"`
	ContractAmount  string           `json:"contractAmount"`
	WinningTime     *time.Time       `json:"winningTime,omitempty"`
	ReceivedAmount  string           `json:"receivedAmount"`
	ReceivableItems []ReceivableItem `json:"receivableItems"`
	IsSent          bool             `json:"isSent"`
	CreatedAt       time.Time        `json:"createdAt"`
	UpdatedAt       time.Time        `json:"updatedAt"`
}
