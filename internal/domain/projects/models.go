package projects

import (
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPlanning  Status = "planning"
	StatusActive    Status = "active"
	StatusOnHold    Status = "on-hold"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

type Client struct {
	Company string `json:"company"`
	Name    string `json:"name"`
	Email   string `json:"email,omitempty"`
	Phone   string `json:"phone,omitempty"`
}

type Budget struct {
	Allocated decimal.Decimal `json:"allocated"`
}

type Timeline struct {
	StartDate time.Time `json:"startDate"`
}

type Project struct {
	ID           string    `json:"id"`
	ProjectCode  string    `json:"projectId"`
	Name         string    `json:"name"`
	LeadID       *string   `json:"leadId,omitempty"`
	Client       Client    `json:"client"`
	Budget       Budget    `json:"budget"`
	Timeline     Timeline  `json:"timeline"`
	Technologies []string  `json:"technologies"`
	Status       Status    `json:"status"`
	CreatedBy    *string   `json:"createdBy,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

type CreateInput struct {
	Name         string          `json:"name"`
	Client       Client          `json:"client"`
	Budget       decimal.Decimal `json:"budget"`
	StartDate    time.Time       `json:"startDate"`
	Technologies []string        `json:"technologies"`
}

type ListFilter struct {
	Status Status
	LeadID string
	Limit  int
	Offset int
}
