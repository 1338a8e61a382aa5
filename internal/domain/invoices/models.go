package invoices

import (
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusDraft     Status = "draft"
	StatusSent      Status = "sent"
	StatusPaid      Status = "paid"
	StatusCancelled Status = "cancelled"
)

type Item struct {
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	Amount      decimal.Decimal `json:"amount"`
}

type Invoice struct {
	ID            string          `json:"id"`
	InvoiceNumber string          `json:"invoiceNumber"`
	ClientName    string          `json:"clientName"`
	ClientEmail   string          `json:"clientEmail,omitempty"`
	LeadID        *string         `json:"leadId,omitempty"`
	ProjectID     *string         `json:"projectId,omitempty"`
	Items         []Item          `json:"items"`
	Currency      string          `json:"currency"`
	TaxRate       decimal.Decimal `json:"taxRate"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	Tax           decimal.Decimal `json:"tax"`
	Total         decimal.Decimal `json:"total"`
	Status        Status          `json:"status"`
	DueDate       *time.Time      `json:"dueDate,omitempty"`
	PaidAt        *time.Time      `json:"paidAt,omitempty"`
	CreatedBy     string          `json:"createdBy"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

type ItemInput struct {
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
}

type CreateInput struct {
	ClientName  string          `json:"clientName"`
	ClientEmail string          `json:"clientEmail"`
	LeadID      *string         `json:"leadId"`
	ProjectID   *string         `json:"projectId"`
	Items       []ItemInput     `json:"items"`
	Currency    string          `json:"currency"`
	TaxRate     decimal.Decimal `json:"taxRate"`
	DueDate     *time.Time      `json:"dueDate"`
}

type UpdateInput struct {
	ClientName  *string          `json:"clientName"`
	ClientEmail *string          `json:"clientEmail"`
	Items       []ItemInput      `json:"items"`
	TaxRate     *decimal.Decimal `json:"taxRate"`
	DueDate     *time.Time       `json:"dueDate"`
	Status      *Status          `json:"status"`
}

type ListFilter struct {
	Status Status
	Limit  int
	Offset int
}
