package dto

import (
	"time"

	"github.com/vowline/vowline/internal/model"
	"github.com/vowline/vowline/internal/service"
)

// InvoiceItemRequest is one line of an invoice request.
type InvoiceItemRequest struct {
	Description string `json:"description"`
	Quantity    int    `json:"quantity"`
	UnitPrice   Money  `json:"unit_price"`
}

// CreateInvoiceRequest is the body of POST /api/v1/invoices.
// tax_rate is a percentage, e.g. 10 for GST.
type CreateInvoiceRequest struct {
	CoupleID      string               `json:"couple_id"`
	CeremonyID    *string              `json:"ceremony_id,omitempty"`
	InvoiceNumber string               `json:"invoice_number,omitempty"`
	IssueDate     *Date                `json:"issue_date,omitempty"`
	DueDate       *Date                `json:"due_date,omitempty"`
	TaxRate       Percent              `json:"tax_rate"`
	Notes         string               `json:"notes,omitempty"`
	Items         []InvoiceItemRequest `json:"items"`
}

// UpdateInvoiceRequest is the body of PATCH /api/v1/invoices/{id}.
// items replaces every line when present; ceremony_id: null unlinks.
type UpdateInvoiceRequest struct {
	CeremonyID    Nullable[string]      `json:"ceremony_id"`
	InvoiceNumber *string               `json:"invoice_number,omitempty"`
	Status        *string               `json:"status,omitempty"`
	IssueDate     *Date                 `json:"issue_date,omitempty"`
	DueDate       *Date                 `json:"due_date,omitempty"`
	TaxRate       *Percent              `json:"tax_rate,omitempty"`
	PaidDate      *Date                 `json:"paid_date,omitempty"`
	Notes         *string               `json:"notes,omitempty"`
	Items         *[]InvoiceItemRequest `json:"items,omitempty"`
}

// InvoiceItemResponse is one invoice line.
type InvoiceItemResponse struct {
	ID          string `json:"id"`
	Position    int    `json:"position"`
	Description string `json:"description"`
	Quantity    int    `json:"quantity"`
	UnitPrice   Money  `json:"unit_price"`
	Amount      Money  `json:"amount"`
}

// InvoiceResponse represents an invoice in API responses.
type InvoiceResponse struct {
	ID            string                 `json:"id"`
	CoupleID      string                 `json:"couple_id"`
	CeremonyID    *string                `json:"ceremony_id,omitempty"`
	InvoiceNumber string                 `json:"invoice_number"`
	Status        string                 `json:"status"`
	IssueDate     Date                   `json:"issue_date"`
	DueDate       Date                   `json:"due_date"`
	Subtotal      Money                  `json:"subtotal"`
	TaxRate       Percent                `json:"tax_rate"`
	TaxAmount     Money                  `json:"tax_amount"`
	TotalAmount   Money                  `json:"total_amount"`
	PaidDate      *Date                  `json:"paid_date,omitempty"`
	IsOverdue     bool                   `json:"is_overdue"`
	Notes         string                 `json:"notes,omitempty"`
	Items         []*InvoiceItemResponse `json:"items"`
	CreatedAt     time.Time              `json:"created_at"`
	UpdatedAt     time.Time              `json:"updated_at"`
}

// MarkOverdueResponse reports how many invoices were moved to overdue.
type MarkOverdueResponse struct {
	Updated int64 `json:"updated"`
}

// ToItemInputs converts request lines to service input.
func ToItemInputs(items []InvoiceItemRequest) []service.InvoiceItemInput {
	out := make([]service.InvoiceItemInput, 0, len(items))
	for _, it := range items {
		out = append(out, service.InvoiceItemInput{
			Description:    it.Description,
			Quantity:       it.Quantity,
			UnitPriceCents: int64(it.UnitPrice),
		})
	}
	return out
}

// ToInvoiceResponse converts an Invoice model. today decides is_overdue.
func ToInvoiceResponse(inv *model.Invoice, today time.Time) *InvoiceResponse {
	items := make([]*InvoiceItemResponse, 0, len(inv.Items))
	for _, it := range inv.Items {
		items = append(items, &InvoiceItemResponse{
			ID:          it.ID,
			Position:    it.Position,
			Description: it.Description,
			Quantity:    it.Quantity,
			UnitPrice:   Money(it.UnitPriceCents),
			Amount:      Money(it.AmountCents),
		})
	}
	return &InvoiceResponse{
		ID:            inv.ID,
		CoupleID:      inv.CoupleID,
		CeremonyID:    inv.CeremonyID,
		InvoiceNumber: inv.InvoiceNumber,
		Status:        string(inv.Status),
		IssueDate:     Date(inv.IssueDate),
		DueDate:       Date(inv.DueDate),
		Subtotal:      Money(inv.SubtotalCents),
		TaxRate:       Percent(inv.TaxRateBP),
		TaxAmount:     Money(inv.TaxCents),
		TotalAmount:   Money(inv.TotalCents),
		PaidDate:      NewDate(inv.PaidDate),
		IsOverdue:     inv.IsOverdue(today),
		Notes:         inv.Notes,
		Items:         items,
		CreatedAt:     inv.CreatedAt,
		UpdatedAt:     inv.UpdatedAt,
	}
}
