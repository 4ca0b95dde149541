package model

import (
	"math"
	"math/bits"
	"time"
)

// InvoiceStatus is the lifecycle state of an invoice.
type InvoiceStatus string

const (
	InvoiceDraft     InvoiceStatus = "draft"
	InvoiceSent      InvoiceStatus = "sent"
	InvoicePaid      InvoiceStatus = "paid"
	InvoiceOverdue   InvoiceStatus = "overdue"
	InvoiceCancelled InvoiceStatus = "cancelled"
)

var invoiceTransitions = map[InvoiceStatus][]InvoiceStatus{
	InvoiceDraft:   {InvoiceSent, InvoiceCancelled},
	InvoiceSent:    {InvoicePaid, InvoiceOverdue, InvoiceCancelled},
	InvoiceOverdue: {InvoicePaid, InvoiceCancelled},
}

// IsValid checks if the invoice status is known.
func (s InvoiceStatus) IsValid() bool {
	switch s {
	case InvoiceDraft, InvoiceSent, InvoicePaid, InvoiceOverdue, InvoiceCancelled:
		return true
	}
	return false
}

// CanTransitionTo reports whether the invoice may move from s to next.
func (s InvoiceStatus) CanTransitionTo(next InvoiceStatus) bool {
	if s == next {
		return true
	}
	for _, allowed := range invoiceTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// InvoiceItem is one billable line.
type InvoiceItem struct {
	ID             string
	InvoiceID      string
	Position       int
	Description    string
	Quantity       int
	UnitPriceCents int64
	AmountCents    int64
}

// Invoice is a bill issued to a couple.
type Invoice struct {
	ID            string
	UserID        string
	CoupleID      string
	CeremonyID    *string
	InvoiceNumber string
	Status        InvoiceStatus
	IssueDate     time.Time
	DueDate       time.Time
	SubtotalCents int64
	// TaxRateBP is the tax rate in basis points (1000 = 10%).
	TaxRateBP  int
	TaxCents   int64
	TotalCents int64
	PaidDate   *time.Time
	Notes      string
	Items      []*InvoiceItem
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Recalculate derives line amounts, subtotal, tax and total from the items.
// Tax is rounded half-up to the nearest cent; total is always subtotal + tax.
func (inv *Invoice) Recalculate() {
	var subtotal int64
	for i, item := range inv.Items {
		item.Position = i + 1
		item.AmountCents = int64(item.Quantity) * item.UnitPriceCents
		subtotal += item.AmountCents
	}
	inv.SubtotalCents = subtotal
	inv.TaxCents = TaxCents(subtotal, inv.TaxRateBP)
	inv.TotalCents = inv.SubtotalCents + inv.TaxCents
}

// TaxCents applies a basis-point rate to an amount, rounding half-up. The
// product is taken in 128 bits; a result beyond int64 saturates.
func TaxCents(amount int64, rateBP int) int64 {
	if amount <= 0 || rateBP <= 0 {
		return 0
	}
	hi, lo := bits.Mul64(uint64(amount), uint64(rateBP))
	lo, carry := bits.Add64(lo, 5000, 0)
	hi += carry
	if hi >= 10000 {
		return math.MaxInt64
	}
	q, _ := bits.Div64(hi, lo, 10000)
	if q > math.MaxInt64 {
		return math.MaxInt64
	}
	return int64(q)
}

// IsOverdue reports whether the invoice is unpaid past its due date.
func (inv *Invoice) IsOverdue(today time.Time) bool {
	switch inv.Status {
	case InvoiceOverdue:
		return true
	case InvoiceSent:
		return DateOf(inv.DueDate).Before(DateOf(today))
	}
	return false
}

// IsEditable reports whether line items may still change.
func (inv *Invoice) IsEditable() bool {
	return inv.Status == InvoiceDraft
}
