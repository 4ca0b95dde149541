package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/vowline/vowline/internal/metrics"
	"github.com/vowline/vowline/internal/model"
	"github.com/vowline/vowline/internal/repository"
)

const (
	defaultPaymentTermDays = 14
	maxTaxRateBP           = 10000
	maxInvoiceItems        = 100
	maxItemQuantity        = 10000
	// maxUnitPriceCents keeps maxInvoiceItems × maxItemQuantity × price ×
	// maxTaxRateBP inside int64, so totals and tax never wrap.
	maxUnitPriceCents      = 100_000_000
	maxInvoiceNumberLength = 50
	invoiceNumberAttempts  = 3
)

// InvoiceService handles invoicing.
type InvoiceService struct {
	store   InvoiceStore
	clock   Clock
	metrics metrics.Recorder
	logger  *slog.Logger
}

// NewInvoiceService creates a new InvoiceService.
func NewInvoiceService(store InvoiceStore, clock Clock, recorder metrics.Recorder, logger *slog.Logger) *InvoiceService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &InvoiceService{store: store, clock: clock, metrics: recorder, logger: logger}
}

// Today returns the business date used for overdue checks.
func (s *InvoiceService) Today() time.Time {
	return s.clock.Today()
}

// InvoiceItemInput is one billable line.
type InvoiceItemInput struct {
	Description    string
	Quantity       int
	UnitPriceCents int64
}

// CreateInvoiceInput defines input for issuing an invoice.
type CreateInvoiceInput struct {
	UserID        string
	CoupleID      string
	CeremonyID    *string
	InvoiceNumber string
	IssueDate     *time.Time
	DueDate       *time.Time
	TaxRateBP     int
	Notes         string
	Items         []InvoiceItemInput
}

// CreateInvoice creates a draft invoice. When no number is supplied the next
// INV-YYYY-NNNN for the issue year is assigned.
func (s *InvoiceService) CreateInvoice(ctx context.Context, input CreateInvoiceInput) (*model.Invoice, error) {
	if err := validateTaxRate(input.TaxRateBP); err != nil {
		return nil, err
	}
	if len(input.Items) == 0 {
		return nil, validationErrorf("at least one item is required")
	}

	issue := s.clock.Today()
	if input.IssueDate != nil {
		issue = model.DateOf(*input.IssueDate)
	}
	due := issue.AddDate(0, 0, defaultPaymentTermDays)
	if input.DueDate != nil {
		due = model.DateOf(*input.DueDate)
	}
	if due.Before(issue) {
		return nil, validationErrorf("due_date must not be before issue_date")
	}

	number := strings.TrimSpace(input.InvoiceNumber)
	if len(number) > maxInvoiceNumberLength {
		return nil, validationErrorf("invoice_number must be at most %d characters", maxInvoiceNumberLength)
	}

	if _, err := s.store.GetCouple(ctx, input.UserID, input.CoupleID); err != nil {
		return nil, storeError("get couple", err)
	}
	ceremonyID := stringPtrOrNil(input.CeremonyID)
	if err := s.checkCeremony(ctx, input.UserID, input.CoupleID, ceremonyID); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	inv := &model.Invoice{
		ID:         generateULID(),
		UserID:     input.UserID,
		CoupleID:   input.CoupleID,
		CeremonyID: ceremonyID,
		Status:     model.InvoiceDraft,
		IssueDate:  issue,
		DueDate:    due,
		TaxRateBP:  input.TaxRateBP,
		Notes:      input.Notes,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	items, err := buildInvoiceItems(inv.ID, input.Items)
	if err != nil {
		return nil, err
	}
	inv.Items = items
	inv.Recalculate()

	if number != "" {
		inv.InvoiceNumber = number
		if err := s.store.CreateInvoice(ctx, inv); err != nil {
			return nil, storeError("create invoice", err)
		}
	} else if err := s.createNumbered(ctx, inv); err != nil {
		return nil, err
	}

	s.metrics.IncEntityCreated("invoice")
	return inv, nil
}

// createNumbered assigns the next free number, retrying when a concurrent
// insert takes it first.
func (s *InvoiceService) createNumbered(ctx context.Context, inv *model.Invoice) error {
	year := inv.IssueDate.Year()
	for attempt := 1; ; attempt++ {
		seq, err := s.store.MaxInvoiceSequence(ctx, inv.UserID, year)
		if err != nil {
			return storeError("read invoice sequence", err)
		}
		inv.InvoiceNumber = FormatInvoiceNumber(year, seq+1)

		err = s.store.CreateInvoice(ctx, inv)
		if err == nil {
			return nil
		}
		err = storeError("create invoice", err)
		if !errors.Is(err, ErrInvoiceNumberExists) || attempt == invoiceNumberAttempts {
			return err
		}
		s.logger.Debug("invoice number taken, retrying",
			"user_id", inv.UserID,
			"invoice_number", inv.InvoiceNumber,
		)
	}
}

// FormatInvoiceNumber renders an INV-YYYY-NNNN invoice number.
func FormatInvoiceNumber(year, seq int) string {
	return fmt.Sprintf("INV-%04d-%04d", year, seq)
}

// GetInvoice retrieves an invoice with its items.
func (s *InvoiceService) GetInvoice(ctx context.Context, userID, id string) (*model.Invoice, error) {
	inv, err := s.store.GetInvoice(ctx, userID, id)
	if err != nil {
		return nil, storeError("get invoice", err)
	}
	return inv, nil
}

// ListInvoicesInput defines input for listing invoices.
type ListInvoicesInput struct {
	UserID   string
	Page     int
	PerPage  int
	CoupleID string
	Status   model.InvoiceStatus
	Overdue  bool
}

// ListInvoices returns one page of the user's invoices.
func (s *InvoiceService) ListInvoices(ctx context.Context, input ListInvoicesInput) (*model.Page[*model.Invoice], error) {
	if input.Status != "" && !input.Status.IsValid() {
		return nil, validationErrorf("unknown invoice status %q", input.Status)
	}

	filter := repository.InvoiceFilter{
		UserID:   input.UserID,
		CoupleID: input.CoupleID,
		Status:   input.Status,
	}
	if input.Overdue {
		today := s.clock.Today()
		filter.OverdueAsOf = &today
	}

	page := model.NewPageRequest(input.Page, input.PerPage)
	invoices, total, err := s.store.ListInvoices(ctx, filter, page)
	if err != nil {
		return nil, storeError("list invoices", err)
	}

	return model.NewPage(invoices, total, page), nil
}

// UpdateInvoiceInput defines input for updating an invoice. Nil fields are
// left unchanged. Items and TaxRateBP may only change while the invoice is a
// draft.
type UpdateInvoiceInput struct {
	UserID          string
	ID              string
	CeremonyID      *string
	InvoiceNumber   *string
	Status          *model.InvoiceStatus
	IssueDate       *time.Time
	DueDate         *time.Time
	TaxRateBP       *int
	PaidDate        *time.Time
	Notes           *string
	Items           []InvoiceItemInput
	ReplaceItems    bool
	ClearCeremonyID bool
}

// UpdateInvoice applies a partial update and recomputes totals.
func (s *InvoiceService) UpdateInvoice(ctx context.Context, input UpdateInvoiceInput) (*model.Invoice, error) {
	inv, err := s.store.GetInvoice(ctx, input.UserID, input.ID)
	if err != nil {
		return nil, storeError("get invoice", err)
	}

	if (input.ReplaceItems || input.TaxRateBP != nil) && !inv.IsEditable() {
		return nil, ErrInvoiceNotEditable
	}

	if input.ClearCeremonyID {
		inv.CeremonyID = nil
	} else if input.CeremonyID != nil {
		ceremonyID := stringPtrOrNil(input.CeremonyID)
		if err := s.checkCeremony(ctx, inv.UserID, inv.CoupleID, ceremonyID); err != nil {
			return nil, err
		}
		inv.CeremonyID = ceremonyID
	}
	if input.InvoiceNumber != nil {
		number, err := requireText("invoice_number", *input.InvoiceNumber, maxInvoiceNumberLength)
		if err != nil {
			return nil, err
		}
		inv.InvoiceNumber = number
	}
	if input.IssueDate != nil {
		inv.IssueDate = model.DateOf(*input.IssueDate)
	}
	if input.DueDate != nil {
		inv.DueDate = model.DateOf(*input.DueDate)
	}
	if inv.DueDate.Before(inv.IssueDate) {
		return nil, validationErrorf("due_date must not be before issue_date")
	}
	if input.TaxRateBP != nil {
		if err := validateTaxRate(*input.TaxRateBP); err != nil {
			return nil, err
		}
		inv.TaxRateBP = *input.TaxRateBP
	}
	if input.Notes != nil {
		inv.Notes = *input.Notes
	}
	if input.ReplaceItems {
		if len(input.Items) == 0 {
			return nil, validationErrorf("at least one item is required")
		}
		items, err := buildInvoiceItems(inv.ID, input.Items)
		if err != nil {
			return nil, err
		}
		inv.Items = items
	}

	if input.Status != nil {
		if err := s.applyStatus(inv, *input.Status, input.PaidDate); err != nil {
			return nil, err
		}
	} else if input.PaidDate != nil {
		if inv.Status != model.InvoicePaid {
			return nil, validationErrorf("paid_date can only be set on a paid invoice")
		}
		d := model.DateOf(*input.PaidDate)
		inv.PaidDate = &d
	}

	inv.Recalculate()
	inv.UpdatedAt = s.clock.Now()

	if err := s.store.UpdateInvoice(ctx, inv, input.ReplaceItems); err != nil {
		return nil, storeError("update invoice", err)
	}

	s.metrics.IncEntityUpdated("invoice")
	return inv, nil
}

func (s *InvoiceService) applyStatus(inv *model.Invoice, next model.InvoiceStatus, paidDate *time.Time) error {
	if !next.IsValid() {
		return validationErrorf("unknown invoice status %q", next)
	}
	if !inv.Status.CanTransitionTo(next) {
		return fmt.Errorf("%w: invoice cannot move from %s to %s", ErrInvalidStatusTransition, inv.Status, next)
	}

	if next == model.InvoicePaid {
		d := s.clock.Today()
		if paidDate != nil {
			d = model.DateOf(*paidDate)
		} else if inv.PaidDate != nil {
			d = *inv.PaidDate
		}
		inv.PaidDate = &d
	} else if paidDate != nil {
		return validationErrorf("paid_date can only be set on a paid invoice")
	}

	inv.Status = next
	return nil
}

// DeleteInvoice deletes an invoice and its items.
func (s *InvoiceService) DeleteInvoice(ctx context.Context, userID, id string) error {
	if err := s.store.DeleteInvoice(ctx, userID, id); err != nil {
		return storeError("delete invoice", err)
	}

	s.metrics.IncEntityDeleted("invoice")
	return nil
}

// MarkOverdue moves every sent invoice past its due date to overdue and
// returns how many changed.
func (s *InvoiceService) MarkOverdue(ctx context.Context, userID string) (int64, error) {
	n, err := s.store.MarkOverdueInvoices(ctx, userID, s.clock.Today(), s.clock.Now())
	if err != nil {
		return 0, storeError("mark overdue invoices", err)
	}

	if n > 0 {
		s.logger.Info("invoices marked overdue", "user_id", userID, "count", n)
	}
	return n, nil
}

// checkCeremony ensures an optional ceremony exists and belongs to the couple.
func (s *InvoiceService) checkCeremony(ctx context.Context, userID, coupleID string, ceremonyID *string) error {
	if ceremonyID == nil {
		return nil
	}
	c, err := s.store.GetCeremony(ctx, userID, *ceremonyID)
	if err != nil {
		return storeError("get ceremony", err)
	}
	if c.CoupleID != coupleID {
		return validationErrorf("ceremony does not belong to this couple")
	}
	return nil
}

func validateTaxRate(bp int) error {
	if bp < 0 || bp > maxTaxRateBP {
		return validationErrorf("tax_rate must be between 0 and 100")
	}
	return nil
}

func buildInvoiceItems(invoiceID string, inputs []InvoiceItemInput) ([]*model.InvoiceItem, error) {
	if len(inputs) > maxInvoiceItems {
		return nil, validationErrorf("at most %d items are allowed", maxInvoiceItems)
	}

	items := make([]*model.InvoiceItem, 0, len(inputs))
	for i, in := range inputs {
		desc, err := requireText(fmt.Sprintf("items[%d].description", i), in.Description, 500)
		if err != nil {
			return nil, err
		}
		if in.Quantity < 1 || in.Quantity > maxItemQuantity {
			return nil, validationErrorf("items[%d].quantity must be between 1 and %d", i, maxItemQuantity)
		}
		if in.UnitPriceCents < 0 {
			return nil, validationErrorf("items[%d].unit_price must not be negative", i)
		}
		if in.UnitPriceCents > maxUnitPriceCents {
			return nil, validationErrorf("items[%d].unit_price must be at most %d.00", i, maxUnitPriceCents/100)
		}
		items = append(items, &model.InvoiceItem{
			ID:             generateULID(),
			InvoiceID:      invoiceID,
			Description:    desc,
			Quantity:       in.Quantity,
			UnitPriceCents: in.UnitPriceCents,
		})
	}
	return items, nil
}
