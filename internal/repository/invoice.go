package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/vowline/vowline/internal/model"
)

// Common errors for invoice repository operations.
var (
	ErrInvoiceNotFound      = errors.New("invoice not found")
	ErrInvoiceNumberExists  = errors.New("invoice number already exists")
	ErrInvoiceReferenceGone = errors.New("invoice couple or ceremony not found")
)

// InvoiceFilter defines filters for listing invoices.
type InvoiceFilter struct {
	UserID   string
	CoupleID string
	Status   model.InvoiceStatus
	// OverdueAsOf restricts to invoices overdue on that date: status overdue,
	// or sent with a due date before it.
	OverdueAsOf *time.Time
}

const invoiceColumns = `id, user_id, couple_id, ceremony_id, invoice_number, status, issue_date,
	due_date, subtotal_cents, tax_rate_bp, tax_cents, total_cents, paid_date, notes,
	created_at, updated_at`

const invoiceItemColumns = `id, invoice_id, position, description, quantity, unit_price_cents, amount_cents`

// CreateInvoice inserts an invoice and its items in one transaction.
func (r *Repository) CreateInvoice(ctx context.Context, inv *model.Invoice) error {
	err := r.withTx(ctx, func(tx pgx.Tx) error {
		query := `
			INSERT INTO invoices (id, user_id, couple_id, ceremony_id, invoice_number, status,
				issue_date, due_date, subtotal_cents, tax_rate_bp, tax_cents, total_cents,
				paid_date, notes, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		`

		if _, err := tx.Exec(ctx, query,
			inv.ID,
			inv.UserID,
			inv.CoupleID,
			inv.CeremonyID,
			inv.InvoiceNumber,
			inv.Status,
			inv.IssueDate,
			inv.DueDate,
			inv.SubtotalCents,
			inv.TaxRateBP,
			inv.TaxCents,
			inv.TotalCents,
			inv.PaidDate,
			inv.Notes,
			inv.CreatedAt,
			inv.UpdatedAt,
		); err != nil {
			return err
		}

		return insertInvoiceItems(ctx, tx, inv.Items)
	})

	if err != nil {
		switch {
		case isUniqueViolation(err):
			return ErrInvoiceNumberExists
		case isForeignKeyViolation(err):
			return ErrInvoiceReferenceGone
		}
		return fmt.Errorf("failed to create invoice: %w", err)
	}

	return nil
}

// GetInvoice retrieves an invoice owned by userID, including its items.
func (r *Repository) GetInvoice(ctx context.Context, userID, id string) (*model.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE id = $1 AND user_id = $2`

	inv, err := scanInvoice(r.pool.QueryRow(ctx, query, id, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvoiceNotFound
		}
		return nil, fmt.Errorf("failed to get invoice: %w", err)
	}

	if err := r.attachInvoiceItems(ctx, []*model.Invoice{inv}); err != nil {
		return nil, err
	}

	return inv, nil
}

// ListInvoices retrieves one page of invoices, newest first, with items.
func (r *Repository) ListInvoices(ctx context.Context, filter InvoiceFilter, page model.PageRequest) ([]*model.Invoice, int, error) {
	w := &whereClause{}
	w.and("user_id = " + w.arg(filter.UserID))

	if filter.CoupleID != "" {
		w.and("couple_id = " + w.arg(filter.CoupleID))
	}
	if filter.Status != "" {
		w.and("status = " + w.arg(filter.Status))
	}
	if filter.OverdueAsOf != nil {
		w.and("(status = 'overdue' OR (status = 'sent' AND due_date < " + w.arg(*filter.OverdueAsOf) + "))")
	}

	invoices, total, err := countAndList(ctx, r.pool, "invoices", invoiceColumns, w,
		"issue_date DESC, invoice_number DESC", page.Limit(), page.Offset(), scanInvoice)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list invoices: %w", err)
	}

	if err := r.attachInvoiceItems(ctx, invoices); err != nil {
		return nil, 0, err
	}

	return invoices, total, nil
}

// UpdateInvoice writes an invoice's header and, when replaceItems is set,
// swaps its items for inv.Items, all in one transaction.
func (r *Repository) UpdateInvoice(ctx context.Context, inv *model.Invoice, replaceItems bool) error {
	err := r.withTx(ctx, func(tx pgx.Tx) error {
		query := `
			UPDATE invoices
			SET ceremony_id = $3, invoice_number = $4, status = $5, issue_date = $6,
				due_date = $7, subtotal_cents = $8, tax_rate_bp = $9, tax_cents = $10,
				total_cents = $11, paid_date = $12, notes = $13, updated_at = $14
			WHERE id = $1 AND user_id = $2
		`

		result, err := tx.Exec(ctx, query,
			inv.ID,
			inv.UserID,
			inv.CeremonyID,
			inv.InvoiceNumber,
			inv.Status,
			inv.IssueDate,
			inv.DueDate,
			inv.SubtotalCents,
			inv.TaxRateBP,
			inv.TaxCents,
			inv.TotalCents,
			inv.PaidDate,
			inv.Notes,
			inv.UpdatedAt,
		)
		if err != nil {
			return err
		}
		if result.RowsAffected() == 0 {
			return ErrInvoiceNotFound
		}

		if !replaceItems {
			return nil
		}
		if _, err := tx.Exec(ctx, `DELETE FROM invoice_items WHERE invoice_id = $1`, inv.ID); err != nil {
			return err
		}
		return insertInvoiceItems(ctx, tx, inv.Items)
	})

	if err != nil {
		switch {
		case errors.Is(err, ErrInvoiceNotFound):
			return err
		case isUniqueViolation(err):
			return ErrInvoiceNumberExists
		case isForeignKeyViolation(err):
			return ErrInvoiceReferenceGone
		}
		return fmt.Errorf("failed to update invoice: %w", err)
	}

	return nil
}

// DeleteInvoice removes an invoice and its items.
func (r *Repository) DeleteInvoice(ctx context.Context, userID, id string) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM invoices WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete invoice: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrInvoiceNotFound
	}

	return nil
}

// MaxInvoiceSequence returns the highest NNNN among the user's invoice numbers
// of the form INV-<year>-NNNN, or 0 when there are none.
func (r *Repository) MaxInvoiceSequence(ctx context.Context, userID string, year int) (int, error) {
	query := `
		SELECT COALESCE(MAX(SUBSTRING(invoice_number FROM '^INV-[0-9]{4}-([0-9]+)$')::INTEGER), 0)
		FROM invoices
		WHERE user_id = $1 AND invoice_number LIKE $2
	`

	var seq int
	if err := r.pool.QueryRow(ctx, query, userID, fmt.Sprintf("INV-%04d-%%", year)).Scan(&seq); err != nil {
		return 0, fmt.Errorf("failed to read invoice sequence: %w", err)
	}

	return seq, nil
}

// MarkOverdueInvoices moves the user's sent invoices due before today to
// overdue and returns how many changed.
func (r *Repository) MarkOverdueInvoices(ctx context.Context, userID string, today, now time.Time) (int64, error) {
	query := `
		UPDATE invoices
		SET status = 'overdue', updated_at = $3
		WHERE user_id = $1 AND status = 'sent' AND due_date < $2
	`

	result, err := r.pool.Exec(ctx, query, userID, today, now)
	if err != nil {
		return 0, fmt.Errorf("failed to mark overdue invoices: %w", err)
	}

	return result.RowsAffected(), nil
}

func insertInvoiceItems(ctx context.Context, q querier, items []*model.InvoiceItem) error {
	query := `
		INSERT INTO invoice_items (id, invoice_id, position, description, quantity, unit_price_cents, amount_cents)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	for _, item := range items {
		if _, err := q.Exec(ctx, query,
			item.ID,
			item.InvoiceID,
			item.Position,
			item.Description,
			item.Quantity,
			item.UnitPriceCents,
			item.AmountCents,
		); err != nil {
			return fmt.Errorf("failed to insert invoice item: %w", err)
		}
	}

	return nil
}

// attachInvoiceItems loads items for all given invoices with one query.
func (r *Repository) attachInvoiceItems(ctx context.Context, invoices []*model.Invoice) error {
	if len(invoices) == 0 {
		return nil
	}

	byID := make(map[string]*model.Invoice, len(invoices))
	ids := make([]string, 0, len(invoices))
	for _, inv := range invoices {
		inv.Items = []*model.InvoiceItem{}
		byID[inv.ID] = inv
		ids = append(ids, inv.ID)
	}

	query := `SELECT ` + invoiceItemColumns + ` FROM invoice_items WHERE invoice_id = ANY($1) ORDER BY invoice_id, position`
	items, err := collect(ctx, r.pool, query, []any{ids}, scanInvoiceItem)
	if err != nil {
		return fmt.Errorf("failed to load invoice items: %w", err)
	}

	for _, item := range items {
		if inv, ok := byID[item.InvoiceID]; ok {
			inv.Items = append(inv.Items, item)
		}
	}

	return nil
}

func scanInvoice(row pgx.Row) (*model.Invoice, error) {
	var inv model.Invoice
	err := row.Scan(
		&inv.ID,
		&inv.UserID,
		&inv.CoupleID,
		&inv.CeremonyID,
		&inv.InvoiceNumber,
		&inv.Status,
		&inv.IssueDate,
		&inv.DueDate,
		&inv.SubtotalCents,
		&inv.TaxRateBP,
		&inv.TaxCents,
		&inv.TotalCents,
		&inv.PaidDate,
		&inv.Notes,
		&inv.CreatedAt,
		&inv.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

func scanInvoiceItem(row pgx.Row) (*model.InvoiceItem, error) {
	var item model.InvoiceItem
	err := row.Scan(
		&item.ID,
		&item.InvoiceID,
		&item.Position,
		&item.Description,
		&item.Quantity,
		&item.UnitPriceCents,
		&item.AmountCents,
	)
	if err != nil {
		return nil, err
	}
	return &item, nil
}
