package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/vowline/vowline/internal/model"
)

// Common errors for legal form repository operations.
var ErrLegalFormNotFound = errors.New("legal form not found")

// LegalFormFilter defines filters for listing legal forms.
// Date rules match the compliance evaluator: overdue means outstanding with
// a deadline before today; expiring soon means an expiry date within
// [today, window end] on a form that is not already expired.
type LegalFormFilter struct {
	UserID        string
	CoupleID      string
	Status        model.FormStatus
	FormType      model.FormType
	OverdueAsOf   *time.Time
	ExpiringFrom  *time.Time
	ExpiringUntil *time.Time
}

const legalFormColumns = `id, user_id, couple_id, ceremony_id, form_type, status, deadline_date,
	submitted_date, approved_date, expiry_date, document_reference, notes, created_at, updated_at`

// CreateLegalForm inserts a new legal form.
func (r *Repository) CreateLegalForm(ctx context.Context, form *model.LegalForm) error {
	return insertLegalForm(ctx, r.pool, form)
}

func insertLegalForm(ctx context.Context, q querier, form *model.LegalForm) error {
	query := `
		INSERT INTO legal_forms (id, user_id, couple_id, ceremony_id, form_type, status,
			deadline_date, submitted_date, approved_date, expiry_date, document_reference,
			notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	_, err := q.Exec(ctx, query,
		form.ID,
		form.UserID,
		form.CoupleID,
		form.CeremonyID,
		form.FormType,
		form.Status,
		form.DeadlineDate,
		form.SubmittedDate,
		form.ApprovedDate,
		form.ExpiryDate,
		form.DocumentReference,
		form.Notes,
		form.CreatedAt,
		form.UpdatedAt,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrCoupleNotFound
		}
		return fmt.Errorf("failed to create legal form: %w", err)
	}

	return nil
}

// GetLegalForm retrieves a legal form owned by userID.
func (r *Repository) GetLegalForm(ctx context.Context, userID, id string) (*model.LegalForm, error) {
	query := `SELECT ` + legalFormColumns + ` FROM legal_forms WHERE id = $1 AND user_id = $2`

	form, err := scanLegalForm(r.pool.QueryRow(ctx, query, id, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrLegalFormNotFound
		}
		return nil, fmt.Errorf("failed to get legal form: %w", err)
	}

	return form, nil
}

// ListLegalForms retrieves one page of legal forms, earliest deadline first.
func (r *Repository) ListLegalForms(ctx context.Context, filter LegalFormFilter, page model.PageRequest) ([]*model.LegalForm, int, error) {
	w := legalFormWhere(filter)

	forms, total, err := countAndList(ctx, r.pool, "legal_forms", legalFormColumns, w,
		"deadline_date ASC NULLS LAST, created_at DESC, id DESC", page.Limit(), page.Offset(), scanLegalForm)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list legal forms: %w", err)
	}

	return forms, total, nil
}

// ListCoupleLegalForms returns every form of one couple.
func (r *Repository) ListCoupleLegalForms(ctx context.Context, userID, coupleID string) ([]*model.LegalForm, error) {
	query := `SELECT ` + legalFormColumns + `
		FROM legal_forms
		WHERE user_id = $1 AND couple_id = $2
		ORDER BY deadline_date ASC NULLS LAST, created_at ASC`

	forms, err := collect(ctx, r.pool, query, []any{userID, coupleID}, scanLegalForm)
	if err != nil {
		return nil, fmt.Errorf("failed to list couple legal forms: %w", err)
	}

	return forms, nil
}

// ListLegalFormAlerts returns every form of the user that is overdue on today
// or expiring within [today, windowEnd].
func (r *Repository) ListLegalFormAlerts(ctx context.Context, userID string, today, windowEnd time.Time) ([]*model.LegalForm, error) {
	query := `SELECT ` + legalFormColumns + `
		FROM legal_forms
		WHERE user_id = $1
		  AND (
		    (status IN ('required', 'submitted') AND deadline_date < $2)
		    OR (status <> 'expired' AND expiry_date BETWEEN $2 AND $3)
		  )
		ORDER BY deadline_date ASC NULLS LAST, expiry_date ASC NULLS LAST`

	forms, err := collect(ctx, r.pool, query, []any{userID, today, windowEnd}, scanLegalForm)
	if err != nil {
		return nil, fmt.Errorf("failed to list legal form alerts: %w", err)
	}

	return forms, nil
}

// UpdateLegalForm writes a legal form's mutable fields.
func (r *Repository) UpdateLegalForm(ctx context.Context, form *model.LegalForm) error {
	query := `
		UPDATE legal_forms
		SET ceremony_id = $3, form_type = $4, status = $5, deadline_date = $6,
			submitted_date = $7, approved_date = $8, expiry_date = $9,
			document_reference = $10, notes = $11, updated_at = $12
		WHERE id = $1 AND user_id = $2
	`

	result, err := r.pool.Exec(ctx, query,
		form.ID,
		form.UserID,
		form.CeremonyID,
		form.FormType,
		form.Status,
		form.DeadlineDate,
		form.SubmittedDate,
		form.ApprovedDate,
		form.ExpiryDate,
		form.DocumentReference,
		form.Notes,
		form.UpdatedAt,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrCeremonyNotFound
		}
		return fmt.Errorf("failed to update legal form: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrLegalFormNotFound
	}

	return nil
}

// DeleteLegalForm removes a legal form.
func (r *Repository) DeleteLegalForm(ctx context.Context, userID, id string) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM legal_forms WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete legal form: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrLegalFormNotFound
	}

	return nil
}

func legalFormWhere(filter LegalFormFilter) *whereClause {
	w := &whereClause{}
	w.and("user_id = " + w.arg(filter.UserID))

	if filter.CoupleID != "" {
		w.and("couple_id = " + w.arg(filter.CoupleID))
	}
	if filter.Status != "" {
		w.and("status = " + w.arg(filter.Status))
	}
	if filter.FormType != "" {
		w.and("form_type = " + w.arg(filter.FormType))
	}
	if filter.OverdueAsOf != nil {
		w.and("status IN ('required', 'submitted') AND deadline_date < " + w.arg(*filter.OverdueAsOf))
	}
	if filter.ExpiringFrom != nil && filter.ExpiringUntil != nil {
		w.and("status <> 'expired' AND expiry_date BETWEEN " + w.arg(*filter.ExpiringFrom) + " AND " + w.arg(*filter.ExpiringUntil))
	}

	return w
}

func scanLegalForm(row pgx.Row) (*model.LegalForm, error) {
	var form model.LegalForm
	err := row.Scan(
		&form.ID,
		&form.UserID,
		&form.CoupleID,
		&form.CeremonyID,
		&form.FormType,
		&form.Status,
		&form.DeadlineDate,
		&form.SubmittedDate,
		&form.ApprovedDate,
		&form.ExpiryDate,
		&form.DocumentReference,
		&form.Notes,
		&form.CreatedAt,
		&form.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &form, nil
}
