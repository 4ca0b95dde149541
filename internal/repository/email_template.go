package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/vowline/vowline/internal/model"
)

// Common errors for email template repository operations.
var (
	ErrEmailTemplateNotFound = errors.New("email template not found")
	ErrTemplateNameExists    = errors.New("email template name already exists")
)

// EmailTemplateFilter defines filters for listing email templates.
type EmailTemplateFilter struct {
	UserID   string
	Category string
	Query    string // matches name and subject
}

const emailTemplateColumns = `id, user_id, name, category, subject, body, created_at, updated_at`

// CreateEmailTemplate inserts a new email template.
func (r *Repository) CreateEmailTemplate(ctx context.Context, tmpl *model.EmailTemplate) error {
	query := `
		INSERT INTO email_templates (id, user_id, name, category, subject, body, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.pool.Exec(ctx, query,
		tmpl.ID,
		tmpl.UserID,
		tmpl.Name,
		tmpl.Category,
		tmpl.Subject,
		tmpl.Body,
		tmpl.CreatedAt,
		tmpl.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrTemplateNameExists
		}
		return fmt.Errorf("failed to create email template: %w", err)
	}

	return nil
}

// GetEmailTemplate retrieves an email template owned by userID.
func (r *Repository) GetEmailTemplate(ctx context.Context, userID, id string) (*model.EmailTemplate, error) {
	query := `SELECT ` + emailTemplateColumns + ` FROM email_templates WHERE id = $1 AND user_id = $2`

	tmpl, err := scanEmailTemplate(r.pool.QueryRow(ctx, query, id, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrEmailTemplateNotFound
		}
		return nil, fmt.Errorf("failed to get email template: %w", err)
	}

	return tmpl, nil
}

// ListEmailTemplates retrieves one page of email templates ordered by name.
func (r *Repository) ListEmailTemplates(ctx context.Context, filter EmailTemplateFilter, page model.PageRequest) ([]*model.EmailTemplate, int, error) {
	w := &whereClause{}
	w.and("user_id = " + w.arg(filter.UserID))

	if filter.Category != "" {
		w.and("category = " + w.arg(filter.Category))
	}
	if filter.Query != "" {
		p := w.arg(likePattern(filter.Query))
		w.and(fmt.Sprintf("(name ILIKE %[1]s OR subject ILIKE %[1]s)", p))
	}

	templates, total, err := countAndList(ctx, r.pool, "email_templates", emailTemplateColumns, w,
		"name ASC", page.Limit(), page.Offset(), scanEmailTemplate)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list email templates: %w", err)
	}

	return templates, total, nil
}

// UpdateEmailTemplate writes an email template's mutable fields.
func (r *Repository) UpdateEmailTemplate(ctx context.Context, tmpl *model.EmailTemplate) error {
	query := `
		UPDATE email_templates
		SET name = $3, category = $4, subject = $5, body = $6, updated_at = $7
		WHERE id = $1 AND user_id = $2
	`

	result, err := r.pool.Exec(ctx, query,
		tmpl.ID,
		tmpl.UserID,
		tmpl.Name,
		tmpl.Category,
		tmpl.Subject,
		tmpl.Body,
		tmpl.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrTemplateNameExists
		}
		return fmt.Errorf("failed to update email template: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrEmailTemplateNotFound
	}

	return nil
}

// DeleteEmailTemplate removes an email template.
func (r *Repository) DeleteEmailTemplate(ctx context.Context, userID, id string) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM email_templates WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete email template: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrEmailTemplateNotFound
	}

	return nil
}

func scanEmailTemplate(row pgx.Row) (*model.EmailTemplate, error) {
	var tmpl model.EmailTemplate
	err := row.Scan(
		&tmpl.ID,
		&tmpl.UserID,
		&tmpl.Name,
		&tmpl.Category,
		&tmpl.Subject,
		&tmpl.Body,
		&tmpl.CreatedAt,
		&tmpl.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &tmpl, nil
}
