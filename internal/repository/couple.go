package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/lib/pq"

	"github.com/vowline/vowline/internal/model"
)

// Common errors for couple repository operations.
var ErrCoupleNotFound = errors.New("couple not found")

// CoupleFilter defines filters for listing couples.
type CoupleFilter struct {
	UserID     string
	Status     model.CoupleStatus
	Query      string // matches partner names and emails
	Tag        string
	LeadSource string
}

const coupleColumns = `id, user_id, partner1_name, partner1_email, partner1_phone,
	partner2_name, partner2_email, partner2_phone, status, lead_source, tags,
	wedding_date, notes, created_at, updated_at`

// CreateCouple inserts a couple together with any initial legal forms in one
// transaction.
func (r *Repository) CreateCouple(ctx context.Context, couple *model.Couple, forms []*model.LegalForm) error {
	return r.withTx(ctx, func(tx pgx.Tx) error {
		query := `
			INSERT INTO couples (id, user_id, partner1_name, partner1_email, partner1_phone,
				partner2_name, partner2_email, partner2_phone, status, lead_source, tags,
				wedding_date, notes, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		`

		_, err := tx.Exec(ctx, query,
			couple.ID,
			couple.UserID,
			couple.Partner1Name,
			couple.Partner1Email,
			couple.Partner1Phone,
			couple.Partner2Name,
			couple.Partner2Email,
			couple.Partner2Phone,
			couple.Status,
			couple.LeadSource,
			pq.Array(tagsOrEmpty(couple.Tags)),
			couple.WeddingDate,
			couple.Notes,
			couple.CreatedAt,
			couple.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to create couple: %w", err)
		}

		for _, form := range forms {
			if err := insertLegalForm(ctx, tx, form); err != nil {
				return err
			}
		}

		return nil
	})
}

// GetCouple retrieves a couple owned by userID.
func (r *Repository) GetCouple(ctx context.Context, userID, id string) (*model.Couple, error) {
	query := `SELECT ` + coupleColumns + ` FROM couples WHERE id = $1 AND user_id = $2`

	couple, err := scanCouple(r.pool.QueryRow(ctx, query, id, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCoupleNotFound
		}
		return nil, fmt.Errorf("failed to get couple: %w", err)
	}

	return couple, nil
}

// ListCouples retrieves one page of couples and the total matching count.
func (r *Repository) ListCouples(ctx context.Context, filter CoupleFilter, page model.PageRequest) ([]*model.Couple, int, error) {
	w := &whereClause{}
	w.and("user_id = " + w.arg(filter.UserID))

	if filter.Status != "" {
		w.and("status = " + w.arg(filter.Status))
	}
	if filter.Query != "" {
		p := w.arg(likePattern(filter.Query))
		w.and(fmt.Sprintf("(partner1_name ILIKE %[1]s OR partner2_name ILIKE %[1]s OR partner1_email ILIKE %[1]s OR partner2_email ILIKE %[1]s)", p))
	}
	if filter.Tag != "" {
		w.and(w.arg(filter.Tag) + " = ANY(tags)")
	}
	if filter.LeadSource != "" {
		w.and("lead_source = " + w.arg(filter.LeadSource))
	}

	couples, total, err := countAndList(ctx, r.pool, "couples", coupleColumns, w,
		"created_at DESC, id DESC", page.Limit(), page.Offset(), scanCouple)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list couples: %w", err)
	}

	return couples, total, nil
}

// UpdateCouple writes a couple's mutable fields.
func (r *Repository) UpdateCouple(ctx context.Context, couple *model.Couple) error {
	query := `
		UPDATE couples
		SET partner1_name = $3, partner1_email = $4, partner1_phone = $5,
			partner2_name = $6, partner2_email = $7, partner2_phone = $8,
			status = $9, lead_source = $10, tags = $11, wedding_date = $12,
			notes = $13, updated_at = $14
		WHERE id = $1 AND user_id = $2
	`

	result, err := r.pool.Exec(ctx, query,
		couple.ID,
		couple.UserID,
		couple.Partner1Name,
		couple.Partner1Email,
		couple.Partner1Phone,
		couple.Partner2Name,
		couple.Partner2Email,
		couple.Partner2Phone,
		couple.Status,
		couple.LeadSource,
		pq.Array(tagsOrEmpty(couple.Tags)),
		couple.WeddingDate,
		couple.Notes,
		couple.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update couple: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrCoupleNotFound
	}

	return nil
}

// DeleteCouple removes a couple. Ceremonies, invoices, forms and logs cascade;
// tasks keep existing with couple_id cleared.
func (r *Repository) DeleteCouple(ctx context.Context, userID, id string) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM couples WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete couple: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrCoupleNotFound
	}

	return nil
}

func scanCouple(row pgx.Row) (*model.Couple, error) {
	var couple model.Couple
	var tags []string

	err := row.Scan(
		&couple.ID,
		&couple.UserID,
		&couple.Partner1Name,
		&couple.Partner1Email,
		&couple.Partner1Phone,
		&couple.Partner2Name,
		&couple.Partner2Email,
		&couple.Partner2Phone,
		&couple.Status,
		&couple.LeadSource,
		pq.Array(&tags),
		&couple.WeddingDate,
		&couple.Notes,
		&couple.CreatedAt,
		&couple.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	couple.Tags = tags
	return &couple, nil
}

// tagsOrEmpty keeps NOT NULL text[] columns from receiving NULL.
func tagsOrEmpty(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}
