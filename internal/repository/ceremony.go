package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/vowline/vowline/internal/model"
)

// Common errors for ceremony repository operations.
var ErrCeremonyNotFound = errors.New("ceremony not found")

// CeremonyFilter defines filters for listing ceremonies.
type CeremonyFilter struct {
	UserID           string
	CoupleID         string
	Status           model.CeremonyStatus
	From             *time.Time // inclusive
	To               *time.Time // exclusive
	ExcludeCancelled bool
}

const ceremonyColumns = `id, user_id, couple_id, ceremony_date, venue_name, venue_address,
	ceremony_type, status, fee_cents, notes, created_at, updated_at`

// CreateCeremony inserts a new ceremony.
func (r *Repository) CreateCeremony(ctx context.Context, c *model.Ceremony) error {
	query := `
		INSERT INTO ceremonies (id, user_id, couple_id, ceremony_date, venue_name, venue_address,
			ceremony_type, status, fee_cents, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := r.pool.Exec(ctx, query,
		c.ID,
		c.UserID,
		c.CoupleID,
		c.CeremonyDate,
		c.VenueName,
		c.VenueAddress,
		c.CeremonyType,
		c.Status,
		c.FeeCents,
		c.Notes,
		c.CreatedAt,
		c.UpdatedAt,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrCoupleNotFound
		}
		return fmt.Errorf("failed to create ceremony: %w", err)
	}

	return nil
}

// GetCeremony retrieves a ceremony owned by userID.
func (r *Repository) GetCeremony(ctx context.Context, userID, id string) (*model.Ceremony, error) {
	query := `SELECT ` + ceremonyColumns + ` FROM ceremonies WHERE id = $1 AND user_id = $2`

	c, err := scanCeremony(r.pool.QueryRow(ctx, query, id, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCeremonyNotFound
		}
		return nil, fmt.Errorf("failed to get ceremony: %w", err)
	}

	return c, nil
}

// ListCeremonies retrieves one page of ceremonies ordered by date.
func (r *Repository) ListCeremonies(ctx context.Context, filter CeremonyFilter, page model.PageRequest) ([]*model.Ceremony, int, error) {
	w := &whereClause{}
	w.and("user_id = " + w.arg(filter.UserID))

	if filter.CoupleID != "" {
		w.and("couple_id = " + w.arg(filter.CoupleID))
	}
	if filter.Status != "" {
		w.and("status = " + w.arg(filter.Status))
	}
	if filter.From != nil {
		w.and("ceremony_date >= " + w.arg(*filter.From))
	}
	if filter.To != nil {
		w.and("ceremony_date < " + w.arg(*filter.To))
	}
	if filter.ExcludeCancelled {
		w.and("status <> 'cancelled'")
	}

	ceremonies, total, err := countAndList(ctx, r.pool, "ceremonies", ceremonyColumns, w,
		"ceremony_date ASC, id ASC", page.Limit(), page.Offset(), scanCeremony)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list ceremonies: %w", err)
	}

	return ceremonies, total, nil
}

// UpdateCeremony writes a ceremony's mutable fields.
func (r *Repository) UpdateCeremony(ctx context.Context, c *model.Ceremony) error {
	query := `
		UPDATE ceremonies
		SET ceremony_date = $3, venue_name = $4, venue_address = $5, ceremony_type = $6,
			status = $7, fee_cents = $8, notes = $9, updated_at = $10
		WHERE id = $1 AND user_id = $2
	`

	result, err := r.pool.Exec(ctx, query,
		c.ID,
		c.UserID,
		c.CeremonyDate,
		c.VenueName,
		c.VenueAddress,
		c.CeremonyType,
		c.Status,
		c.FeeCents,
		c.Notes,
		c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update ceremony: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrCeremonyNotFound
	}

	return nil
}

// DeleteCeremony removes a ceremony. Invoices and forms pointing at it keep
// existing with ceremony_id cleared.
func (r *Repository) DeleteCeremony(ctx context.Context, userID, id string) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM ceremonies WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete ceremony: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrCeremonyNotFound
	}

	return nil
}

func scanCeremony(row pgx.Row) (*model.Ceremony, error) {
	var c model.Ceremony
	err := row.Scan(
		&c.ID,
		&c.UserID,
		&c.CoupleID,
		&c.CeremonyDate,
		&c.VenueName,
		&c.VenueAddress,
		&c.CeremonyType,
		&c.Status,
		&c.FeeCents,
		&c.Notes,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}
