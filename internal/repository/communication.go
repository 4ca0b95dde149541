package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/vowline/vowline/internal/model"
)

// Common errors for communication log repository operations.
var ErrCommunicationNotFound = errors.New("communication log not found")

const communicationColumns = `id, user_id, couple_id, channel, direction, subject, body, occurred_at, created_at`

// CreateCommunication inserts a communication log entry.
func (r *Repository) CreateCommunication(ctx context.Context, log *model.CommunicationLog) error {
	query := `
		INSERT INTO communication_logs (id, user_id, couple_id, channel, direction, subject, body, occurred_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.pool.Exec(ctx, query,
		log.ID,
		log.UserID,
		log.CoupleID,
		log.Channel,
		log.Direction,
		log.Subject,
		log.Body,
		log.OccurredAt,
		log.CreatedAt,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrCoupleNotFound
		}
		return fmt.Errorf("failed to create communication log: %w", err)
	}

	return nil
}

// ListCoupleCommunications retrieves one page of a couple's communication
// history, most recent first.
func (r *Repository) ListCoupleCommunications(ctx context.Context, userID, coupleID string, page model.PageRequest) ([]*model.CommunicationLog, int, error) {
	w := &whereClause{}
	w.and("user_id = " + w.arg(userID))
	w.and("couple_id = " + w.arg(coupleID))

	logs, total, err := countAndList(ctx, r.pool, "communication_logs", communicationColumns, w,
		"occurred_at DESC, id DESC", page.Limit(), page.Offset(), scanCommunication)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list communication logs: %w", err)
	}

	return logs, total, nil
}

// DeleteCommunication removes a communication log entry.
func (r *Repository) DeleteCommunication(ctx context.Context, userID, id string) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM communication_logs WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete communication log: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrCommunicationNotFound
	}

	return nil
}

func scanCommunication(row pgx.Row) (*model.CommunicationLog, error) {
	var log model.CommunicationLog
	err := row.Scan(
		&log.ID,
		&log.UserID,
		&log.CoupleID,
		&log.Channel,
		&log.Direction,
		&log.Subject,
		&log.Body,
		&log.OccurredAt,
		&log.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &log, nil
}
