package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/vowline/vowline/internal/model"
)

// RecordLoginAttempt stores the outcome of a login.
func (r *Repository) RecordLoginAttempt(ctx context.Context, attempt *model.LoginAttempt) error {
	query := `
		INSERT INTO login_attempts (id, email, ip_address, succeeded, attempted_at)
		VALUES ($1, LOWER($2), $3, $4, $5)
	`

	_, err := r.pool.Exec(ctx, query,
		attempt.ID,
		attempt.Email,
		attempt.IPAddress,
		attempt.Succeeded,
		attempt.AttemptedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to record login attempt: %w", err)
	}

	return nil
}

// CountRecentFailedLogins counts failed attempts for an email since the
// later of `since` and the last successful login.
func (r *Repository) CountRecentFailedLogins(ctx context.Context, email string, since time.Time) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM login_attempts
		WHERE LOWER(email) = LOWER($1)
		  AND succeeded = FALSE
		  AND attempted_at >= GREATEST($2, COALESCE((
		      SELECT MAX(attempted_at) FROM login_attempts
		      WHERE LOWER(email) = LOWER($1) AND succeeded = TRUE
		  ), $2))
	`

	var count int
	if err := r.pool.QueryRow(ctx, query, email, since).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count login attempts: %w", err)
	}

	return count, nil
}
