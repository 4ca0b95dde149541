package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/vowline/vowline/internal/model"
)

// ErrRefreshTokenNotFound is returned when no usable token matches.
var ErrRefreshTokenNotFound = errors.New("refresh token not found")

// CreateRefreshToken stores a refresh token hash.
func (r *Repository) CreateRefreshToken(ctx context.Context, token *model.RefreshToken) error {
	query := `
		INSERT INTO refresh_tokens (id, user_id, token_hash, user_agent, ip_address, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.pool.Exec(ctx, query,
		token.ID,
		token.UserID,
		token.TokenHash,
		token.UserAgent,
		token.IPAddress,
		token.ExpiresAt,
		token.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create refresh token: %w", err)
	}

	return nil
}

// ConsumeRefreshToken revokes the token with the given hash and returns it.
// Only a token that is unrevoked and unexpired at now can be consumed, and
// only once: concurrent callers race on the UPDATE and exactly one wins.
func (r *Repository) ConsumeRefreshToken(ctx context.Context, tokenHash string, now time.Time) (*model.RefreshToken, error) {
	query := `
		UPDATE refresh_tokens
		SET revoked_at = $2
		WHERE token_hash = $1 AND revoked_at IS NULL AND expires_at > $2
		RETURNING id, user_id, token_hash, user_agent, ip_address, expires_at, revoked_at, created_at
	`

	var token model.RefreshToken
	err := r.pool.QueryRow(ctx, query, tokenHash, now).Scan(
		&token.ID,
		&token.UserID,
		&token.TokenHash,
		&token.UserAgent,
		&token.IPAddress,
		&token.ExpiresAt,
		&token.RevokedAt,
		&token.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRefreshTokenNotFound
		}
		return nil, fmt.Errorf("failed to consume refresh token: %w", err)
	}

	return &token, nil
}

// RevokeUserRefreshTokens revokes every live token of a user.
func (r *Repository) RevokeUserRefreshTokens(ctx context.Context, userID string, now time.Time) (int64, error) {
	result, err := r.pool.Exec(ctx,
		`UPDATE refresh_tokens SET revoked_at = $2 WHERE user_id = $1 AND revoked_at IS NULL`,
		userID, now)
	if err != nil {
		return 0, fmt.Errorf("failed to revoke refresh tokens: %w", err)
	}
	return result.RowsAffected(), nil
}

// DeleteExpiredRefreshTokens removes tokens that expired before cutoff.
func (r *Repository) DeleteExpiredRefreshTokens(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.pool.Exec(ctx, `DELETE FROM refresh_tokens WHERE expires_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired refresh tokens: %w", err)
	}
	return result.RowsAffected(), nil
}
