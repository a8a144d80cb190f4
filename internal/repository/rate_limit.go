package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shubhamshk/ProjectPad/internal/storage"
)

type RateLimitRepository struct {
	db      *sql.DB
	dialect storage.Dialect
}

func NewRateLimitRepository(db *sql.DB, dialect storage.Dialect) *RateLimitRepository {
	return &RateLimitRepository{db: db, dialect: dialect}
}

// Hit counts one request against the (user, action, window) bucket and returns the new total.
func (r *RateLimitRepository) Hit(ctx context.Context, userID, action string, windowStart int64) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, r.dialect.Rebind(`
		INSERT INTO rate_limits (user_id, action, window_start, request_count)
		VALUES (?, ?, ?, 1)
		ON CONFLICT (user_id, action, window_start) DO UPDATE
		SET request_count = rate_limits.request_count + 1
		RETURNING request_count
	`), userID, action, windowStart).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("rate limit hit: %w", err)
	}
	return count, nil
}

// DeleteBefore drops buckets for windows that started before windowStart.
func (r *RateLimitRepository) DeleteBefore(ctx context.Context, userID, action string, windowStart int64) error {
	_, err := r.db.ExecContext(ctx, r.dialect.Rebind(`
		DELETE FROM rate_limits WHERE user_id = ? AND action = ? AND window_start < ?
	`), userID, action, windowStart)
	if err != nil {
		return fmt.Errorf("prune rate limits: %w", err)
	}
	return nil
}
