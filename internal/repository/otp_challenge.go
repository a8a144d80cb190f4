package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shubhamshk/ProjectPad/internal/domain"
	"github.com/shubhamshk/ProjectPad/internal/storage"
)

type OTPChallengeRepository struct {
	db      *sql.DB
	dialect storage.Dialect
}

func NewOTPChallengeRepository(db *sql.DB, dialect storage.Dialect) *OTPChallengeRepository {
	return &OTPChallengeRepository{db: db, dialect: dialect}
}

const otpColumns = `id, email, code_hash, salt, attempts, used, created_at, expires_at`

func scanChallenge(row interface{ Scan(...any) error }) (domain.OTPChallenge, error) {
	var c domain.OTPChallenge
	err := row.Scan(&c.ID, &c.Email, &c.CodeHash, &c.Salt, &c.Attempts, &c.Used, &c.CreatedAt, &c.ExpiresAt)
	return c, err
}

// Latest returns the newest challenge for email regardless of its state.
func (r *OTPChallengeRepository) Latest(ctx context.Context, email string) (domain.OTPChallenge, error) {
	return r.latest(ctx, r.db, email)
}

func (r *OTPChallengeRepository) latest(ctx context.Context, db storage.DBTX, email string) (domain.OTPChallenge, error) {
	c, err := scanChallenge(db.QueryRowContext(ctx, r.dialect.Rebind(`
		SELECT `+otpColumns+`
		FROM otp_challenges
		WHERE email = ?
		ORDER BY created_at DESC
		LIMIT 1
	`), email))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.OTPChallenge{}, storage.ErrNotFound
	}
	if err != nil {
		return domain.OTPChallenge{}, fmt.Errorf("latest otp challenge: %w", err)
	}
	return c, nil
}

// LatestActive returns the newest challenge for email that is unused and expires after now.
func (r *OTPChallengeRepository) LatestActive(ctx context.Context, email string, now time.Time) (domain.OTPChallenge, error) {
	c, err := scanChallenge(r.db.QueryRowContext(ctx, r.dialect.Rebind(`
		SELECT `+otpColumns+`
		FROM otp_challenges
		WHERE email = ? AND used = ? AND expires_at > ?
		ORDER BY created_at DESC
		LIMIT 1
	`), email, false, now))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.OTPChallenge{}, storage.ErrNotFound
	}
	if err != nil {
		return domain.OTPChallenge{}, fmt.Errorf("latest active otp challenge: %w", err)
	}
	return c, nil
}

// CreateIfQuiet inserts c unless another challenge for the same email was created after
// quietSince, in which case it returns storage.ErrConditionNotMet. The check and the insert
// share one transaction.
func (r *OTPChallengeRepository) CreateIfQuiet(ctx context.Context, c domain.OTPChallenge, quietSince time.Time) error {
	return storage.WithTx(ctx, r.db, r.dialect.TxOptions(), func(ctx context.Context, tx storage.DBTX) error {
		prev, err := r.latest(ctx, tx, c.Email)
		switch {
		case errors.Is(err, storage.ErrNotFound):
		case err != nil:
			return err
		case prev.CreatedAt.After(quietSince):
			return storage.ErrConditionNotMet
		}

		_, err = tx.ExecContext(ctx, r.dialect.Rebind(`
			INSERT INTO otp_challenges (`+otpColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`), c.ID, c.Email, c.CodeHash, c.Salt, c.Attempts, c.Used, c.CreatedAt, c.ExpiresAt)
		if err != nil {
			return fmt.Errorf("insert otp challenge: %w", err)
		}
		return nil
	})
}

// RecordFailedAttempt bumps the attempt counter while it is below limit and the challenge is
// unused. It returns the new count, or storage.ErrConditionNotMet once the counter is saturated.
func (r *OTPChallengeRepository) RecordFailedAttempt(ctx context.Context, id string, limit int) (int, error) {
	var attempts int
	err := r.db.QueryRowContext(ctx, r.dialect.Rebind(`
		UPDATE otp_challenges
		SET attempts = attempts + 1
		WHERE id = ? AND attempts < ? AND used = ?
		RETURNING attempts
	`), id, limit, false).Scan(&attempts)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, storage.ErrConditionNotMet
	}
	if err != nil {
		return 0, fmt.Errorf("record otp attempt: %w", err)
	}
	return attempts, nil
}

// Consume flips used from false to true. Only one caller can win; the rest get
// storage.ErrConditionNotMet.
func (r *OTPChallengeRepository) Consume(ctx context.Context, id string, limit int) error {
	res, err := r.db.ExecContext(ctx, r.dialect.Rebind(`
		UPDATE otp_challenges
		SET used = ?
		WHERE id = ? AND used = ? AND attempts < ?
	`), true, id, false, limit)
	if err != nil {
		return fmt.Errorf("consume otp challenge: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return storage.ErrConditionNotMet
	}
	return nil
}

// DeleteExpiredBefore removes challenges that expired before cutoff.
func (r *OTPChallengeRepository) DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, r.dialect.Rebind(`DELETE FROM otp_challenges WHERE expires_at < ?`), cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete expired otp challenges: %w", err)
	}
	return res.RowsAffected()
}
