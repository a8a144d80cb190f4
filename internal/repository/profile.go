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

type ProfileRepository struct {
	db      *sql.DB
	dialect storage.Dialect
}

func NewProfileRepository(db *sql.DB, dialect storage.Dialect) *ProfileRepository {
	return &ProfileRepository{db: db, dialect: dialect}
}

const profileColumns = `id, plan, credits, monthly_project_creations, import_count, created_at, updated_at`

func scanProfile(row interface{ Scan(...any) error }) (domain.Profile, error) {
	var p domain.Profile
	err := row.Scan(&p.ID, &p.Plan, &p.Credits, &p.MonthlyProjectCreations, &p.ImportCount, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func (r *ProfileRepository) Get(ctx context.Context, id string) (domain.Profile, error) {
	p, err := scanProfile(r.db.QueryRowContext(ctx, r.dialect.Rebind(`
		SELECT `+profileColumns+`
		FROM profiles
		WHERE id = ?
	`), id))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Profile{}, storage.ErrNotFound
	}
	if err != nil {
		return domain.Profile{}, fmt.Errorf("get profile: %w", err)
	}
	return p, nil
}

// GetOrCreate returns the profile, inserting one with the given plan and balance when absent.
// Concurrent first accesses converge on a single row.
func (r *ProfileRepository) GetOrCreate(ctx context.Context, id string, plan domain.Plan, credits int64) (domain.Profile, error) {
	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx, r.dialect.Rebind(`
		INSERT INTO profiles (id, plan, credits, monthly_project_creations, import_count, created_at, updated_at)
		VALUES (?, ?, ?, 0, 0, ?, ?)
		ON CONFLICT (id) DO NOTHING
	`), id, string(plan), credits, now, now)
	if err != nil {
		return domain.Profile{}, fmt.Errorf("provision profile: %w", err)
	}
	return r.Get(ctx, id)
}

// Debit subtracts amount only if the balance covers it, in one statement.
// It returns storage.ErrConditionNotMet when the balance is short or the profile is missing.
func (r *ProfileRepository) Debit(ctx context.Context, id string, amount int64) (int64, error) {
	var credits int64
	err := r.db.QueryRowContext(ctx, r.dialect.Rebind(`
		UPDATE profiles
		SET credits = credits - ?, updated_at = ?
		WHERE id = ? AND credits >= ?
		RETURNING credits
	`), amount, time.Now().UTC(), id, amount).Scan(&credits)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, storage.ErrConditionNotMet
	}
	if err != nil {
		return 0, fmt.Errorf("debit profile: %w", err)
	}
	return credits, nil
}

func (r *ProfileRepository) TopUp(ctx context.Context, id string, amount int64) (int64, error) {
	var credits int64
	err := r.db.QueryRowContext(ctx, r.dialect.Rebind(`
		UPDATE profiles
		SET credits = credits + ?, updated_at = ?
		WHERE id = ?
		RETURNING credits
	`), amount, time.Now().UTC(), id).Scan(&credits)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, storage.ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("top up profile: %w", err)
	}
	return credits, nil
}

func (r *ProfileRepository) SetPlan(ctx context.Context, id string, plan domain.Plan) error {
	res, err := r.db.ExecContext(ctx, r.dialect.Rebind(`
		UPDATE profiles SET plan = ?, updated_at = ? WHERE id = ?
	`), string(plan), time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("set plan: %w", err)
	}
	return requireAffected(res)
}

// IncrementProjectCreations bumps the monthly project counter. Free profiles already at
// freeLimit are left unchanged and get storage.ErrConditionNotMet.
func (r *ProfileRepository) IncrementProjectCreations(ctx context.Context, id string, freeLimit int) (int, error) {
	return r.incrementCapped(ctx, id, "monthly_project_creations", freeLimit)
}

// IncrementImports is IncrementProjectCreations for the shared-chat import counter.
func (r *ProfileRepository) IncrementImports(ctx context.Context, id string, freeLimit int) (int, error) {
	return r.incrementCapped(ctx, id, "import_count", freeLimit)
}

// incrementCapped expects column to be a trusted constant.
func (r *ProfileRepository) incrementCapped(ctx context.Context, id, column string, freeLimit int) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, r.dialect.Rebind(`
		UPDATE profiles
		SET `+column+` = `+column+` + 1, updated_at = ?
		WHERE id = ? AND (plan <> ? OR `+column+` < ?)
		RETURNING `+column), time.Now().UTC(), id, string(domain.PlanFree), freeLimit).Scan(&n)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, storage.ErrConditionNotMet
	}
	if err != nil {
		return 0, fmt.Errorf("increment %s: %w", column, err)
	}
	return n, nil
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return storage.ErrNotFound
	}
	return nil
}
