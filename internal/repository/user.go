package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/shubhamshk/ProjectPad/internal/domain"
	"github.com/shubhamshk/ProjectPad/internal/storage"
)

type UserRepository struct {
	db      *sql.DB
	dialect storage.Dialect
}

func NewUserRepository(db *sql.DB, dialect storage.Dialect) *UserRepository {
	return &UserRepository{db: db, dialect: dialect}
}

// Ensure returns the user with email, creating it on first sight.
func (r *UserRepository) Ensure(ctx context.Context, email string) (domain.User, bool, error) {
	res, err := r.db.ExecContext(ctx, r.dialect.Rebind(`
		INSERT INTO users (id, email, created_at)
		VALUES (?, ?, ?)
		ON CONFLICT (email) DO NOTHING
	`), uuid.NewString(), email, time.Now().UTC())
	if err != nil {
		return domain.User{}, false, fmt.Errorf("ensure user: %w", err)
	}
	created, err := res.RowsAffected()
	if err != nil {
		return domain.User{}, false, err
	}
	user, err := r.GetByEmail(ctx, email)
	return user, created > 0, err
}

func (r *UserRepository) Get(ctx context.Context, id string) (domain.User, error) {
	return r.getBy(ctx, "id", id)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	return r.getBy(ctx, "email", email)
}

func (r *UserRepository) getBy(ctx context.Context, column, value string) (domain.User, error) {
	var user domain.User
	err := r.db.QueryRowContext(ctx, r.dialect.Rebind(`
		SELECT id, email, created_at FROM users WHERE `+column+` = ?
	`), value).Scan(&user.ID, &user.Email, &user.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.User{}, storage.ErrNotFound
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}
