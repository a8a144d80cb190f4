package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shubhamshk/ProjectPad/internal/domain"
	"github.com/shubhamshk/ProjectPad/internal/storage"
)

type MagicLinkRepository struct {
	db      *sql.DB
	dialect storage.Dialect
}

func NewMagicLinkRepository(db *sql.DB, dialect storage.Dialect) *MagicLinkRepository {
	return &MagicLinkRepository{db: db, dialect: dialect}
}

func (r *MagicLinkRepository) Create(ctx context.Context, link domain.MagicLink) error {
	_, err := r.db.ExecContext(ctx, r.dialect.Rebind(`
		INSERT INTO magic_links (token_hash, email, used, expires_at, created_at)
		VALUES (?, ?, ?, ?, ?)
	`), link.TokenHash, link.Email, false, link.ExpiresAt, link.CreatedAt)
	if err != nil {
		return fmt.Errorf("create magic link: %w", err)
	}
	return nil
}

func (r *MagicLinkRepository) Get(ctx context.Context, tokenHash string) (domain.MagicLink, error) {
	var link domain.MagicLink
	err := r.db.QueryRowContext(ctx, r.dialect.Rebind(`
		SELECT token_hash, email, used, expires_at, created_at
		FROM magic_links
		WHERE token_hash = ?
	`), tokenHash).Scan(&link.TokenHash, &link.Email, &link.Used, &link.ExpiresAt, &link.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.MagicLink{}, storage.ErrNotFound
	}
	if err != nil {
		return domain.MagicLink{}, fmt.Errorf("get magic link: %w", err)
	}
	return link, nil
}

// Redeem marks the link used. It returns storage.ErrConditionNotMet if it was already redeemed.
func (r *MagicLinkRepository) Redeem(ctx context.Context, tokenHash string) error {
	res, err := r.db.ExecContext(ctx, r.dialect.Rebind(`
		UPDATE magic_links SET used = ? WHERE token_hash = ? AND used = ?
	`), true, tokenHash, false)
	if err != nil {
		return fmt.Errorf("redeem magic link: %w", err)
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
