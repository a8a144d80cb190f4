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

type APIKeyRepository struct {
	db      *sql.DB
	dialect storage.Dialect
}

func NewAPIKeyRepository(db *sql.DB, dialect storage.Dialect) *APIKeyRepository {
	return &APIKeyRepository{db: db, dialect: dialect}
}

func (r *APIKeyRepository) List(ctx context.Context, userID string) ([]domain.APIKey, error) {
	rows, err := r.db.QueryContext(ctx, r.dialect.Rebind(`
		SELECT id, user_id, provider_name, encrypted_key, valid, created_at, updated_at
		FROM api_keys
		WHERE user_id = ?
		ORDER BY provider_name
	`), userID)
	if err != nil {
		return nil, fmt.Errorf("list api keys: %w", err)
	}
	defer rows.Close()

	var keys []domain.APIKey
	for rows.Next() {
		var key domain.APIKey
		if err := rows.Scan(&key.ID, &key.UserID, &key.ProviderName, &key.EncryptedKey, &key.Valid, &key.CreatedAt, &key.UpdatedAt); err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

// Upsert stores the sealed key for (user, provider), replacing any previous one.
// A replaced key starts out unvalidated.
func (r *APIKeyRepository) Upsert(ctx context.Context, userID, provider, encrypted string) (domain.APIKey, error) {
	now := time.Now().UTC()
	var key domain.APIKey
	err := r.db.QueryRowContext(ctx, r.dialect.Rebind(`
		INSERT INTO api_keys (id, user_id, provider_name, encrypted_key, valid, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, provider_name) DO UPDATE
		SET encrypted_key = excluded.encrypted_key,
		    valid = excluded.valid,
		    updated_at = excluded.updated_at
		RETURNING id, user_id, provider_name, encrypted_key, valid, created_at, updated_at
	`), uuid.NewString(), userID, provider, encrypted, false, now, now).Scan(
		&key.ID, &key.UserID, &key.ProviderName, &key.EncryptedKey, &key.Valid, &key.CreatedAt, &key.UpdatedAt,
	)
	if err != nil {
		return domain.APIKey{}, fmt.Errorf("upsert api key: %w", err)
	}
	return key, nil
}

func (r *APIKeyRepository) Delete(ctx context.Context, userID, provider string) error {
	res, err := r.db.ExecContext(ctx, r.dialect.Rebind(`DELETE FROM api_keys WHERE provider_name = ? AND user_id = ?`), provider, userID)
	if err != nil {
		return fmt.Errorf("delete api key: %w", err)
	}
	return requireAffected(res)
}

func (r *APIKeyRepository) GetByProvider(ctx context.Context, userID, provider string) (domain.APIKey, error) {
	var key domain.APIKey
	err := r.db.QueryRowContext(ctx, r.dialect.Rebind(`
		SELECT id, user_id, provider_name, encrypted_key, valid, created_at, updated_at
		FROM api_keys
		WHERE provider_name = ? AND user_id = ?
	`), provider, userID).Scan(&key.ID, &key.UserID, &key.ProviderName, &key.EncryptedKey, &key.Valid, &key.CreatedAt, &key.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.APIKey{}, storage.ErrNotFound
	}
	if err != nil {
		return domain.APIKey{}, fmt.Errorf("get api key: %w", err)
	}
	return key, nil
}

func (r *APIKeyRepository) SetValid(ctx context.Context, userID, provider string, valid bool) error {
	res, err := r.db.ExecContext(ctx, r.dialect.Rebind(`
		UPDATE api_keys SET valid = ?, updated_at = ? WHERE provider_name = ? AND user_id = ?
	`), valid, time.Now().UTC(), provider, userID)
	if err != nil {
		return fmt.Errorf("set api key validity: %w", err)
	}
	return requireAffected(res)
}
