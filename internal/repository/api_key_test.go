package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shubhamshk/ProjectPad/internal/storage"
)

func TestAPIKeyRepository_Lifecycle(t *testing.T) {
	repo := NewAPIKeyRepository(newTestDB(t), storage.SQLite)
	ctx := context.Background()

	_, err := repo.GetByProvider(ctx, "u1", "gemini")
	require.ErrorIs(t, err, storage.ErrNotFound)

	first, err := repo.Upsert(ctx, "u1", "gemini", "sealed-1")
	require.NoError(t, err)
	assert.False(t, first.Valid)

	require.NoError(t, repo.SetValid(ctx, "u1", "gemini", true))
	got, err := repo.GetByProvider(ctx, "u1", "gemini")
	require.NoError(t, err)
	assert.True(t, got.Valid)

	second, err := repo.Upsert(ctx, "u1", "gemini", "sealed-2")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID, "one row per user and provider")
	assert.Equal(t, "sealed-2", second.EncryptedKey)
	assert.False(t, second.Valid, "a replaced key must be validated again")

	_, err = repo.Upsert(ctx, "u1", "openai", "sealed-3")
	require.NoError(t, err)
	_, err = repo.Upsert(ctx, "u2", "openai", "sealed-4")
	require.NoError(t, err)

	keys, err := repo.List(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, keys, 2)
	assert.Equal(t, "gemini", keys[0].ProviderName)
	assert.Equal(t, "openai", keys[1].ProviderName)

	require.NoError(t, repo.Delete(ctx, "u1", "gemini"))
	require.ErrorIs(t, repo.Delete(ctx, "u1", "gemini"), storage.ErrNotFound)
	require.ErrorIs(t, repo.SetValid(ctx, "u1", "gemini", true), storage.ErrNotFound)

	keys, err = repo.List(ctx, "u2")
	require.NoError(t, err)
	assert.Len(t, keys, 1)
}
