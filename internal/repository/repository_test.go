package repository

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/shubhamshk/ProjectPad/internal/config"
	"github.com/shubhamshk/ProjectPad/internal/storage"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	ctx := context.Background()
	db, err := storage.NewSQLite(ctx, config.DatabaseConfig{Path: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, storage.RunMigrations(ctx, db, storage.SQLite))
	return db
}
