package storage

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shubhamshk/ProjectPad/internal/config"
)

func openMemory(t *testing.T) *sql.DB {
	t.Helper()
	db, err := NewSQLite(context.Background(), config.DatabaseConfig{Path: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestRunMigrations_SQLite(t *testing.T) {
	db := openMemory(t)
	ctx := context.Background()

	require.NoError(t, RunMigrations(ctx, db, SQLite))
	// second run is a no-op
	require.NoError(t, RunMigrations(ctx, db, SQLite))

	for _, table := range []string{"profiles", "api_keys", "otp_challenges", "rate_limits", "users", "magic_links"} {
		var name string
		err := db.QueryRowContext(ctx, `SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&name)
		require.NoError(t, err, table)
	}

	_, err := db.ExecContext(ctx, `INSERT INTO profiles (id, plan, credits) VALUES ('u1', 'free', -1)`)
	require.Error(t, err, "negative balances are rejected by the schema")
}

func TestRunMigrations_NilDB(t *testing.T) {
	require.Error(t, RunMigrations(context.Background(), nil, SQLite))
}

func TestRunMigrations_PropagatesGooseError(t *testing.T) {
	db := openMemory(t)
	orig := gooseUpContext
	t.Cleanup(func() { gooseUpContext = orig })

	var gotDir string
	gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		gotDir = dir
		return errors.New("boom")
	}

	err := RunMigrations(context.Background(), db, Postgres)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
	assert.Equal(t, "migrations/postgres", gotDir)
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, _, err := Open(context.Background(), config.DatabaseConfig{Driver: "oracle"})
	require.Error(t, err)
}

func TestOpen_PostgresRequiresDSN(t *testing.T) {
	_, dialect, err := Open(context.Background(), config.DatabaseConfig{Driver: "postgres"})
	require.Error(t, err)
	assert.Equal(t, Postgres, dialect)
}

func TestQuoteIdentifier(t *testing.T) {
	assert.Equal(t, `"projectpad"`, quoteIdentifier("projectpad"))
	assert.Equal(t, `"we""ird"`, quoteIdentifier(`we"ird`))
}

func TestIsSerializationFailure(t *testing.T) {
	assert.True(t, IsSerializationFailure(&pgconn.PgError{Code: "40001"}))
	assert.False(t, IsSerializationFailure(&pgconn.PgError{Code: "23505"}))
	assert.False(t, IsSerializationFailure(errors.New("other")))
}
