package service

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/shubhamshk/ProjectPad/internal/config"
	"github.com/shubhamshk/ProjectPad/internal/cryptobox"
	"github.com/shubhamshk/ProjectPad/internal/providers"
	"github.com/shubhamshk/ProjectPad/internal/storage"
)

var testMasterKey = strings.Repeat("ab", 32)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	ctx := context.Background()
	db, err := storage.NewSQLite(ctx, config.DatabaseConfig{Path: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, storage.RunMigrations(ctx, db, storage.SQLite))
	return db
}

func newTestBox(t *testing.T) *cryptobox.Box {
	t.Helper()
	box, err := cryptobox.New(testMasterKey)
	require.NoError(t, err)
	return box
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeAdapter records every request and answers with reply or err.
type fakeAdapter struct {
	mu       sync.Mutex
	reply    string
	err      error
	requests []providers.Request
}

func (f *fakeAdapter) Chat(ctx context.Context, req providers.Request) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func (f *fakeAdapter) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

func (f *fakeAdapter) last() providers.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[len(f.requests)-1]
}

type fakeAdapters map[providers.Family]*fakeAdapter

func newFakeAdapters() fakeAdapters {
	out := fakeAdapters{}
	for _, f := range providers.Families() {
		out[f] = &fakeAdapter{reply: "hello from " + string(f)}
	}
	return out
}

func (f fakeAdapters) registry(t *testing.T) *providers.Registry {
	t.Helper()
	adapters := make(map[providers.Family]providers.Adapter, len(f))
	for family, a := range f {
		adapters[family] = a
	}
	reg, err := providers.NewRegistry(adapters)
	require.NoError(t, err)
	return reg
}
