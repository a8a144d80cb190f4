package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shubhamshk/ProjectPad/internal/repository"
	"github.com/shubhamshk/ProjectPad/internal/storage"
)

func TestRateLimitService_Allow(t *testing.T) {
	repo := repository.NewRateLimitRepository(newTestDB(t), storage.SQLite)
	svc := NewRateLimitService(repo, map[string]Limit{ActionChat: {Requests: 2, Window: time.Hour}})
	clock := time.Date(2025, 3, 1, 12, 10, 0, 0, time.UTC)
	svc.now = func() time.Time { return clock }
	ctx := context.Background()

	d, err := svc.Allow(ctx, "u1", ActionChat)
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.Equal(t, 1, d.Remaining)
	assert.Equal(t, time.Date(2025, 3, 1, 13, 0, 0, 0, time.UTC), d.ResetAt)

	d, err = svc.Allow(ctx, "u1", ActionChat)
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.Zero(t, d.Remaining)

	d, err = svc.Allow(ctx, "u1", ActionChat)
	require.NoError(t, err)
	assert.False(t, d.Allowed)

	// other users have their own bucket
	d, err = svc.Allow(ctx, "u2", ActionChat)
	require.NoError(t, err)
	assert.True(t, d.Allowed)

	clock = clock.Add(time.Hour)
	d, err = svc.Allow(ctx, "u1", ActionChat)
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.Equal(t, 1, d.Remaining)
}

func TestRateLimitService_UnknownActionAllowed(t *testing.T) {
	repo := repository.NewRateLimitRepository(newTestDB(t), storage.SQLite)
	svc := NewRateLimitService(repo, nil)

	d, err := svc.Allow(context.Background(), "u1", "export")
	require.NoError(t, err)
	assert.True(t, d.Allowed)
}
