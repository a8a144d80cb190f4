package identity

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shubhamshk/ProjectPad/internal/config"
	"github.com/shubhamshk/ProjectPad/internal/repository"
	"github.com/shubhamshk/ProjectPad/internal/storage"
)

var testSigningKey = []byte(strings.Repeat("k", 32))

func newLocal(t *testing.T) *Local {
	t.Helper()
	ctx := context.Background()
	db, err := storage.NewSQLite(ctx, config.DatabaseConfig{Path: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, storage.RunMigrations(ctx, db, storage.SQLite))

	l, err := NewLocal(repository.NewUserRepository(db, storage.SQLite), repository.NewMagicLinkRepository(db, storage.SQLite),
		testSigningKey, time.Hour, 5*time.Minute)
	require.NoError(t, err)
	return l
}

func TestNewLocal_ShortKey(t *testing.T) {
	_, err := NewLocal(nil, nil, []byte("short"), time.Hour, time.Minute)
	require.Error(t, err)
}

func TestLocal_MintRedeemAuthenticate(t *testing.T) {
	l := newLocal(t)
	ctx := context.Background()

	require.NoError(t, l.EnsureAccount(ctx, "a@example.com"))
	require.NoError(t, l.EnsureAccount(ctx, "a@example.com"), "existing account is fine")

	token, err := l.Mint(ctx, "a@example.com")
	require.NoError(t, err)
	require.Len(t, token, 64)

	session, err := l.Redeem(ctx, token, "A@Example.com")
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", session.User.Email)
	assert.NotEmpty(t, session.User.ID)

	id, err := l.Authenticate(ctx, session.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, session.User, id)

	_, err = l.Redeem(ctx, token, "a@example.com")
	require.ErrorIs(t, err, ErrInvalidToken, "tokens are single use")
}

func TestLocal_RedeemRejects(t *testing.T) {
	l := newLocal(t)
	ctx := context.Background()

	_, err := l.Redeem(ctx, "", "")
	require.ErrorIs(t, err, ErrInvalidToken)
	_, err = l.Redeem(ctx, "unknown", "")
	require.ErrorIs(t, err, ErrInvalidToken)

	token, err := l.Mint(ctx, "a@example.com")
	require.NoError(t, err)
	_, err = l.Redeem(ctx, token, "b@example.com")
	require.ErrorIs(t, err, ErrInvalidToken, "email must match")

	expired, err := l.Mint(ctx, "c@example.com")
	require.NoError(t, err)
	l.now = func() time.Time { return time.Now().UTC().Add(10 * time.Minute) }
	_, err = l.Redeem(ctx, expired, "")
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestLocal_AuthenticateRejects(t *testing.T) {
	l := newLocal(t)
	ctx := context.Background()

	_, err := l.Authenticate(ctx, "")
	require.ErrorIs(t, err, ErrUnauthorized)
	_, err = l.Authenticate(ctx, "not.a.jwt")
	require.ErrorIs(t, err, ErrUnauthorized)

	foreign := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject: "u", ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}})
	signed, err := foreign.SignedString([]byte(strings.Repeat("x", 32)))
	require.NoError(t, err)
	_, err = l.Authenticate(ctx, signed)
	require.ErrorIs(t, err, ErrUnauthorized, "wrong signing key")

	noExpiry := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "u"}})
	signed, err = noExpiry.SignedString(testSigningKey)
	require.NoError(t, err)
	_, err = l.Authenticate(ctx, signed)
	require.ErrorIs(t, err, ErrUnauthorized, "expiry is required")

	require.NoError(t, l.EnsureAccount(ctx, "a@example.com"))
	token, err := l.Mint(ctx, "a@example.com")
	require.NoError(t, err)
	session, err := l.Redeem(ctx, token, "")
	require.NoError(t, err)
	l.now = func() time.Time { return time.Now().UTC().Add(2 * time.Hour) }
	_, err = l.Authenticate(ctx, session.AccessToken)
	require.ErrorIs(t, err, ErrUnauthorized, "expired session")
}
