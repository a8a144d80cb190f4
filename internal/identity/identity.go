// Package identity talks to the identity provider: it authenticates bearer tokens,
// provisions accounts and mints redeemable one-time session tokens.
package identity

import (
	"context"
	"errors"
)

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrInvalidToken = errors.New("invalid or expired token")
)

type Identity struct {
	ID    string
	Email string
}

type Authenticator interface {
	Authenticate(ctx context.Context, bearer string) (Identity, error)
}

// AccountProvisioner creates the account for email if it does not exist yet.
type AccountProvisioner interface {
	EnsureAccount(ctx context.Context, email string) error
}

// SessionMinter issues a one-time token the caller redeems with the provider's
// magic-link verification for a live session.
type SessionMinter interface {
	Mint(ctx context.Context, email string) (string, error)
}

// Provider bundles the capabilities the service needs.
type Provider interface {
	Authenticator
	AccountProvisioner
	SessionMinter
}
