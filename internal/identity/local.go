package identity

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/shubhamshk/ProjectPad/internal/domain"
	"github.com/shubhamshk/ProjectPad/internal/repository"
	"github.com/shubhamshk/ProjectPad/internal/storage"
)

// Local is a self-contained identity provider backed by the application database. It issues
// HS256 session tokens and one-time magic-link tokens with the same redemption contract as GoTrue.
type Local struct {
	users      *repository.UserRepository
	links      *repository.MagicLinkRepository
	signingKey []byte
	sessionTTL time.Duration
	linkTTL    time.Duration
	now        func() time.Time
}

type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
}

type Session struct {
	AccessToken string
	ExpiresAt   time.Time
	User        Identity
}

func NewLocal(users *repository.UserRepository, links *repository.MagicLinkRepository, signingKey []byte, sessionTTL, linkTTL time.Duration) (*Local, error) {
	if len(signingKey) < 32 {
		return nil, errors.New("session signing key must be at least 32 bytes")
	}
	return &Local{
		users:      users,
		links:      links,
		signingKey: signingKey,
		sessionTTL: sessionTTL,
		linkTTL:    linkTTL,
		now:        func() time.Time { return time.Now().UTC() },
	}, nil
}

func (l *Local) Authenticate(ctx context.Context, bearer string) (Identity, error) {
	if bearer == "" {
		return Identity{}, ErrUnauthorized
	}
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(bearer, claims, func(t *jwt.Token) (any, error) {
		return l.signingKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(l.now),
	)
	if err != nil || !token.Valid || claims.Subject == "" {
		return Identity{}, ErrUnauthorized
	}
	return Identity{ID: claims.Subject, Email: claims.Email}, nil
}

func (l *Local) EnsureAccount(ctx context.Context, email string) error {
	_, _, err := l.users.Ensure(ctx, email)
	return err
}

func (l *Local) Mint(ctx context.Context, email string) (string, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	token := hex.EncodeToString(raw)
	now := l.now()
	if err := l.links.Create(ctx, domain.MagicLink{
		TokenHash: hashToken(token),
		Email:     email,
		ExpiresAt: now.Add(l.linkTTL),
		CreatedAt: now,
	}); err != nil {
		return "", err
	}
	return token, nil
}

// Redeem exchanges a minted token for a session exactly once. When email is given it must
// match the address the token was minted for.
func (l *Local) Redeem(ctx context.Context, token, email string) (Session, error) {
	if token == "" {
		return Session{}, ErrInvalidToken
	}
	hash := hashToken(token)
	link, err := l.links.Get(ctx, hash)
	if errors.Is(err, storage.ErrNotFound) {
		return Session{}, ErrInvalidToken
	}
	if err != nil {
		return Session{}, err
	}
	if link.Used || !l.now().Before(link.ExpiresAt) {
		return Session{}, ErrInvalidToken
	}
	if email != "" && !strings.EqualFold(strings.TrimSpace(email), link.Email) {
		return Session{}, ErrInvalidToken
	}
	if err := l.links.Redeem(ctx, hash); err != nil {
		if errors.Is(err, storage.ErrConditionNotMet) {
			return Session{}, ErrInvalidToken
		}
		return Session{}, err
	}

	user, _, err := l.users.Ensure(ctx, link.Email)
	if err != nil {
		return Session{}, err
	}
	return l.issue(user)
}

func (l *Local) issue(user domain.User) (Session, error) {
	now := l.now()
	expires := now.Add(l.sessionTTL)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
		Email: user.Email,
	})
	signed, err := token.SignedString(l.signingKey)
	if err != nil {
		return Session{}, fmt.Errorf("sign session: %w", err)
	}
	return Session{AccessToken: signed, ExpiresAt: expires, User: Identity{ID: user.ID, Email: user.Email}}, nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
