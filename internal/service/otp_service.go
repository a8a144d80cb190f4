package service

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/shubhamshk/ProjectPad/internal/config"
	"github.com/shubhamshk/ProjectPad/internal/domain"
	"github.com/shubhamshk/ProjectPad/internal/email"
	"github.com/shubhamshk/ProjectPad/internal/identity"
	"github.com/shubhamshk/ProjectPad/internal/repository"
	"github.com/shubhamshk/ProjectPad/internal/storage"
)

const (
	DefaultOTPCooldown    = 60 * time.Second
	DefaultOTPTTL         = 10 * time.Minute
	DefaultOTPMaxAttempts = 3
)

// SessionBridge turns a verified address into a redeemable identity-provider token.
type SessionBridge interface {
	identity.AccountProvisioner
	identity.SessionMinter
}

// OTPService issues and verifies emailed one-time codes, then bridges a verified code into an
// identity-provider session without ever handling a password.
type OTPService struct {
	challenges  *repository.OTPChallengeRepository
	sender      email.Sender
	bridge      SessionBridge
	cooldown    time.Duration
	ttl         time.Duration
	maxAttempts int
	logger      *slog.Logger

	now      func() time.Time
	generate func() (string, error)
}

type OTPSession struct {
	Token string
	Email string
}

func NewOTPService(challenges *repository.OTPChallengeRepository, sender email.Sender, bridge SessionBridge, cfg config.OTPConfig, logger *slog.Logger) *OTPService {
	s := &OTPService{
		challenges:  challenges,
		sender:      sender,
		bridge:      bridge,
		cooldown:    cfg.Cooldown,
		ttl:         cfg.TTL,
		maxAttempts: cfg.MaxAttempts,
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC().Truncate(time.Microsecond) },
		generate:    generateCode,
	}
	if s.cooldown <= 0 {
		s.cooldown = DefaultOTPCooldown
	}
	if s.ttl <= 0 {
		s.ttl = DefaultOTPTTL
	}
	if s.maxAttempts <= 0 {
		s.maxAttempts = DefaultOTPMaxAttempts
	}
	return s
}

// Send persists a new challenge and mails its code. The challenge is stored before delivery,
// so a failed delivery still starts the cooldown.
func (s *OTPService) Send(ctx context.Context, address string) error {
	addr, err := normalizeEmail(address)
	if err != nil {
		return err
	}

	code, err := s.generate()
	if err != nil {
		return fmt.Errorf("generate code: %w", err)
	}
	now := s.now()
	salt := uuid.NewString()
	challenge := domain.OTPChallenge{
		ID:        uuid.NewString(),
		Email:     addr,
		CodeHash:  hashCode(salt, code),
		Salt:      salt,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}

	err = s.challenges.CreateIfQuiet(ctx, challenge, now.Add(-s.cooldown))
	switch {
	case errors.Is(err, storage.ErrConditionNotMet), storage.IsSerializationFailure(err):
		return ErrCooldown
	case err != nil:
		return err
	}

	if err := s.sender.SendOTP(ctx, addr, code); err != nil {
		s.logger.ErrorContext(ctx, "otp delivery failed", slog.String("email", addr), slog.Any("error", err))
		return fmt.Errorf("%w: %v", ErrEmailDelivery, err)
	}
	return nil
}

// Verify checks code against the newest unused, unexpired challenge for the address. On
// success the challenge is consumed and a session token is minted for the address.
func (s *OTPService) Verify(ctx context.Context, address, code string) (OTPSession, error) {
	addr, err := normalizeEmail(address)
	if err != nil {
		return OTPSession{}, err
	}

	now := s.now()
	challenge, err := s.challenges.LatestActive(ctx, addr, now)
	if errors.Is(err, storage.ErrNotFound) {
		return OTPSession{}, ErrInvalidOrExpired
	}
	if err != nil {
		return OTPSession{}, err
	}
	if challenge.Used || challenge.Expired(now) {
		return OTPSession{}, ErrInvalidOrExpired
	}
	if challenge.Attempts >= s.maxAttempts {
		return OTPSession{}, ErrTooManyAttempts
	}

	if !hmac.Equal([]byte(hashCode(challenge.Salt, strings.TrimSpace(code))), []byte(challenge.CodeHash)) {
		if _, err := s.challenges.RecordFailedAttempt(ctx, challenge.ID, s.maxAttempts); err != nil {
			if errors.Is(err, storage.ErrConditionNotMet) {
				return OTPSession{}, ErrTooManyAttempts
			}
			return OTPSession{}, err
		}
		return OTPSession{}, ErrInvalidCode
	}

	if err := s.challenges.Consume(ctx, challenge.ID, s.maxAttempts); err != nil {
		if errors.Is(err, storage.ErrConditionNotMet) {
			return OTPSession{}, ErrInvalidOrExpired
		}
		return OTPSession{}, err
	}

	if err := s.bridge.EnsureAccount(ctx, addr); err != nil {
		return OTPSession{}, fmt.Errorf("provision account: %w", err)
	}
	token, err := s.bridge.Mint(ctx, addr)
	if err != nil {
		return OTPSession{}, fmt.Errorf("mint session token: %w", err)
	}
	return OTPSession{Token: token, Email: addr}, nil
}

// PruneExpired deletes challenges that expired more than one TTL ago.
func (s *OTPService) PruneExpired(ctx context.Context) (int64, error) {
	return s.challenges.DeleteExpiredBefore(ctx, s.now().Add(-s.ttl))
}

func normalizeEmail(address string) (string, error) {
	addr := strings.ToLower(strings.TrimSpace(address))
	parsed, err := mail.ParseAddress(addr)
	if err != nil || parsed.Address != addr {
		return "", ErrInvalidEmail
	}
	return addr, nil
}

// generateCode returns a uniformly random six digit code.
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}

// hashCode is HMAC-SHA256 of the code keyed by the salt, hex encoded.
func hashCode(salt, code string) string {
	mac := hmac.New(sha256.New, []byte(salt))
	mac.Write([]byte(code))
	return hex.EncodeToString(mac.Sum(nil))
}
