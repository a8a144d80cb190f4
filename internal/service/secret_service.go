package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shubhamshk/ProjectPad/internal/cryptobox"
	"github.com/shubhamshk/ProjectPad/internal/domain"
	"github.com/shubhamshk/ProjectPad/internal/providers"
	"github.com/shubhamshk/ProjectPad/internal/repository"
	"github.com/shubhamshk/ProjectPad/internal/storage"
)

// SecretService stores per-user provider keys sealed under the master key.
type SecretService struct {
	repo   *repository.APIKeyRepository
	box    *cryptobox.Box
	logger *slog.Logger
}

type Secret struct {
	Provider providers.Family
	Key      string
	Valid    bool
}

func NewSecretService(repo *repository.APIKeyRepository, box *cryptobox.Box, logger *slog.Logger) *SecretService {
	return &SecretService{repo: repo, box: box, logger: logger}
}

func (s *SecretService) List(ctx context.Context, userID string) ([]domain.APIKey, error) {
	return s.repo.List(ctx, userID)
}

// Get returns ErrSecretNotFound when nothing is on file and cryptobox.ErrDecrypt when the
// stored envelope does not open.
func (s *SecretService) Get(ctx context.Context, userID string, provider providers.Family) (Secret, error) {
	record, err := s.repo.GetByProvider(ctx, userID, string(provider))
	if errors.Is(err, storage.ErrNotFound) {
		return Secret{}, ErrSecretNotFound
	}
	if err != nil {
		return Secret{}, err
	}
	key, err := s.box.Open(record.EncryptedKey)
	if err != nil {
		s.logger.ErrorContext(ctx, "stored api key failed to decrypt",
			slog.String("user_id", userID),
			slog.String("provider", string(provider)),
		)
		return Secret{}, fmt.Errorf("open api key: %w", err)
	}
	return Secret{Provider: provider, Key: key, Valid: record.Valid}, nil
}

// Put seals plaintext with a fresh nonce and overwrites any previous key for the provider.
func (s *SecretService) Put(ctx context.Context, userID, provider, plaintext string) (domain.APIKey, error) {
	family, ok := providers.ParseFamily(provider)
	if !ok {
		return domain.APIKey{}, ErrProviderNotSupported
	}
	plaintext = strings.TrimSpace(plaintext)
	if plaintext == "" {
		return domain.APIKey{}, fmt.Errorf("%w: api key is empty", ErrInvalidRequest)
	}
	sealed, err := s.box.Seal(plaintext)
	if err != nil {
		return domain.APIKey{}, err
	}
	return s.repo.Upsert(ctx, userID, string(family), sealed)
}

func (s *SecretService) Delete(ctx context.Context, userID, provider string) error {
	family, ok := providers.ParseFamily(provider)
	if !ok {
		return ErrProviderNotSupported
	}
	err := s.repo.Delete(ctx, userID, string(family))
	if errors.Is(err, storage.ErrNotFound) {
		return ErrSecretNotFound
	}
	return err
}

func (s *SecretService) MarkValidity(ctx context.Context, userID string, provider providers.Family, valid bool) error {
	err := s.repo.SetValid(ctx, userID, string(provider), valid)
	if errors.Is(err, storage.ErrNotFound) {
		return ErrSecretNotFound
	}
	return err
}
