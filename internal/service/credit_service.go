package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/shubhamshk/ProjectPad/internal/domain"
	"github.com/shubhamshk/ProjectPad/internal/repository"
	"github.com/shubhamshk/ProjectPad/internal/storage"
)

const (
	// CostPerMessage is what one successful chat turn costs on the free plan.
	CostPerMessage int64 = 25
	// StartingCredits is the balance of a newly provisioned profile.
	StartingCredits int64 = 5000

	// FreeProjectLimit and FreeImportLimit cap the usage counters on the free plan.
	FreeProjectLimit = 3
	FreeImportLimit  = 3
)

type CreditService struct {
	profiles *repository.ProfileRepository
}

func NewCreditService(profiles *repository.ProfileRepository) *CreditService {
	return &CreditService{profiles: profiles}
}

// Balance provisions a free profile with StartingCredits on first access.
func (s *CreditService) Balance(ctx context.Context, userID string) (domain.Balance, error) {
	p, err := s.profiles.GetOrCreate(ctx, userID, domain.PlanFree, StartingCredits)
	if err != nil {
		return domain.Balance{}, err
	}
	return domain.Balance{Credits: p.Credits, Plan: p.Plan, Unlimited: p.Plan.Unlimited()}, nil
}

// Charge debits amount on the free plan and returns the new balance. Paid plans are not
// decremented. The debit is conditional on the balance covering it, so concurrent turns cannot
// take the balance below zero; a short balance yields ErrInsufficientCredits.
func (s *CreditService) Charge(ctx context.Context, userID string, amount int64) (int64, error) {
	bal, err := s.Balance(ctx, userID)
	if err != nil {
		return 0, err
	}
	if bal.Unlimited {
		return bal.Credits, nil
	}
	left, err := s.profiles.Debit(ctx, userID, amount)
	if errors.Is(err, storage.ErrConditionNotMet) {
		return 0, ErrInsufficientCredits
	}
	return left, err
}

func (s *CreditService) TopUp(ctx context.Context, userID string, amount int64) (int64, error) {
	if amount <= 0 {
		return 0, fmt.Errorf("%w: amount must be positive", ErrInvalidRequest)
	}
	if _, err := s.Balance(ctx, userID); err != nil {
		return 0, err
	}
	return s.profiles.TopUp(ctx, userID, amount)
}

func (s *CreditService) SetPlan(ctx context.Context, userID string, plan domain.Plan) (domain.Balance, error) {
	if !plan.Valid() {
		return domain.Balance{}, ErrInvalidPlan
	}
	if _, err := s.Balance(ctx, userID); err != nil {
		return domain.Balance{}, err
	}
	if err := s.profiles.SetPlan(ctx, userID, plan); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return domain.Balance{}, ErrProfileNotFound
		}
		return domain.Balance{}, err
	}
	return s.Balance(ctx, userID)
}

// RecordProjectCreation bumps the monthly project counter. Free profiles are capped at
// FreeProjectLimit and get ErrQuotaExceeded beyond it.
func (s *CreditService) RecordProjectCreation(ctx context.Context, userID string) (int, error) {
	if _, err := s.Balance(ctx, userID); err != nil {
		return 0, err
	}
	return quota(s.profiles.IncrementProjectCreations(ctx, userID, FreeProjectLimit))
}

// RecordImport counts a confirmed shared-chat import, capped at FreeImportLimit on the free plan.
func (s *CreditService) RecordImport(ctx context.Context, userID string) (int, error) {
	if _, err := s.Balance(ctx, userID); err != nil {
		return 0, err
	}
	return quota(s.profiles.IncrementImports(ctx, userID, FreeImportLimit))
}

func quota(n int, err error) (int, error) {
	if errors.Is(err, storage.ErrConditionNotMet) {
		return 0, ErrQuotaExceeded
	}
	return n, err
}
