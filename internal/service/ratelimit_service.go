package service

import (
	"context"
	"time"

	"github.com/shubhamshk/ProjectPad/internal/repository"
)

const ActionChat = "chat"

type Limit struct {
	Requests int
	Window   time.Duration
}

type Decision struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// RateLimitService is a fixed-window counter per user and action, kept in the database so
// every instance sees the same counts.
type RateLimitService struct {
	repo   *repository.RateLimitRepository
	limits map[string]Limit
	now    func() time.Time
}

func NewRateLimitService(repo *repository.RateLimitRepository, limits map[string]Limit) *RateLimitService {
	return &RateLimitService{repo: repo, limits: limits, now: time.Now}
}

// Allow counts the request and reports whether it fits in the current window. Actions without
// a configured limit are always allowed.
func (s *RateLimitService) Allow(ctx context.Context, userID, action string) (Decision, error) {
	limit, ok := s.limits[action]
	if !ok || limit.Requests <= 0 || limit.Window <= 0 {
		return Decision{Allowed: true}, nil
	}

	start := s.now().UTC().Truncate(limit.Window)
	count, err := s.repo.Hit(ctx, userID, action, start.Unix())
	if err != nil {
		return Decision{}, err
	}
	if count == 1 {
		// first hit of a new window; earlier windows are dead
		if err := s.repo.DeleteBefore(ctx, userID, action, start.Unix()); err != nil {
			return Decision{}, err
		}
	}

	remaining := limit.Requests - count
	if remaining < 0 {
		remaining = 0
	}
	return Decision{
		Allowed:   count <= limit.Requests,
		Limit:     limit.Requests,
		Remaining: remaining,
		ResetAt:   start.Add(limit.Window),
	}, nil
}
