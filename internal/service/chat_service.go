package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shubhamshk/ProjectPad/internal/providers"
)

type ChatMessage struct {
	Role    string
	Content string
}

// ChatTurn is one request: prior messages, ending with the new user prompt.
type ChatTurn struct {
	Messages  []ChatMessage
	ModelID   string
	ProjectID string
	APIKey    string
}

type ChatResult struct {
	Text             string
	Provider         providers.Family
	CreditsRemaining int64
	Unlimited        bool
}

type credentialSource int

const (
	sourceRequest credentialSource = iota
	sourceStored
	sourceFallback
)

// ChatService runs a chat turn: balance check, dispatch to the provider adapter, then the
// charge. Turns that fail upstream are never charged.
type ChatService struct {
	credits      *CreditService
	secrets      *SecretService
	registry     *providers.Registry
	fallbackKeys map[providers.Family]string
	timeout      time.Duration
	logger       *slog.Logger
}

func NewChatService(
	credits *CreditService,
	secrets *SecretService,
	registry *providers.Registry,
	fallbackKeys map[providers.Family]string,
	timeout time.Duration,
	logger *slog.Logger,
) *ChatService {
	return &ChatService{
		credits:      credits,
		secrets:      secrets,
		registry:     registry,
		fallbackKeys: fallbackKeys,
		timeout:      timeout,
		logger:       logger,
	}
}

// Chat expects userID to be an already authenticated identity.
func (s *ChatService) Chat(ctx context.Context, userID string, turn ChatTurn) (ChatResult, error) {
	history, prompt, err := splitTurn(turn.Messages)
	if err != nil {
		return ChatResult{}, err
	}

	bal, err := s.credits.Balance(ctx, userID)
	if err != nil {
		return ChatResult{}, err
	}
	if !bal.Unlimited && bal.Credits < CostPerMessage {
		return ChatResult{}, ErrInsufficientCredits
	}

	route, err := providers.Resolve(turn.ModelID)
	if err != nil {
		return ChatResult{}, fmt.Errorf("%w: %s", ErrUnsupportedModel, turn.ModelID)
	}
	adapter, ok := s.registry.Adapter(route.Family)
	if !ok {
		return ChatResult{}, fmt.Errorf("%w: %s", ErrUnsupportedModel, turn.ModelID)
	}

	key, source, err := s.credential(ctx, userID, route.Family, turn.APIKey)
	if err != nil {
		return ChatResult{}, err
	}

	callCtx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	text, err := adapter.Chat(callCtx, providers.Request{
		Model:   route.Model,
		History: history,
		Prompt:  prompt,
		APIKey:  key,
	})
	if err != nil {
		s.logUpstreamFailure(ctx, userID, turn.ProjectID, route, err)
		if source == sourceStored && providers.KindOf(err) == providers.KindInvalidCredential {
			s.markValidity(ctx, userID, route.Family, false)
		}
		return ChatResult{}, err
	}
	if source == sourceStored {
		s.markValidity(ctx, userID, route.Family, true)
	}

	remaining, err := s.credits.Charge(ctx, userID, CostPerMessage)
	if err != nil {
		// another turn drained the balance between the check and the debit
		return ChatResult{}, err
	}

	return ChatResult{
		Text:             text,
		Provider:         route.Family,
		CreditsRemaining: remaining,
		Unlimited:        bal.Unlimited,
	}, nil
}

// credential picks the caller's key, then the stored key, then the shared fallback.
func (s *ChatService) credential(ctx context.Context, userID string, family providers.Family, supplied string) (string, credentialSource, error) {
	if key := strings.TrimSpace(supplied); key != "" {
		return key, sourceRequest, nil
	}

	secret, err := s.secrets.Get(ctx, userID, family)
	switch {
	case err == nil:
		return secret.Key, sourceStored, nil
	case !errors.Is(err, ErrSecretNotFound):
		return "", 0, err
	}

	if key := s.fallbackKeys[family]; key != "" {
		return key, sourceFallback, nil
	}
	return "", 0, providers.MissingCredential(family)
}

func (s *ChatService) markValidity(ctx context.Context, userID string, family providers.Family, valid bool) {
	if err := s.secrets.MarkValidity(ctx, userID, family, valid); err != nil && !errors.Is(err, ErrSecretNotFound) {
		s.logger.WarnContext(ctx, "failed to update api key validity",
			slog.String("user_id", userID),
			slog.String("provider", string(family)),
			slog.Any("error", err),
		)
	}
}

func (s *ChatService) logUpstreamFailure(ctx context.Context, userID, projectID string, route providers.Route, err error) {
	attrs := []any{
		slog.String("user_id", userID),
		slog.String("project_id", projectID),
		slog.String("provider", string(route.Family)),
		slog.String("model", route.Model),
		slog.String("kind", string(providers.KindOf(err))),
	}
	var perr *providers.Error
	if errors.As(err, &perr) {
		attrs = append(attrs, slog.Int("status", perr.Status))
	}
	s.logger.WarnContext(ctx, "chat upstream call failed", attrs...)
}

// splitTurn validates the messages and separates the history from the final user prompt.
func splitTurn(messages []ChatMessage) ([]providers.Message, string, error) {
	if len(messages) == 0 {
		return nil, "", fmt.Errorf("%w: messages are required", ErrInvalidRequest)
	}
	out := make([]providers.Message, 0, len(messages))
	for i, m := range messages {
		role, ok := providers.ParseRole(m.Role)
		if !ok {
			return nil, "", fmt.Errorf("%w: message %d has unknown role %q", ErrInvalidRequest, i, m.Role)
		}
		out = append(out, providers.Message{Role: role, Content: m.Content})
	}
	last := out[len(out)-1]
	if last.Role != providers.RoleUser {
		return nil, "", fmt.Errorf("%w: the last message must come from the user", ErrInvalidRequest)
	}
	if strings.TrimSpace(last.Content) == "" {
		return nil, "", fmt.Errorf("%w: the prompt is empty", ErrInvalidRequest)
	}
	return out[:len(out)-1], last.Content, nil
}
