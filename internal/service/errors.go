package service

import "errors"

var (
	ErrInvalidRequest       = errors.New("invalid request")
	ErrProviderNotSupported = errors.New("provider not supported")
	ErrSecretNotFound       = errors.New("no API key on file for provider")
	ErrInsufficientCredits  = errors.New("insufficient credits")
	ErrUnsupportedModel     = errors.New("unsupported model")
	ErrProfileNotFound      = errors.New("profile not found")
	ErrInvalidPlan          = errors.New("invalid plan")
	ErrQuotaExceeded        = errors.New("free plan limit reached, upgrade to continue")

	ErrInvalidEmail     = errors.New("invalid email address")
	ErrCooldown         = errors.New("cooldown")
	ErrInvalidOrExpired = errors.New("code is invalid or expired")
	ErrTooManyAttempts  = errors.New("too many attempts, request a new code")
	ErrInvalidCode      = errors.New("invalid code")
	ErrEmailDelivery    = errors.New("could not deliver the verification email")

	ErrTooManyRequests = errors.New("too many requests")
)
