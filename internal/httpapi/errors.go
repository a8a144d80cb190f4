package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/shubhamshk/ProjectPad/internal/cryptobox"
	"github.com/shubhamshk/ProjectPad/internal/identity"
	"github.com/shubhamshk/ProjectPad/internal/providers"
	"github.com/shubhamshk/ProjectPad/internal/service"
)

const (
	kindUnauthorized        = "unauthorized"
	kindConfig              = "config_error"
	kindDecrypt             = "decrypt_error"
	kindInsufficientCredits = "insufficient_credits"
	kindUnsupportedModel    = "unsupported_model"
	kindCooldown            = "cooldown"
	kindInvalidOrExpired    = "invalid_or_expired"
	kindTooManyAttempts     = "too_many_attempts"
	kindInvalidCode         = "invalid_code"
	kindEmailDelivery       = "email_delivery_error"
	kindValidation          = "validation_error"
	kindUnsupportedProvider = "unsupported_provider"
	kindTooManyRequests     = "too_many_requests"
	kindQuotaExceeded       = "quota_exceeded"
	kindNotFound            = "not_found"
	kindInternal            = "internal_error"
)

type errorBody struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

func abortWithError(c *gin.Context, status int, kind, message string) {
	c.AbortWithStatusJSON(status, errorBody{Error: message, Kind: kind})
}

// handleError is the single place where service and adapter errors become HTTP responses.
func handleError(c *gin.Context, logger *slog.Logger, err error) {
	var perr *providers.Error
	switch {
	case errors.As(err, &perr):
		abortWithError(c, http.StatusBadRequest, string(perr.Kind), perr.Error())
	case errors.Is(err, context.DeadlineExceeded):
		abortWithError(c, http.StatusBadRequest, string(providers.KindUpstream), "upstream request timed out")
	case errors.Is(err, identity.ErrUnauthorized):
		abortWithError(c, http.StatusBadRequest, kindUnauthorized, "Unauthorized")
	case errors.Is(err, identity.ErrInvalidToken):
		abortWithError(c, http.StatusBadRequest, kindInvalidOrExpired, err.Error())
	case errors.Is(err, service.ErrInsufficientCredits):
		abortWithError(c, http.StatusBadRequest, kindInsufficientCredits, "Insufficient credits")
	case errors.Is(err, service.ErrUnsupportedModel):
		abortWithError(c, http.StatusBadRequest, kindUnsupportedModel, err.Error())
	case errors.Is(err, service.ErrInvalidRequest), errors.Is(err, service.ErrInvalidEmail), errors.Is(err, service.ErrInvalidPlan):
		abortWithError(c, http.StatusBadRequest, kindValidation, err.Error())
	case errors.Is(err, service.ErrProviderNotSupported):
		abortWithError(c, http.StatusBadRequest, kindUnsupportedProvider, err.Error())
	case errors.Is(err, service.ErrSecretNotFound), errors.Is(err, service.ErrProfileNotFound):
		abortWithError(c, http.StatusNotFound, kindNotFound, err.Error())
	case errors.Is(err, service.ErrQuotaExceeded):
		abortWithError(c, http.StatusForbidden, kindQuotaExceeded, err.Error())
	case errors.Is(err, service.ErrCooldown):
		abortWithError(c, http.StatusTooManyRequests, kindCooldown, "cooldown")
	case errors.Is(err, service.ErrTooManyRequests):
		abortWithError(c, http.StatusTooManyRequests, kindTooManyRequests, err.Error())
	case errors.Is(err, service.ErrInvalidOrExpired):
		abortWithError(c, http.StatusBadRequest, kindInvalidOrExpired, err.Error())
	case errors.Is(err, service.ErrTooManyAttempts):
		abortWithError(c, http.StatusBadRequest, kindTooManyAttempts, err.Error())
	case errors.Is(err, service.ErrInvalidCode):
		abortWithError(c, http.StatusBadRequest, kindInvalidCode, err.Error())
	case errors.Is(err, service.ErrEmailDelivery):
		abortWithError(c, http.StatusBadGateway, kindEmailDelivery, service.ErrEmailDelivery.Error())
	case errors.Is(err, cryptobox.ErrDecrypt):
		logger.ErrorContext(c.Request.Context(), "request failed", slog.String("path", c.FullPath()), slog.Any("error", err))
		abortWithError(c, http.StatusInternalServerError, kindDecrypt, "stored API key could not be decrypted")
	case errors.Is(err, cryptobox.ErrConfig):
		logger.ErrorContext(c.Request.Context(), "request failed", slog.String("path", c.FullPath()), slog.Any("error", err))
		abortWithError(c, http.StatusInternalServerError, kindConfig, "server encryption is misconfigured")
	default:
		logger.ErrorContext(c.Request.Context(), "request failed", slog.String("path", c.FullPath()), slog.Any("error", err))
		abortWithError(c, http.StatusInternalServerError, kindInternal, "internal server error")
	}
}
