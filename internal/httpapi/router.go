package httpapi

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/shubhamshk/ProjectPad/internal/identity"
	"github.com/shubhamshk/ProjectPad/internal/service"
)

// Services is everything the router dispatches to. Local and AdminToken are optional: the
// redemption endpoint is only mounted for the built-in identity provider and the admin routes
// only when a token is configured.
type Services struct {
	Auth       identity.Authenticator
	Local      *identity.Local
	Chat       *service.ChatService
	Credits    *service.CreditService
	Secrets    *service.SecretService
	OTP        *service.OTPService
	RateLimit  *service.RateLimitService
	AdminToken string
	Logger     *slog.Logger
}

func NewRouter(s Services) http.Handler {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	if s.Local != nil {
		NewLocalAuthHandler(s.Local, s.Logger).RegisterRoutes(r.Group("/auth/v1"))
	}

	api := r.Group("/api/v1")
	{
		NewOTPHandler(s.OTP, s.Logger).RegisterRoutes(api.Group("/auth/otp"))

		authed := api.Group("", requireIdentity(s.Auth, s.Logger))
		NewChatHandler(s.Chat, s.Logger).RegisterRoutes(authed.Group("/chat", rateLimit(s.RateLimit, service.ActionChat, s.Logger)))
		NewCreditHandler(s.Credits, s.Logger).RegisterRoutes(authed)
		NewAPIKeyHandler(s.Secrets, s.Logger).RegisterRoutes(authed.Group("/api-keys"))

		if s.AdminToken != "" {
			NewAdminHandler(s.Credits, s.Logger).RegisterRoutes(api.Group("/admin", requireAdmin(s.AdminToken)))
		}
	}

	return r
}
