package httpapi

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/shubhamshk/ProjectPad/internal/identity"
	"github.com/shubhamshk/ProjectPad/internal/service"
)

const identityKey = "identity"

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return ""
	}
	return strings.TrimSpace(token)
}

// requireIdentity resolves the bearer token and stores the caller's identity on the context.
func requireIdentity(auth identity.Authenticator, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		who, err := auth.Authenticate(c.Request.Context(), bearerToken(c))
		if err != nil {
			handleError(c, logger, err)
			return
		}
		c.Set(identityKey, who)
		c.Next()
	}
}

func currentIdentity(c *gin.Context) identity.Identity {
	who, _ := c.MustGet(identityKey).(identity.Identity)
	return who
}

func rateLimit(limiter *service.RateLimitService, action string, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		decision, err := limiter.Allow(c.Request.Context(), currentIdentity(c).ID, action)
		if err != nil {
			handleError(c, logger, err)
			return
		}
		if decision.Limit > 0 {
			c.Header("X-RateLimit-Limit", strconv.Itoa(decision.Limit))
			c.Header("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))
		}
		if !decision.Allowed {
			wait := time.Until(decision.ResetAt).Round(time.Second)
			if wait < time.Second {
				wait = time.Second
			}
			c.Header("Retry-After", strconv.Itoa(int(wait.Seconds())))
			handleError(c, logger, service.ErrTooManyRequests)
			return
		}
		c.Next()
	}
}

func requireAdmin(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		supplied := c.GetHeader("X-Admin-Token")
		if supplied == "" || subtle.ConstantTimeCompare([]byte(supplied), []byte(token)) != 1 {
			abortWithError(c, http.StatusUnauthorized, kindUnauthorized, "Unauthorized")
			return
		}
		c.Next()
	}
}
