package httpapi

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/shubhamshk/ProjectPad/internal/identity"
	"github.com/shubhamshk/ProjectPad/internal/service"
)

type OTPHandler struct {
	otp    *service.OTPService
	logger *slog.Logger
}

func NewOTPHandler(otp *service.OTPService, logger *slog.Logger) *OTPHandler {
	return &OTPHandler{otp: otp, logger: logger}
}

type sendOTPRequest struct {
	Email string `json:"email"`
}

type verifyOTPRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

func (h *OTPHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/send", h.send)
	r.POST("/verify", h.verify)
}

func (h *OTPHandler) send(c *gin.Context) {
	var req sendOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, kindValidation, "invalid JSON payload")
		return
	}
	if err := h.otp.Send(c.Request.Context(), req.Email); err != nil {
		handleError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *OTPHandler) verify(c *gin.Context) {
	var req verifyOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, kindValidation, "invalid JSON payload")
		return
	}
	session, err := h.otp.Verify(c.Request.Context(), req.Email, req.OTP)
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "token": session.Token, "email": session.Email})
}

// LocalAuthHandler serves the magic-link redemption endpoint for the built-in identity provider.
type LocalAuthHandler struct {
	local  *identity.Local
	logger *slog.Logger
}

func NewLocalAuthHandler(local *identity.Local, logger *slog.Logger) *LocalAuthHandler {
	return &LocalAuthHandler{local: local, logger: logger}
}

type redeemRequest struct {
	Type  string `json:"type"`
	Email string `json:"email"`
	Token string `json:"token"`
}

type sessionResponse struct {
	AccessToken string   `json:"access_token"`
	TokenType   string   `json:"token_type"`
	ExpiresIn   int64    `json:"expires_in"`
	ExpiresAt   int64    `json:"expires_at"`
	User        userView `json:"user"`
}

type userView struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

func (h *LocalAuthHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/verify", h.redeem)
}

func (h *LocalAuthHandler) redeem(c *gin.Context) {
	var req redeemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, kindValidation, "invalid JSON payload")
		return
	}
	if req.Type != "magiclink" {
		abortWithError(c, http.StatusBadRequest, kindValidation, "only type magiclink is supported")
		return
	}
	session, err := h.local.Redeem(c.Request.Context(), req.Token, req.Email)
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, sessionResponse{
		AccessToken: session.AccessToken,
		TokenType:   "bearer",
		ExpiresIn:   int64(time.Until(session.ExpiresAt).Seconds()),
		ExpiresAt:   session.ExpiresAt.Unix(),
		User:        userView{ID: session.User.ID, Email: session.User.Email},
	})
}
