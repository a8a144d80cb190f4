package httpapi

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/shubhamshk/ProjectPad/internal/domain"
	"github.com/shubhamshk/ProjectPad/internal/service"
)

type CreditHandler struct {
	credits *service.CreditService
	logger  *slog.Logger
}

func NewCreditHandler(credits *service.CreditService, logger *slog.Logger) *CreditHandler {
	return &CreditHandler{credits: credits, logger: logger}
}

type balanceResponse struct {
	CreditsRemaining int64       `json:"credits_remaining"`
	SubscriptionTier domain.Plan `json:"subscription_tier"`
	Unlimited        bool        `json:"unlimited"`
}

func newBalanceResponse(b domain.Balance) balanceResponse {
	return balanceResponse{CreditsRemaining: b.Credits, SubscriptionTier: b.Plan, Unlimited: b.Unlimited}
}

func (h *CreditHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/credits", h.getBalance)
	r.POST("/projects/usage", h.recordProject)
	r.POST("/imports/usage", h.recordImport)
}

func (h *CreditHandler) getBalance(c *gin.Context) {
	bal, err := h.credits.Balance(c.Request.Context(), currentIdentity(c).ID)
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, newBalanceResponse(bal))
}

func (h *CreditHandler) recordProject(c *gin.Context) {
	n, err := h.credits.RecordProjectCreation(c.Request.Context(), currentIdentity(c).ID)
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"monthly_project_creations": n})
}

func (h *CreditHandler) recordImport(c *gin.Context) {
	n, err := h.credits.RecordImport(c.Request.Context(), currentIdentity(c).ID)
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"import_count": n})
}
