package httpapi

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/shubhamshk/ProjectPad/internal/domain"
	"github.com/shubhamshk/ProjectPad/internal/service"
)

type AdminHandler struct {
	credits *service.CreditService
	logger  *slog.Logger
}

func NewAdminHandler(credits *service.CreditService, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{credits: credits, logger: logger}
}

type topUpRequest struct {
	Amount int64 `json:"amount" binding:"required"`
}

type setPlanRequest struct {
	Plan string `json:"plan" binding:"required"`
}

func (h *AdminHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/profiles/:id/credits", h.topUp)
	r.PUT("/profiles/:id/plan", h.setPlan)
}

func (h *AdminHandler) topUp(c *gin.Context) {
	var req topUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, kindValidation, "amount is required")
		return
	}
	left, err := h.credits.TopUp(c.Request.Context(), c.Param("id"), req.Amount)
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	h.logger.InfoContext(c.Request.Context(), "credits topped up",
		slog.String("user_id", c.Param("id")),
		slog.Int64("amount", req.Amount),
		slog.Int64("credits", left),
	)
	c.JSON(http.StatusOK, gin.H{"credits_remaining": left})
}

func (h *AdminHandler) setPlan(c *gin.Context) {
	var req setPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, kindValidation, "plan is required")
		return
	}
	bal, err := h.credits.SetPlan(c.Request.Context(), c.Param("id"), domain.Plan(req.Plan))
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, newBalanceResponse(bal))
}
