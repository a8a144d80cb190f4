package httpapi

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/shubhamshk/ProjectPad/internal/service"
)

// APIKeyHandler manages the caller's stored provider keys. Plaintext keys never leave the server.
type APIKeyHandler struct {
	secrets *service.SecretService
	logger  *slog.Logger
}

func NewAPIKeyHandler(secrets *service.SecretService, logger *slog.Logger) *APIKeyHandler {
	return &APIKeyHandler{secrets: secrets, logger: logger}
}

type apiKeyView struct {
	Provider  string    `json:"provider"`
	Valid     bool      `json:"valid"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type putAPIKeyRequest struct {
	Provider string `json:"provider" binding:"required"`
	APIKey   string `json:"apiKey" binding:"required"`
}

type deleteAPIKeyRequest struct {
	Provider string `json:"provider" binding:"required"`
}

func (h *APIKeyHandler) RegisterRoutes(r gin.IRoutes) {
	r.GET("", h.listKeys)
	r.POST("", h.putKey)
	r.DELETE("", h.deleteKey)
}

func (h *APIKeyHandler) listKeys(c *gin.Context) {
	keys, err := h.secrets.List(c.Request.Context(), currentIdentity(c).ID)
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	views := make([]apiKeyView, 0, len(keys))
	for _, k := range keys {
		views = append(views, apiKeyView{Provider: k.ProviderName, Valid: k.Valid, CreatedAt: k.CreatedAt, UpdatedAt: k.UpdatedAt})
	}
	c.JSON(http.StatusOK, gin.H{"keys": views})
}

func (h *APIKeyHandler) putKey(c *gin.Context) {
	var req putAPIKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, kindValidation, "provider and apiKey are required")
		return
	}
	rec, err := h.secrets.Put(c.Request.Context(), currentIdentity(c).ID, req.Provider, req.APIKey)
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, apiKeyView{Provider: rec.ProviderName, Valid: rec.Valid, CreatedAt: rec.CreatedAt, UpdatedAt: rec.UpdatedAt})
}

func (h *APIKeyHandler) deleteKey(c *gin.Context) {
	var req deleteAPIKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		// DELETE bodies are often stripped by proxies
		req.Provider = c.Query("provider")
	}
	if req.Provider == "" {
		abortWithError(c, http.StatusBadRequest, kindValidation, "provider is required")
		return
	}
	if err := h.secrets.Delete(c.Request.Context(), currentIdentity(c).ID, req.Provider); err != nil {
		handleError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
