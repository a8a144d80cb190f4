package httpapi

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/shubhamshk/ProjectPad/internal/service"
)

type ChatHandler struct {
	chat   *service.ChatService
	logger *slog.Logger
}

func NewChatHandler(chat *service.ChatService, logger *slog.Logger) *ChatHandler {
	return &ChatHandler{chat: chat, logger: logger}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Messages  []chatMessage `json:"messages"`
	ModelID   string        `json:"modelId"`
	ProjectID string        `json:"projectId"`
	APIKey    string        `json:"apiKey"`
}

type chatResponse struct {
	OK               bool   `json:"ok"`
	Result           string `json:"result"`
	CreditsRemaining int64  `json:"creditsRemaining"`
}

func (h *ChatHandler) RegisterRoutes(r gin.IRoutes) {
	r.POST("", h.chatTurn)
}

func (h *ChatHandler) chatTurn(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, kindValidation, "invalid JSON payload")
		return
	}

	turn := service.ChatTurn{
		ModelID:   req.ModelID,
		ProjectID: req.ProjectID,
		APIKey:    req.APIKey,
		Messages:  make([]service.ChatMessage, 0, len(req.Messages)),
	}
	for _, m := range req.Messages {
		turn.Messages = append(turn.Messages, service.ChatMessage{Role: m.Role, Content: m.Content})
	}

	res, err := h.chat.Chat(c.Request.Context(), currentIdentity(c).ID, turn)
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, chatResponse{OK: true, Result: res.Text, CreditsRemaining: res.CreditsRemaining})
}
