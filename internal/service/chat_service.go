package service

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"splittab/internal/chat"
	"splittab/internal/middleware"
	"splittab/internal/storage"
)

// ChatService exposes the natural-language assistant.
type ChatService struct {
	store     storage.Store
	assistant *chat.Assistant
}

// NewChatService creates a new ChatService backed by the given assistant.
func NewChatService(store storage.Store, assistant *chat.Assistant) *ChatService {
	return &ChatService{
		store:     store,
		assistant: assistant,
	}
}

type chatRequest struct {
	Message string `json:"message" binding:"required"`
	GroupID string `json:"group_id"`
}

// Chat answers one assistant message for the signed-in user. group_id,
// when set, marks the group the client currently has open.
func (s *ChatService) Chat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := s.store.GetUserByID(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		internalError(c, "Chat", err)
		return
	}
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
		return
	}

	reply := s.assistant.Chat(c.Request.Context(), user, req.Message, req.GroupID)
	c.JSON(http.StatusOK, reply)
}
