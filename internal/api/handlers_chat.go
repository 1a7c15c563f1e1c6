package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"omnicore-dashboard/internal/chat"
)

// ChatMessageRequest carries one user message to the assistant.
type ChatMessageRequest struct {
	Message string `json:"message" binding:"required"`
}

// handleOpenChat starts a new assistant session and returns its greeting.
func (s *Server) handleOpenChat(c *gin.Context) {
	userID, ok := s.getUserIDRequired(c)
	if !ok {
		return
	}

	session, greeting := s.chatManager.Open(userID)
	c.JSON(http.StatusCreated, gin.H{
		"session_id": session.ID,
		"greeting":   greeting,
	})
}

// handleChatMessage forwards a message to the assistant. Upstream failures
// return a canned reply rather than an error body so the conversation keeps
// rendering.
func (s *Server) handleChatMessage(c *gin.Context) {
	userID, ok := s.getUserIDRequired(c)
	if !ok {
		return
	}

	var req ChatMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "INVALID_REQUEST",
			"message": "message is required",
		})
		return
	}

	reply, err := s.chatManager.Send(c.Request.Context(), userID, c.Param("id"), req.Message)
	if err != nil {
		if errors.Is(err, chat.ErrSessionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error":   "SESSION_NOT_FOUND",
				"message": "chat session not found or expired",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"reply":    chat.FallbackReply,
			"degraded": true,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"reply": reply})
}

// handleCloseChat ends an assistant session.
func (s *Server) handleCloseChat(c *gin.Context) {
	userID, ok := s.getUserIDRequired(c)
	if !ok {
		return
	}

	s.chatManager.Close(userID, c.Param("id"))
	c.JSON(http.StatusOK, gin.H{"closed": true})
}
