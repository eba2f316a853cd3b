package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/saxenaaman628/redis-joke-list/internal/utils"
)

type LoginRequest struct {
	Username string `json:"username" binding:"max=64"`
}

// LoginHandler starts a new session and returns its token. Each session has
// its own joke list and vote counts.
func (h *Handler) LoginHandler(c *gin.Context) {
	var req LoginRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
	}

	sessionID := uuid.New().String()
	token, err := utils.GenerateJWTToken(sessionID, req.Username, h.secret)
	if err != nil {
		h.log.Error("failed to sign token", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token, "session_id": sessionID})
}
