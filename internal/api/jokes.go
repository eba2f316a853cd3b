package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/saxenaaman628/redis-joke-list/internal/controller"
)

// VotePayload is the expected vote request
type VotePayload struct {
	Delta int `json:"delta" binding:"required"`
}

// list resolves the caller's joke list, writing an error response when it
// cannot.
func (h *Handler) list(c *gin.Context) (*controller.JokeList, bool) {
	sessionID := c.GetString("sessionID")
	if sessionID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return nil, false
	}
	l, err := h.sessions.Get(sessionID)
	if err != nil {
		h.fail(c, err)
		return nil, false
	}
	return l, true
}

func (h *Handler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, controller.ErrJokeNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Joke not found"})
	case errors.Is(err, controller.ErrClosed):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Session closed, try again"})
	default:
		_ = c.Error(err)
		h.log.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
	}
}

func (h *Handler) GetJokesHandler(c *gin.Context) {
	l, ok := h.list(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, l.View())
}

func (h *Handler) GenerateJokesHandler(c *gin.Context) {
	l, ok := h.list(c)
	if !ok {
		return
	}
	if err := l.GenerateNewJokes(); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, l.View())
}

func (h *Handler) RefreshJokesHandler(c *gin.Context) {
	l, ok := h.list(c)
	if !ok {
		return
	}
	if err := l.Refresh(); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, l.View())
}

func (h *Handler) VoteHandler(c *gin.Context) {
	var payload VotePayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid vote payload"})
		return
	}

	l, ok := h.list(c)
	if !ok {
		return
	}
	id := c.Param("id")
	votes, err := l.Vote(c.Request.Context(), id, payload.Delta)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "votes": votes})
}

func (h *Handler) ToggleLockHandler(c *gin.Context) {
	l, ok := h.list(c)
	if !ok {
		return
	}
	id := c.Param("id")
	locked, err := l.ToggleLock(id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "locked": locked})
}

func (h *Handler) ResetVotesHandler(c *gin.Context) {
	l, ok := h.list(c)
	if !ok {
		return
	}
	if err := l.ResetVotes(c.Request.Context()); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, l.View())
}
