package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/saxenaaman628/redis-joke-list/internal/controller"
	"github.com/saxenaaman628/redis-joke-list/internal/middleware"
)

// Sessions hands out the joke list of a session.
type Sessions interface {
	Get(sessionID string) (*controller.JokeList, error)
}

type Handler struct {
	sessions Sessions
	secret   []byte
	log      *zap.Logger
}

func NewHandler(sessions Sessions, secret []byte, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{sessions: sessions, secret: secret, log: log}
}

func RegisterRoutes(r *gin.Engine, h *Handler) {
	r.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.POST("/login", h.LoginHandler)

	auth := r.Group("/api")
	auth.Use(middleware.JWTAuthMiddleware(h.secret))
	{
		auth.GET("/jokes", h.GetJokesHandler)
		auth.POST("/jokes/generate", h.GenerateJokesHandler)
		auth.POST("/jokes/refresh", h.RefreshJokesHandler)
		auth.POST("/jokes/:id/vote", h.VoteHandler)
		auth.POST("/jokes/:id/lock", h.ToggleLockHandler)
		auth.POST("/votes/reset", h.ResetVotesHandler)
	}
}
