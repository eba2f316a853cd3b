package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/saxenaaman628/redis-joke-list/config"
	"github.com/saxenaaman628/redis-joke-list/internal/api"
	"github.com/saxenaaman628/redis-joke-list/internal/controller"
	"github.com/saxenaaman628/redis-joke-list/internal/jokes"
	"github.com/saxenaaman628/redis-joke-list/internal/kv"
	"github.com/saxenaaman628/redis-joke-list/internal/logger"
	"github.com/saxenaaman628/redis-joke-list/internal/session"
	"github.com/saxenaaman628/redis-joke-list/internal/votestore"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringP("port", "p", "", "listen port (overrides PORT)")
	rootCmd.AddCommand(serveCmd)
}

// newSessionFactory builds the joke list of one session: its own vote store
// key on the shared backend, and the shared joke source.
func newSessionFactory(cfg config.Config, backend kv.KV, source jokes.Source, log *zap.Logger) session.Factory {
	retry := controller.RetryPolicy{
		MaxAttempts:    cfg.FetchMaxAttempts,
		InitialBackoff: cfg.FetchInitialBackoff,
		MaxBackoff:     cfg.FetchMaxBackoff,
	}
	return func(sessionID string) (*controller.JokeList, error) {
		sessionLog := log.With(zap.String("session", sessionID))
		return controller.New(controller.Options{
			Target: cfg.NumJokes,
			Store:  votestore.New(backend, votesKey(cfg, sessionID)),
			Fetcher: &jokes.Fetcher{
				Source:                   source,
				MaxConsecutiveDuplicates: cfg.MaxDuplicates,
				Log:                      sessionLog.Named("fetch"),
			},
			Retry: retry,
			Log:   sessionLog.Named("jokelist"),
		})
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, log, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	defer log.Sync()

	if port, _ := cmd.Flags().GetString("port"); port != "" {
		cfg.Port = port
	}
	if cfg.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	backend, err := openBackend(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer backend.Close()

	source := jokes.NewHTTPSource(cfg.JokeAPIURL, cfg.JokeAPITimeout, cfg.JokeAPIRPS)
	sessions := session.NewManager(newSessionFactory(cfg, backend, source, log), cfg.SessionTTL, log.Named("sessions"))
	defer sessions.Close()

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), logger.GinMiddleware(log.Named("http")))
	api.RegisterRoutes(r, api.NewHandler(sessions, []byte(cfg.JWTSecret), log.Named("api")))

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening",
			zap.String("addr", server.Addr),
			zap.String("backend", cfg.StoreBackend),
			zap.Int("num_jokes", cfg.NumJokes),
		)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown", zap.Error(err))
	}
	return nil
}
