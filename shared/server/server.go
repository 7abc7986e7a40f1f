// Package server holds the boot sequence every service shares.
package server

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/fincoach/fincoach/shared/config"
	"github.com/fincoach/fincoach/shared/middleware"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

// Worker is a long running task started next to the HTTP server. It must
// return when ctx is cancelled.
type Worker func(ctx context.Context) error

// NewRouter returns a gin engine with request logging, panic recovery and
// the /health probe installed.
func NewRouter(service string) *gin.Engine {
	router := gin.New()
	router.Use(middleware.LoggingMiddleware(), middleware.Recovery())
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": service})
	})
	return router
}

// InitAuth installs the signing key from configuration, falling back to the
// JWT_SECRET environment variable.
func InitAuth(cfg *config.Config) {
	if cfg.JWTSecret != "" {
		middleware.SetJWTSecret(cfg.JWTSecret)
		return
	}
	middleware.MustInitJWTSecret()
}

// Run serves handler on cfg.Port together with the workers until SIGINT or
// SIGTERM, then shuts everything down. The first failure stops the rest.
func Run(cfg *config.Config, handler http.Handler, workers ...Worker) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("port", cfg.Port).Msgf("%s starting", cfg.Service)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		log.Info().Msg("shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	for _, w := range workers {
		w := w
		g.Go(func() error {
			if err := w(gctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}
	return g.Wait()
}
