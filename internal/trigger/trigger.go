// Package trigger exposes the small HTTP surface of the daemon: a health
// probe and a secret-guarded endpoint that kicks off a collection cycle
// outside the regular schedule.
package trigger

import (
	"context"
	"crypto/subtle"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/boardwatch/boardwatch/internal/collector"
)

// Kicker starts a collection cycle without blocking. Implementations
// return collector.ErrCollectionRunning when a cycle is already in flight.
type Kicker interface {
	Kick() error
}

// Server is the trigger HTTP server.
type Server struct {
	addr   string
	secret string
	kicker Kicker
	logger *slog.Logger

	http *http.Server
}

// New creates a trigger server listening on addr.
func New(addr, secret string, kicker Kicker, logger *slog.Logger) *Server {
	s := &Server{
		addr:   addr,
		secret: secret,
		kicker: kicker,
		logger: logger,
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/health", s.handleHealth)
	router.GET("/collect", s.handleCollect)

	s.http = &http.Server{Addr: addr, Handler: router}
	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

// ListenAndServe blocks until the server stops.
func (s *Server) ListenAndServe() error {
	s.logger.Info("trigger server listening", "addr", s.addr)
	err := s.http.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return s.http.Shutdown(ctx)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleCollect(c *gin.Context) {
	secret := c.Query("secret")
	if subtle.ConstantTimeCompare([]byte(secret), []byte(s.secret)) != 1 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	switch err := s.kicker.Kick(); {
	case err == nil:
		s.logger.Info("collection cycle triggered via http")
		c.JSON(http.StatusOK, gin.H{"status": "triggered"})
	case errors.Is(err, collector.ErrCollectionRunning):
		c.JSON(http.StatusConflict, gin.H{"error": "collection already running"})
	default:
		s.logger.Error("triggering collection", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
