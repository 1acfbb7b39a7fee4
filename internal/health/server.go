// Package health exposes the HTTP liveness endpoint used by the
// hosting platform's keepalive pinger.
package health

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"walletbot/core/logger"
)

// Server serves GET /ping on the configured port.
type Server struct {
	srv *http.Server
}

// New builds the liveness server.
func New(port int) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	engine.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "Hello"})
	})

	return &Server{
		srv: &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           engine,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

// Start serves in the background until the context is canceled, then
// drains with a short shutdown grace period.
func (s *Server) Start(ctx context.Context) {
	go func() {
		logger.HTTP.Info("liveness server listening",
			slog.String("addr", s.srv.Addr),
		)
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.HTTP.Error("liveness server failed",
				slog.Any("err", err),
			)
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.srv.Shutdown(shutdownCtx); err != nil {
			logger.HTTP.Warn("liveness server shutdown",
				slog.Any("err", err),
			)
		}
	}()
}
