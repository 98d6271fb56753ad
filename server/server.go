// Package server exposes the latest cycle report and scanner metrics over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/michaelpento.lv/arbscan/reporter"
	"github.com/michaelpento.lv/arbscan/utils/monitor"
)

// SnapshotSource provides the most recent ranked report
type SnapshotSource interface {
	Latest() reporter.Snapshot
}

// HealthSource reports the node's sampled state
type HealthSource interface {
	Status() monitor.NodeStatus
}

// Server is a read-only status endpoint
type Server struct {
	router     *gin.Engine
	httpServer *http.Server
	logger     *zap.Logger
}

// New builds the router; gatherer may be nil to disable /metrics
func New(addr string, source SnapshotSource, gatherer prometheus.Gatherer, logger *zap.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(logger))

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
		})
	})
	router.GET("/top", func(c *gin.Context) {
		c.JSON(http.StatusOK, source.Latest())
	})
	if gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}

	return &Server{
		router: router,
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           router,
			ReadHeaderTimeout: 5 * time.Second,
		},
		logger: logger,
	}
}

// Handler returns the HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// Health adds /health, which answers 503 while the node is stalled
func (s *Server) Health(source HealthSource) {
	s.router.GET("/health", func(c *gin.Context) {
		status := source.Status()
		code := http.StatusOK
		if status.Stalled {
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, status)
	})
}

// Start serves in the background. Listen errors after startup are logged.
func (s *Server) Start() {
	go func() {
		s.logger.Info("Status server listening", zap.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("Status server stopped", zap.Error(err))
		}
	}()
}

// Shutdown stops the server gracefully
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shut down status server: %w", err)
	}
	return nil
}

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("HTTP request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)))
	}
}
