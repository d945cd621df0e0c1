package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/developer-mesh/review-mcp/internal/observability"
)

// AdminServer serves health and metrics over HTTP next to the stdio protocol.
type AdminServer struct {
	srv      *http.Server
	listener net.Listener
	logger   observability.Logger
	done     chan struct{}
}

// NewRouter builds the admin routes. When token is set every route except
// /health/live requires it.
func NewRouter(health *HealthChecker, gatherer prometheus.Gatherer, token string) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/health/live", health.Liveness)

	protected := router.Group("/", TokenAuth(token))
	health.RegisterRoutes(protected)
	protected.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	return router
}

// NewAdminServer creates an admin server listening on addr once started.
func NewAdminServer(addr, token string, health *HealthChecker, gatherer prometheus.Gatherer, logger observability.Logger) *AdminServer {
	return &AdminServer{
		srv: &http.Server{
			Addr:              addr,
			Handler:           NewRouter(health, gatherer, token),
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		logger: logger,
		done:   make(chan struct{}),
	}
}

// Start binds the listener and serves in the background. Bind errors are
// returned directly.
func (s *AdminServer) Start() error {
	ln, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.srv.Addr, err)
	}
	s.listener = ln

	s.logger.Info("Admin server listening", map[string]interface{}{
		"addr": ln.Addr().String(),
	})

	go func() {
		defer close(s.done)
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("Admin server stopped", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}()
	return nil
}

// Addr returns the bound address, or the configured one before Start.
func (s *AdminServer) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.srv.Addr
}

// Shutdown stops accepting connections and waits for active requests.
func (s *AdminServer) Shutdown(ctx context.Context) error {
	if s.listener == nil {
		return nil
	}
	err := s.srv.Shutdown(ctx)
	select {
	case <-s.done:
	case <-ctx.Done():
	}
	return err
}
