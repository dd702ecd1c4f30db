// Package api is the HTTP front-end: the SSE discovery stream, its
// non-streaming sibling, the discoveries listing, and health.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/quranlabs/tadabbur/pkg/orchestrator"
	"github.com/quranlabs/tadabbur/pkg/services"
	"github.com/quranlabs/tadabbur/pkg/version"
)

// Server hosts the HTTP surface over one process-wide orchestrator.
type Server struct {
	orch           *orchestrator.Orchestrator
	store          services.DiscoveryStore
	sessionTimeout time.Duration
	httpServer     *http.Server
}

// NewServer creates the server. sessionTimeout is the hard per-session
// wall clock bound applied to every orchestration.
func NewServer(orch *orchestrator.Orchestrator, store services.DiscoveryStore, sessionTimeout time.Duration) *Server {
	if store == nil {
		store = services.NullStore{}
	}
	return &Server{
		orch:           orch,
		store:          store,
		sessionTimeout: sessionTimeout,
	}
}

// Router builds the gin engine with all routes registered.
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/health", s.Health)

	discovery := router.Group("/api/discovery")
	{
		discovery.POST("/stream", s.StreamDiscovery)
		discovery.POST("/explore", s.Explore)
		discovery.GET("/discoveries", s.ListDiscoveries)
	}
	return router
}

// Start begins serving on the given port. Blocks until the listener fails
// or Shutdown is called.
func (s *Server) Start(port int) error {
	s.httpServer = &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: s.Router(),
	}
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

// Health reports liveness and the build stamp.
func (s *Server) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"version": version.Version,
	})
}
