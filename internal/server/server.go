// Package server exposes the catalog as a JSON HTTP API.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/dyluth/ucm/internal/catalog"
	"github.com/dyluth/ucm/internal/logger"
	"github.com/gin-gonic/gin"
)

// Server serves the use case API on a single port.
type Server struct {
	catalog *catalog.Catalog
	log     *logger.Logger
	port    int

	engine   *gin.Engine
	server   *http.Server
	listener net.Listener
}

// New creates a server for cat listening on port. Port 0 picks a free port.
func New(cat *catalog.Catalog, log *logger.Logger, port int) *Server {
	if log == nil {
		log = logger.Nop()
	}
	s := &Server{
		catalog: cat,
		log:     log.With("component", "server"),
		port:    port,
	}
	s.engine = s.newRouter()
	return s
}

// Handler returns the HTTP handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Start binds the port and serves in the background. Bind errors are
// returned; errors after that are logged.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", s.port))
	if err != nil {
		return fmt.Errorf("failed to listen on port %d: %w", s.port, err)
	}
	s.listener = ln

	s.server = &http.Server{
		Handler:           s.engine,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
	}

	go func() {
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("HTTP server error", "error", err)
		}
	}()

	s.log.Info("Serving use case API", "addr", ln.Addr().String(), "backend", s.catalog.Backend())
	return nil
}

// Addr returns the bound address once Start has succeeded.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}
