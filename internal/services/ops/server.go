package ops

import (
	"context"
	"net/http"
	"time"

	"colasignal/internal/platform/logger"
)

// Server wraps the ops handler in a stdlib http.Server
type Server struct {
	addr string
	srv  *http.Server
}

// NewServer builds a server listening on addr
func NewServer(addr string, handler http.Handler) *Server {
	return &Server{
		addr: addr,
		srv: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// Addr returns the listening address
func (s *Server) Addr() string { return s.addr }

// Run starts the server and blocks until shutdown
func (s *Server) Run(ctx context.Context) error {
	logger.Named("ops").Info().Str("addr", s.addr).Msg("ops listening")
	err := s.srv.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown stops the server gracefully
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
