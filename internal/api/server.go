package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/cutline/cutline/internal/playback"
)

// Server serves registered media sources to the playback surface.
type Server struct {
	httpServer *http.Server
	listener   net.Listener
	logger     *slog.Logger
}

type ServerConfig struct {
	Port      int // 0 picks a free port
	Registry  *playback.Registry
	Logger    *slog.Logger
	StartTime time.Time
	Version   string
}

// NewServer binds a loopback listener right away so that the address is
// known before Serve runs, and points the registry at it.
func NewServer(cfg ServerConfig) (*Server, error) {
	ln, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", cfg.Port))
	if err != nil {
		return nil, fmt.Errorf("listen: %w", err)
	}

	s := &Server{
		httpServer: &http.Server{
			Handler:      NewRouter(cfg),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 0,
			IdleTimeout:  60 * time.Second,
		},
		listener: ln,
		logger:   cfg.Logger,
	}
	cfg.Registry.SetBaseURL(s.BaseURL())
	return s, nil
}

// Serve blocks until Shutdown.
func (s *Server) Serve() error {
	s.logger.Info("starting media server", "addr", s.Addr())
	err := s.httpServer.Serve(s.listener)
	if err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down media server")
	return s.httpServer.Shutdown(ctx)
}

// Close stops the server immediately and releases the listener, also when
// Serve was never called.
func (s *Server) Close() error {
	err := s.httpServer.Close()
	if lerr := s.listener.Close(); lerr != nil && !errors.Is(lerr, net.ErrClosed) && err == nil {
		err = lerr
	}
	return err
}

func (s *Server) Addr() string {
	return s.listener.Addr().String()
}

func (s *Server) BaseURL() string {
	return "http://" + s.Addr()
}
