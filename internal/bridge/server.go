package bridge

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Config holds the REST bridge listen address
type Config struct {
	Host string
	Port int
}

// Server serves the REST bridge and its /events stream.
type Server struct {
	config *Config
	hub    *Hub
	http   *http.Server
	logger *zap.Logger
}

// NewServer wires the REST router and the event hub for ctrl.
func NewServer(config *Config, ctrl Controller, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	hub := NewHub(logger.Named("events"))
	addr := net.JoinHostPort(config.Host, fmt.Sprint(config.Port))

	return &Server{
		config: config,
		hub:    hub,
		logger: logger,
		http: &http.Server{
			Addr:              addr,
			Handler:           NewRouter(ctrl, hub, logger),
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// Hub returns the event hub so it can be registered as a sink.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.http.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.http.Addr, err)
	}

	s.logger.Info("REST bridge listening", zap.String("addr", listener.Addr().String()))

	errChan := make(chan error, 1)
	go func() {
		errChan <- s.http.Serve(listener)
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("Shutdown signal received, stopping REST bridge...")
		return s.Shutdown(context.Background())
	case err := <-errChan:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// Shutdown stops accepting requests and disconnects event clients.
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	s.hub.Close()
	if err := s.http.Shutdown(ctx); err != nil {
		return fmt.Errorf("REST bridge shutdown: %w", err)
	}
	return nil
}
