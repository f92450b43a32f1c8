// Package server wires the session registry, board store, and broadcast
// hub behind the line protocol, served over TCP and WebSocket.
package server

import (
	"context"
	"errors"
	"net"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/aadah/Multiuser-Whiteboard/internal/board"
	"github.com/aadah/Multiuser-Whiteboard/internal/config"
	"github.com/aadah/Multiuser-Whiteboard/internal/hub"
	"github.com/aadah/Multiuser-Whiteboard/internal/ratelimit"
	"github.com/aadah/Multiuser-Whiteboard/internal/session"
)

// writeTimeout bounds a single delivery to a client connection.
const writeTimeout = 10 * time.Second

// Server is the whiteboard coordination server.
type Server struct {
	cfg      config.Config
	logger   zerolog.Logger
	registry *session.Registry
	store    *board.Store
	hub      *hub.Hub
	limiter  *ratelimit.IPLimiter

	mu       sync.Mutex
	listener net.Listener
	conns    map[net.Conn]struct{}
	closed   bool
	wg       sync.WaitGroup
}

// New creates a Server from cfg. The default board exists immediately.
func New(cfg config.Config, logger zerolog.Logger) *Server {
	h := hub.New(cfg.OutboxBuffer, logger.With().Str("component", "hub").Logger())
	return &Server{
		cfg:      cfg,
		logger:   logger,
		registry: session.NewRegistry(logger.With().Str("component", "session").Logger()),
		store: board.NewStore(h, logger.With().Str("component", "board").Logger(),
			cfg.DefaultBoard.Name, cfg.DefaultBoard.Width, cfg.DefaultBoard.Height),
		hub:     h,
		limiter: ratelimit.NewIPLimiter(rate.Limit(cfg.RateLimit.PerSecond), cfg.RateLimit.Burst, logger.With().Str("component", "ratelimit").Logger()),
	}
}

// ServeTCP accepts whiteboard clients on ln until Shutdown closes it.
func (s *Server) ServeTCP(ln net.Listener) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		ln.Close()
		return nil
	}
	s.listener = ln
	s.mu.Unlock()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			return err
		}
		if !s.track(conn) {
			conn.Close()
			return nil
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer s.untrack(conn)
			s.handleConn(conn)
		}()
	}
}

func (s *Server) track(conn net.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	if s.conns == nil {
		s.conns = make(map[net.Conn]struct{})
	}
	s.conns[conn] = struct{}{}
	return true
}

func (s *Server) untrack(conn net.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.conns, conn)
}

// Shutdown stops accepting, closes every client connection, and waits for
// the per-connection handlers to finish or ctx to expire.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	ln := s.listener
	conns := make([]net.Conn, 0, len(s.conns))
	for c := range s.conns {
		conns = append(conns, c)
	}
	s.mu.Unlock()

	if ln != nil {
		ln.Close()
	}
	for _, c := range conns {
		c.Close()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	var err error
	select {
	case <-done:
	case <-ctx.Done():
		err = ctx.Err()
	}

	s.hub.Shutdown()
	s.limiter.Stop()
	s.logger.Info().Int64("kicked", s.hub.Kicked()).Msg("server stopped")
	return err
}
