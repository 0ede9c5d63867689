package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/rs/zerolog"

	"go_netfile/config"
	"go_netfile/fileio"
	"go_netfile/server/worker"
)

type Server struct {
	addr     string
	mptcp    bool
	workers  int
	handler  *Handler
	pool     *worker.Pool
	listener net.Listener
	conns    sync.Map
	logger   zerolog.Logger
}

// New validates cfg and prepares a server. Nothing is bound until Listen.
func New(cfg config.ServerConfig, mptcp bool, logger zerolog.Logger) (*Server, error) {
	root := filepath.Clean(cfg.Root)

	// Check path validity.
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("invalid root folder: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("invalid root folder: %s is not a directory", root)
	}

	return &Server{
		addr:    net.JoinHostPort(cfg.Listen, strconv.Itoa(cfg.Port)),
		mptcp:   mptcp,
		workers: cfg.Workers,
		handler: &Handler{
			root:      root,
			factory:   fileio.OSFactory{},
			chunkSize: cfg.ChunkSize,
			deadline:  cfg.Deadline,
			inboxSize: cfg.InboxSize,
			logger:    logger,
		},
		pool:   new(worker.Pool),
		logger: logger,
	}, nil
}

// Listen binds the listening socket
func (s *Server) Listen(ctx context.Context) error {
	lc := new(net.ListenConfig)
	// Set MPTCP.
	lc.SetMultipathTCP(s.mptcp)
	l, err := lc.Listen(ctx, "tcp", s.addr)
	if err != nil {
		return fmt.Errorf("could not bind listening socket on %s: %w", s.addr, err)
	}
	s.listener = l
	s.logger.Info().Str("addr", l.Addr().String()).Msg("listening")
	return nil
}

// Addr returns the bound address, nil before Listen
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Serve accepts connections until ctx is cancelled, then waits for running sessions
func (s *Server) Serve(ctx context.Context) error {
	if s.listener == nil {
		return errors.New("server: Serve called before Listen")
	}
	s.pool.Start(s.workers, s.workers, s.serve)
	defer s.pool.Stop()

	go func() {
		<-ctx.Done()
		s.listener.Close()
		// Unblock sessions waiting on their next control line.
		s.conns.Range(func(key, _ any) bool {
			key.(net.Conn).Close()
			return true
		})
	}()

	for {
		// Handle incoming connection.
		conn, err := s.listener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, net.ErrClosed) {
				return err
			}
			s.logger.Warn().Err(err).Msg("failed to establish incoming connection")
			continue
		}

		// Set TCP_NODELAY to always immediately send.
		if tcp, ok := conn.(*net.TCPConn); ok {
			tcp.SetNoDelay(true)
		}
		s.conns.Store(conn, struct{}{})
		if ctx.Err() != nil {
			conn.Close()
		}
		s.pool.Submit(conn)
	}
}

func (s *Server) serve(conn net.Conn) {
	defer s.conns.Delete(conn)
	s.handler.Serve(conn)
}
