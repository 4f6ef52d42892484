package gateway

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/vyrodovalexey/avagate/internal/config"
	"github.com/vyrodovalexey/avagate/internal/observability"
)

// State represents the server state.
type State int32

const (
	// StateStopped indicates the server is stopped.
	StateStopped State = iota
	// StateStarting indicates the server is starting.
	StateStarting
	// StateRunning indicates the server is running.
	StateRunning
	// StateStopping indicates the server is stopping.
	StateStopping
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	default:
		return "unknown"
	}
}

// Server hosts a handler on a TCP listener.
type Server struct {
	name    string
	addr    string
	handler http.Handler
	logger  observability.Logger
	timeout config.ServerConfig

	server    *http.Server
	listener  net.Listener
	state     atomic.Int32
	startTime time.Time
	done      chan struct{}
	mu        sync.RWMutex
}

// ServerOption is a functional option for configuring the server.
type ServerOption func(*Server)

// WithServerLogger sets the logger for the server.
func WithServerLogger(logger observability.Logger) ServerOption {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithServerTimeouts sets the HTTP server timeouts.
func WithServerTimeouts(cfg config.ServerConfig) ServerOption {
	return func(s *Server) {
		s.timeout = cfg
	}
}

// NewServer creates a server listening on addr once started.
func NewServer(name, addr string, handler http.Handler, opts ...ServerOption) *Server {
	s := &Server{
		name:    name,
		addr:    addr,
		handler: handler,
		logger:  observability.NopLogger(),
		timeout: config.DefaultConfig().Server,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.state.Store(int32(StateStopped))
	return s
}

// Name returns the server name.
func (s *Server) Name() string {
	return s.name
}

// Addr returns the bound address, or the configured one before Start.
func (s *Server) Addr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.addr
}

// Start binds the listener and serves in the background.
func (s *Server) Start(ctx context.Context) error {
	if !s.state.CompareAndSwap(int32(StateStopped), int32(StateStarting)) {
		return fmt.Errorf("server %s is not in stopped state", s.name)
	}

	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", s.addr)
	if err != nil {
		s.state.Store(int32(StateStopped))
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}

	s.mu.Lock()
	s.listener = ln
	s.server = &http.Server{
		Handler:           s.handler,
		ReadTimeout:       s.timeout.ReadTimeout.Duration(),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      s.timeout.WriteTimeout.Duration(),
		IdleTimeout:       s.timeout.IdleTimeout.Duration(),
		MaxHeaderBytes:    1 << 20,
	}
	s.done = make(chan struct{})
	s.startTime = time.Now()
	s.mu.Unlock()

	s.state.Store(int32(StateRunning))

	s.logger.Info("server started",
		observability.String("name", s.name),
		observability.String("address", ln.Addr().String()),
	)

	go s.serve(ln)

	return nil
}

func (s *Server) serve(ln net.Listener) {
	defer close(s.done)

	if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		s.logger.Error("server error",
			observability.String("name", s.name),
			observability.Error(err),
		)
	}
}

// Stop shuts the server down gracefully, waiting for in-flight
// requests until ctx expires.
func (s *Server) Stop(ctx context.Context) error {
	if !s.state.CompareAndSwap(int32(StateRunning), int32(StateStopping)) {
		return nil
	}
	defer s.state.Store(int32(StateStopped))

	s.logger.Info("stopping server", observability.String("name", s.name))

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout.ShutdownTimeout.Duration())
		defer cancel()
	}

	if err := s.server.Shutdown(ctx); err != nil {
		if closeErr := s.server.Close(); closeErr != nil {
			return fmt.Errorf("failed to close server %s: %w", s.name, closeErr)
		}
		return fmt.Errorf("failed to shutdown server %s gracefully: %w", s.name, err)
	}
	<-s.done

	s.logger.Info("server stopped",
		observability.String("name", s.name),
		observability.Duration("uptime", time.Since(s.startTime)),
	)
	return nil
}

// State returns the current server state.
func (s *Server) State() State {
	return State(s.state.Load())
}

// IsRunning returns true if the server is running.
func (s *Server) IsRunning() bool {
	return s.State() == StateRunning
}
