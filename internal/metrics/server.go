package metrics

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// shutdownTimeout is the maximum time to wait for the HTTP server to shut down.
const shutdownTimeout = 5 * time.Second

// Server exposes /metrics and /health.
type Server struct {
	httpServer *http.Server
	listener   net.Listener
	mu         sync.RWMutex
	ready      chan struct{}
	started    atomic.Bool
	logger     *slog.Logger
}

// NewServer creates a metrics server for addr (":9090", "127.0.0.1:0").
func NewServer(addr string, m *Metrics, logger *slog.Logger) *Server {
	if m == nil {
		panic("metrics.NewServer: metrics must not be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler(logger))
	mux.HandleFunc("/health", healthHandler)

	return &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadTimeout:       15 * time.Second,
			ReadHeaderTimeout: 10 * time.Second,
			WriteTimeout:      15 * time.Second,
		},
		ready:  make(chan struct{}),
		logger: logger,
	}
}

// Ready returns a channel that is closed once the server is listening.
func (s *Server) Ready() <-chan struct{} {
	return s.ready
}

// Addr returns the listener address once the server has started.
// Returns empty string if the server hasn't started yet.
func (s *Server) Addr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return ""
}

// Start listens and serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	if !s.started.CompareAndSwap(false, true) {
		return fmt.Errorf("metrics server already started")
	}

	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", s.httpServer.Addr)
	if err != nil {
		s.started.Store(false)
		return fmt.Errorf("metrics server listen: %w", err)
	}
	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()
	close(s.ready)

	s.logger.Info("metrics server started", slog.String("addr", ln.Addr().String()))

	serveDone := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
		case <-serveDone:
			return
		}
		s.logger.Info("metrics server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		//nolint:contextcheck // parent ctx is canceled; we need a fresh context for graceful shutdown
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("metrics server shutdown error", slog.String("error", err.Error()))
		}
	}()

	err = s.httpServer.Serve(ln)
	close(serveDone)
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("metrics server: %w", err)
	}
	return nil
}

func healthHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "ok")
}
