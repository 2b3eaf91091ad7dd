// Package server exposes the gateway over HTTP and normalizes every
// dispatched result to either 200 with the adapter's JSON or 404 empty.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/puzpuzpuz/xsync/v4"

	"github.com/brettbedarf/adaptergw"
	"github.com/brettbedarf/adaptergw/client"
	"github.com/brettbedarf/adaptergw/config"
	"github.com/brettbedarf/adaptergw/dispatch"
	"github.com/brettbedarf/adaptergw/internal/util"
	"github.com/brettbedarf/adaptergw/metrics"
	"github.com/brettbedarf/adaptergw/registry"
)

// Server owns the inbound router and the outbound client shared by all requests
type Server struct {
	cfg        *config.Config
	dispatcher adaptergw.Dispatcher
	metrics    *metrics.Metrics
	client     *client.Client // nil when the dispatcher was injected
	inflight   *xsync.Counter
	router     chi.Router
	httpSrv    *http.Server

	mu   sync.Mutex
	addr net.Addr
}

// New creates a Server given your config, wiring the registry resolver and
// adapter forwarder onto one pooled HTTP client.
func New(cfg *config.Config) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := client.New(client.Options{
		Timeout:             cfg.ClientTimeoutDuration(),
		MaxIdleConns:        cfg.MaxIdleConns,
		MaxIdleConnsPerHost: cfg.MaxIdleConnsPerHost,
		IdleConnTimeout:     cfg.IdleConnTimeoutDuration(),
	})

	var m *metrics.Metrics
	if cfg.MetricsEnabled {
		m = metrics.New()
	}

	reg := registry.New(cfg.Registry(), c)
	s := NewWithDispatcher(cfg, dispatch.New(reg, c, m), m)
	s.client = c
	return s, nil
}

// NewWithDispatcher creates a Server around an existing dispatcher. m may be nil.
func NewWithDispatcher(cfg *config.Config, d adaptergw.Dispatcher, m *metrics.Metrics) *Server {
	s := &Server{
		cfg:        cfg,
		dispatcher: d,
		metrics:    m,
		inflight:   xsync.NewCounter(),
	}
	s.router = s.routes()
	s.httpSrv = &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ErrorLog:          util.NewLogLogger("HTTPServer"),
	}
	return s
}

// Handler returns the root HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// InFlight returns the number of operation requests currently being handled
func (s *Server) InFlight() int64 {
	return s.inflight.Value()
}

// Addr returns the bound listen address, or nil before Serve has bound
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// Serve binds the configured port and serves until Shutdown is called
func (s *Server) Serve() error {
	logger := util.GetLogger("Server")
	logger.Info().
		Str("registry", s.cfg.Registry().Addr()).
		Int("port", s.cfg.ServicePort).
		Msg("Starting Adapter Gateway...")

	ln, err := net.Listen("tcp", s.cfg.ListenAddr())
	if err != nil {
		logger.Error().Err(err).Str("addr", s.cfg.ListenAddr()).Msg("Failed to bind")
		return err
	}
	return s.ServeListener(ln)
}

// ServeListener serves on an already bound listener until Shutdown is called
func (s *Server) ServeListener(ln net.Listener) error {
	s.mu.Lock()
	s.addr = ln.Addr()
	s.mu.Unlock()

	logger := util.GetLogger("Server")
	port := ""
	if tcp, ok := ln.Addr().(*net.TCPAddr); ok {
		port = strconv.Itoa(tcp.Port)
	}
	logger.Info().Str("port", port).Msg("Adapter Gateway started on port " + port)

	err := s.httpSrv.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// ServeAsync runs Serve in a goroutine; the channel yields its result once
func (s *Server) ServeAsync() <-chan error {
	done := make(chan error, 1)

	go func() {
		done <- s.Serve()
		close(done)
	}()

	return done
}

// Shutdown stops accepting requests and waits for in-flight ones until ctx expires
func (s *Server) Shutdown(ctx context.Context) error {
	logger := util.GetLogger("Server")
	logger.Info().Int64("inflight", s.inflight.Value()).Msg("Shutting down")

	err := s.httpSrv.Shutdown(ctx)
	if s.client != nil {
		s.client.Close()
	}
	return err
}
