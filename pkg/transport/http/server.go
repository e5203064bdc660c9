package http

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/cors"

	"github.com/rhuss/qaserve/pkg/observability"
	"github.com/rhuss/qaserve/pkg/transport"
)

// Server runs the API listener and the separate metrics listener and manages
// their lifecycle including startup and graceful shutdown.
type Server struct {
	httpServer    *http.Server
	metricsServer *http.Server // nil when metrics are disabled
	adapter       *Adapter
	config        ServerConfig
	logger        *slog.Logger
}

// ServerConfig holds configuration for the transport server.
type ServerConfig struct {
	Addr            string
	MaxBodySize     int64
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	Logger          *slog.Logger

	// MetricsAddr is the listen address of the metrics listener. Empty
	// disables it.
	MetricsAddr string
	MetricsPath string

	// CORSAllowedOrigins enables CORS on the API listener when non-empty.
	CORSAllowedOrigins []string

	// Backend names the QA backend in request logs.
	Backend string
}

// DefaultServerConfig returns a ServerConfig with sensible defaults.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Addr:            "0.0.0.0:8080",
		MaxBodySize:     10 << 20, // 10 MB
		ReadTimeout:     30 * time.Second,
		WriteTimeout:    180 * time.Second,
		ShutdownTimeout: 30 * time.Second,
		Logger:          slog.Default(),
		MetricsAddr:     "0.0.0.0:8000",
		MetricsPath:     "/metrics",
	}
}

type mount struct {
	pattern string
	handler http.Handler
}

type serverOptions struct {
	config   ServerConfig
	metrics  *observability.Metrics
	gatherer prometheus.Gatherer
	wrap     []func(http.Handler) http.Handler
	mounts   []mount
}

// ServerOption configures a Server.
type ServerOption func(*serverOptions)

// WithAddr sets the API listen address.
func WithAddr(addr string) ServerOption {
	return func(o *serverOptions) { o.config.Addr = addr }
}

// WithMaxBodySize sets the maximum request body size.
func WithMaxBodySize(n int64) ServerOption {
	return func(o *serverOptions) { o.config.MaxBodySize = n }
}

// WithTimeouts sets the read and write timeouts of the API listener.
func WithTimeouts(read, write time.Duration) ServerOption {
	return func(o *serverOptions) {
		o.config.ReadTimeout = read
		o.config.WriteTimeout = write
	}
}

// WithShutdownTimeout sets the graceful shutdown deadline.
func WithShutdownTimeout(d time.Duration) ServerOption {
	return func(o *serverOptions) { o.config.ShutdownTimeout = d }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) ServerOption {
	return func(o *serverOptions) { o.config.Logger = l }
}

// WithBackendName sets the backend name used in request logs.
func WithBackendName(name string) ServerOption {
	return func(o *serverOptions) { o.config.Backend = name }
}

// WithMetrics records into m and serves g on the metrics listener at
// addr and path. An empty addr disables the metrics listener.
func WithMetrics(m *observability.Metrics, g prometheus.Gatherer, addr, path string) ServerOption {
	return func(o *serverOptions) {
		o.metrics = m
		o.gatherer = g
		o.config.MetricsAddr = addr
		if path != "" {
			o.config.MetricsPath = path
		}
	}
}

// WithCORS enables CORS on the API listener for the given origins.
func WithCORS(origins []string) ServerOption {
	return func(o *serverOptions) { o.config.CORSAllowedOrigins = origins }
}

// WithMiddleware wraps the API handler, e.g. with auth.Middleware. The first
// middleware given is the outermost.
func WithMiddleware(mw func(http.Handler) http.Handler) ServerOption {
	return func(o *serverOptions) { o.wrap = append(o.wrap, mw) }
}

// WithMount registers an additional handler on the API listener.
func WithMount(pattern string, h http.Handler) ServerOption {
	return func(o *serverOptions) { o.mounts = append(o.mounts, mount{pattern, h}) }
}

// NewServer creates a new transport server with the given handler and options.
// Default middleware (recovery, request ID, logging) is applied automatically.
func NewServer(handler transport.QueryHandler, opts ...ServerOption) *Server {
	o := &serverOptions{config: DefaultServerConfig()}
	for _, opt := range opts {
		opt(o)
	}
	if o.config.Logger == nil {
		o.config.Logger = slog.Default()
	}
	if o.metrics == nil {
		reg := prometheus.NewRegistry()
		o.metrics = observability.NewMetrics(reg)
		o.gatherer = reg
	}

	s := &Server{
		config: o.config,
		logger: o.config.Logger,
	}

	defaultMW := []transport.Middleware{
		transport.Recovery(),
		transport.RequestID(),
		transport.Logging(s.logger, o.config.Backend),
	}

	s.adapter = NewAdapter(handler, o.metrics, Config{MaxBodySize: o.config.MaxBodySize}, defaultMW...)
	for _, m := range o.mounts {
		s.adapter.Mount(m.pattern, m.handler)
	}

	var h http.Handler = s.adapter.Handler()
	for i := len(o.wrap) - 1; i >= 0; i-- {
		h = o.wrap[i](h)
	}
	if len(o.config.CORSAllowedOrigins) > 0 {
		h = cors.New(cors.Options{
			AllowedOrigins: o.config.CORSAllowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete},
			AllowedHeaders: []string{"Authorization", "Content-Type", "X-Request-ID", "Mcp-Session-Id"},
			ExposedHeaders: []string{"X-Request-ID", "Mcp-Session-Id"},
		}).Handler(h)
	}

	s.httpServer = &http.Server{
		Addr:              o.config.Addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       o.config.ReadTimeout,
		WriteTimeout:      o.config.WriteTimeout,
	}

	if o.config.MetricsAddr != "" && o.gatherer != nil {
		s.metricsServer = observability.NewMetricsServer(o.config.MetricsAddr, o.config.MetricsPath, o.gatherer)
	}

	return s
}

// Handler returns the fully wrapped API handler.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// ListenAndServe starts both listeners and blocks until a shutdown signal
// (SIGINT or SIGTERM) is received. It then gracefully shuts down,
// waiting for in-flight requests to complete within the configured timeout.
func (s *Server) ListenAndServe() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return s.Run(ctx)
}

// Run starts both listeners and blocks until ctx is done or a listener
// fails, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	apiLn, err := net.Listen("tcp", s.config.Addr)
	if err != nil {
		return err
	}
	var metricsLn net.Listener
	if s.metricsServer != nil {
		metricsLn, err = net.Listen("tcp", s.config.MetricsAddr)
		if err != nil {
			apiLn.Close()
			return err
		}
	}
	return s.Serve(ctx, apiLn, metricsLn)
}

// Serve serves the API on apiLn and metrics on metricsLn (which may be nil)
// until ctx is done or a listener fails.
func (s *Server) Serve(ctx context.Context, apiLn, metricsLn net.Listener) error {
	errCh := make(chan error, 2)

	go func() {
		s.logger.Info("server starting", slog.String("addr", apiLn.Addr().String()))
		if err := s.httpServer.Serve(apiLn); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	if s.metricsServer != nil && metricsLn != nil {
		go func() {
			s.logger.Info("metrics server starting",
				slog.String("addr", metricsLn.Addr().String()),
				slog.String("path", s.config.MetricsPath),
			)
			if err := s.metricsServer.Serve(metricsLn); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
		}()
	}

	var runErr error
	select {
	case runErr = <-errCh:
		s.logger.Error("listener failed", slog.String("error", runErr.Error()))
	case <-ctx.Done():
		s.logger.Info("shutdown signal received")
	}

	if err := s.shutdown(); err != nil && runErr == nil {
		runErr = err
	}
	return runErr
}

func (s *Server) shutdown() error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()

	s.logger.Info("shutting down gracefully", slog.Duration("timeout", s.config.ShutdownTimeout))
	return s.Shutdown(shutdownCtx)
}

// Shutdown gracefully shuts down both listeners with the given context.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.httpServer.Shutdown(ctx)
	if s.metricsServer != nil {
		err = errors.Join(err, s.metricsServer.Shutdown(ctx))
	}
	if err != nil {
		s.logger.Error("shutdown error", slog.String("error", err.Error()))
		return err
	}
	s.logger.Info("server stopped")
	return nil
}
