package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"

	"go.uber.org/zap"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/remiblancher/ocspkit/internal/api/metrics"
	"github.com/remiblancher/ocspkit/internal/api/router"
	"github.com/remiblancher/ocspkit/internal/api/service"
	"github.com/remiblancher/ocspkit/internal/audit"
)

// Server represents the HTTP verification API server.
type Server struct {
	cfg     *Config
	version string
	log     *zap.Logger
	srv     *http.Server
}

// New creates a new Server. log may be nil.
func New(cfg *Config, version string, svc *service.OCSPService, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}

	var handler http.Handler = router.New(&router.Config{
		Version:      version,
		Service:      svc,
		Metrics:      metrics.New(),
		Logger:       log,
		MaxBodyBytes: cfg.MaxBodyBytes,
	})
	if cfg.H2C && !cfg.TLSEnabled() {
		handler = h2c.NewHandler(handler, &http2.Server{IdleTimeout: cfg.IdleTimeout})
	}

	return &Server{
		cfg:     cfg,
		version: version,
		log:     log,
		srv: &http.Server{
			Addr:         cfg.Address(),
			Handler:      handler,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
			IdleTimeout:  cfg.IdleTimeout,
			ErrorLog:     zap.NewStdLog(log),
		},
	}
}

// Handler returns the server's root handler.
func (s *Server) Handler() http.Handler {
	return s.srv.Handler
}

// Start listens on the configured address and serves until ctx is done.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Address())
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.cfg.Address(), err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is done, then shuts down
// gracefully within the configured shutdown timeout.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	addr := ln.Addr().String()
	if err := audit.LogOCSPServe(addr); err != nil {
		_ = ln.Close()
		return err
	}
	s.log.Info("server started",
		zap.String("addr", addr),
		zap.String("version", s.version),
		zap.Bool("tls", s.cfg.TLSEnabled()),
		zap.Bool("h2c", s.cfg.H2C && !s.cfg.TLSEnabled()),
	)

	errChan := make(chan error, 1)
	go func() {
		if s.cfg.TLSEnabled() {
			errChan <- s.srv.ServeTLS(ln, s.cfg.TLSCert, s.cfg.TLSKey)
		} else {
			errChan <- s.srv.Serve(ln)
		}
	}()

	select {
	case err := <-errChan:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
		s.log.Info("shutting down", zap.String("addr", addr))
		return s.shutdown()
	}
}

// shutdown gracefully stops the server.
func (s *Server) shutdown() error {
	ctx := context.Background()
	if s.cfg.ShutdownTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.ShutdownTimeout)
		defer cancel()
	}
	if err := s.srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown error: %w", err)
	}
	s.log.Info("server stopped gracefully")
	return nil
}

// PrintStartupInfo prints server startup information.
func (s *Server) PrintStartupInfo(w io.Writer) {
	scheme := "http"
	if s.cfg.TLSEnabled() {
		scheme = "https"
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "OCSP Verification API")
	fmt.Fprintln(w, "=====================")
	fmt.Fprintf(w, "  Version:  %s\n", s.version)
	fmt.Fprintf(w, "  Address:  %s://%s\n", scheme, s.cfg.Address())
	if s.cfg.TLSEnabled() {
		fmt.Fprintln(w, "  TLS:      enabled")
	} else if s.cfg.H2C {
		fmt.Fprintln(w, "  H2C:      enabled")
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Endpoints:")
	fmt.Fprintln(w, "  GET  /health              - Health check")
	fmt.Fprintln(w, "  GET  /ready               - Readiness check")
	fmt.Fprintln(w, "  GET  /metrics             - Prometheus metrics")
	fmt.Fprintln(w, "  GET  /api/openapi.yaml    - OpenAPI specification")
	fmt.Fprintln(w, "  POST /api/v1/ocsp/request - Build an OCSP request")
	fmt.Fprintln(w, "  POST /api/v1/ocsp/inspect - Decode an OCSP response")
	fmt.Fprintln(w, "  POST /api/v1/ocsp/verify  - Verify an OCSP response")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Use Ctrl+C to stop")
	fmt.Fprintln(w)
}
