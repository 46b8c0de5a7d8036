// Package router provides HTTP routing configuration using Chi.
package router

import (
	_ "embed"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/remiblancher/ocspkit/internal/api/handler"
	"github.com/remiblancher/ocspkit/internal/api/metrics"
	"github.com/remiblancher/ocspkit/internal/api/middleware"
	"github.com/remiblancher/ocspkit/internal/api/service"
)

//go:embed openapi.yaml
var openapiSpec []byte

// Config holds router configuration.
type Config struct {
	Version      string
	Service      *service.OCSPService
	Metrics      *metrics.Metrics // nil disables /metrics
	Logger       *zap.Logger      // nil means zap.NewNop
	MaxBodyBytes int64
}

// New creates a new Chi router with all routes configured.
func New(cfg *Config) http.Handler {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(log))
	r.Use(middleware.Recoverer(log))
	r.Use(middleware.CORS)
	r.Use(middleware.MaxBody(cfg.MaxBodyBytes))

	var observer handler.Observer
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware)
		r.Method(http.MethodGet, "/metrics", cfg.Metrics.Handler())
		observer = cfg.Metrics
	}

	healthHandler := handler.NewHealthHandler(cfg.Version, map[string]handler.ReadinessChecker{
		"ocsp": cfg.Service,
	})
	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)

	r.Get("/api/openapi.yaml", serveOpenAPISpec)

	ocspHandler := handler.NewOCSPHandler(cfg.Service, observer)
	inspectHandler := handler.NewInspectHandler(cfg.Service)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/ocsp", func(r chi.Router) {
			r.Post("/request", ocspHandler.Request)
			r.Post("/inspect", inspectHandler.Inspect)
			r.Post("/verify", ocspHandler.Verify)
		})
	})

	return r
}

// serveOpenAPISpec serves the OpenAPI specification file.
func serveOpenAPISpec(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/yaml")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(openapiSpec)
}
