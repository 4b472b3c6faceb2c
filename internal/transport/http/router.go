// Package httptransport assembles the chi router: shared middleware,
// operational endpoints, and the routes each module registers.
package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"countrycatalog/internal/platform/metrics"
	"countrycatalog/pkg/platform/httputil"
	"countrycatalog/pkg/platform/middleware/requestlog"
	"countrycatalog/pkg/platform/middleware/requesttime"
)

// requestTimeout bounds a request; a refresh waits on two upstream fetches.
const requestTimeout = 2 * time.Minute

// Registrar mounts a module's routes.
type Registrar interface {
	Register(r chi.Router)
}

// Pinger reports whether a backing dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Options configures the router.
type Options struct {
	Logger             *slog.Logger
	Metrics            *metrics.Metrics
	Gatherer           prometheus.Gatherer
	CORSAllowedOrigins []string
	Health             Pinger
}

// NewRouter wires middleware, /health, /metrics and every registrar.
func NewRouter(opts Options, registrars ...Registrar) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	origins := opts.CORSAllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requesttime.Middleware)
	r.Use(requestlog.Middleware(logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", middleware.RequestIDHeader},
		ExposedHeaders: []string{middleware.RequestIDHeader},
		MaxAge:         300,
	}))
	r.Use(opts.Metrics.Middleware)
	r.Use(middleware.Timeout(requestTimeout))

	r.Get("/health", healthHandler(opts.Health))
	if opts.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{}))
	}

	for _, reg := range registrars {
		reg.Register(r)
	}

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteJSON(w, http.StatusNotFound, map[string]string{"error": "Not found"})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "Method not allowed"})
	})

	return r
}

func healthHandler(p Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if p != nil {
			if err := p.Ping(r.Context()); err != nil {
				httputil.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
				return
			}
		}
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
