package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/permitagent/permitagent/config"
	"github.com/permitagent/permitagent/errors"
	"github.com/permitagent/permitagent/server/completion"
	"github.com/permitagent/permitagent/server/handlers"
	"github.com/permitagent/permitagent/server/metrics"
	"github.com/permitagent/permitagent/server/middleware"
	"go.uber.org/zap"
)

// Router handles HTTP routing
type Router struct {
	router  chi.Router
	metrics *metrics.Metrics
}

// NewRouter creates the router with the full middleware stack. The request ID
// runs first so every later layer, including panic recovery, can report it.
func NewRouter(cfg *config.Config, invoker *completion.Invoker, logger *zap.Logger) *Router {
	m := metrics.NewMetrics()
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logging(logger))
	r.Use(middleware.PrometheusMetrics(m))
	r.Use(errors.ErrorHandler(logger))
	r.Use(middleware.CORS(cfg.CORS))

	r.NotFound(handlers.NotFound)
	r.MethodNotAllowed(handlers.MethodNotAllowed)

	r.Get("/", handlers.Root(logger))
	r.Get("/health", handlers.Health(logger))
	r.Method(http.MethodPost, "/ask", handlers.NewAskHandler(invoker, m, cfg.LLM.Backend, logger))

	if cfg.Metrics.Enabled {
		r.Method(http.MethodGet, cfg.Metrics.Path, m.Handler())
	}

	return &Router{router: r, metrics: m}
}

// Metrics returns the collectors fed by this router.
func (r *Router) Metrics() *metrics.Metrics {
	return r.metrics
}

// ServeHTTP implements http.Handler
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.router.ServeHTTP(w, req)
}
