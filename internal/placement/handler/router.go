package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"equilibrium/pkg/platform/httputil"
	"equilibrium/pkg/platform/middleware/requestlog"
	"equilibrium/pkg/platform/middleware/requesttime"
)

const (
	requestTimeout = 30 * time.Second
	healthTimeout  = 2 * time.Second
)

// HealthCheck pings one dependency.
type HealthCheck func(ctx context.Context) error

// Routes mounts a group of endpoints.
type Routes interface {
	Register(r chi.Router)
}

// NewRouter assembles the HTTP surface: placement routes plus any extra
// route groups, health and Prometheus metrics from registry.
func NewRouter(h *Handler, logger *slog.Logger, registry *prometheus.Registry, checks map[string]HealthCheck, extra ...Routes) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestlog.Middleware(logger))
	r.Use(middleware.Recoverer)
	r.Use(requesttime.Middleware)

	r.Get("/healthz", healthHandler(checks))
	if registry != nil {
		r.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}))
	}

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(requestTimeout))
		h.Register(r)
		for _, routes := range extra {
			routes.Register(r)
		}
	})
	return r
}

func healthHandler(checks map[string]HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()

		failed := map[string]string{}
		for name, check := range checks {
			if err := check(ctx); err != nil {
				failed[name] = err.Error()
			}
		}
		if len(failed) > 0 {
			httputil.WriteJSON(w, http.StatusServiceUnavailable, map[string]any{"status": "degraded", "checks": failed})
			return
		}
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
