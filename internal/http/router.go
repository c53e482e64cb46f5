// Package httpapi assembles the process router: health and metrics endpoints
// plus every feature handler.
package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/primedepthlabs/Loan-Admin-sub000/pkg/platform/httputil"
)

// Registrar mounts a feature's routes.
type Registrar interface {
	Register(r chi.Router)
}

// HealthCheck reports whether a dependency is usable.
type HealthCheck func(ctx context.Context) error

// Options configures NewRouter. A nil Gatherer disables /metrics.
type Options struct {
	Logger   *slog.Logger
	Gatherer prometheus.Gatherer
	Checks   map[string]HealthCheck
}

// NewRouter wires the operational endpoints and each registrar's routes.
func NewRouter(opts Options, registrars ...Registrar) http.Handler {
	r := chi.NewRouter()
	r.Get("/health", healthHandler(opts.Logger, opts.Checks))
	if opts.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{}))
	}
	for _, registrar := range registrars {
		registrar.Register(r)
	}
	return r
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

func healthHandler(logger *slog.Logger, checks map[string]HealthCheck) http.HandlerFunc {
	names := make([]string, 0, len(checks))
	for name := range checks {
		names = append(names, name)
	}
	sort.Strings(names)

	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		resp := healthResponse{Status: "ok", Checks: make(map[string]string, len(names))}
		status := http.StatusOK
		for _, name := range names {
			if err := checks[name](ctx); err != nil {
				if logger != nil {
					logger.WarnContext(ctx, "health check failed", "check", name, "error", err)
				}
				resp.Checks[name] = "unavailable"
				resp.Status = "degraded"
				status = http.StatusServiceUnavailable
				continue
			}
			resp.Checks[name] = "ok"
		}
		httputil.WriteJSON(w, status, resp)
	}
}
