// Package httptransport wires the HTTP surface: visitor routes, liveness,
// and Prometheus metrics.
package httptransport

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"visitors/internal/platform/middleware"
	visitorhandler "visitors/internal/visitor/handler"
)

// NewRouter assembles the chi router with the standard middleware stack.
func NewRouter(visitors *visitorhandler.Handler, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logger(logger))

	visitors.Register(r)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	return r
}
