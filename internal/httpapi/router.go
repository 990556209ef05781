// Package httpapi is the HTTP front end of the command service.
package httpapi

import (
	"net/http"

	"adaptive-cache-service/internal/core/ports"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// NewRouter mounts the command, eviction admin, health and metrics routes.
func NewRouter(svc ports.CommandService, logger *zap.Logger) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}

	r := chi.NewRouter()
	r.Use(RequestIDMiddleware())
	r.Use(AccessLog(logger))
	r.Use(RecoverMiddleware(logger))

	r.Get("/health", healthHandler)
	r.Handle("/metrics", promhttp.Handler())

	h := &commandHandler{svc: svc, logger: logger}
	h.mount(r)
	return r
}
