package adminhandler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"worktime/internal/domain/auth"
	"worktime/internal/platform/metrics"
	"worktime/internal/transport/http/api"
	"worktime/internal/transport/http/middleware"
)

type Handler struct {
	Collector *metrics.Collector
	Perms     middleware.PermissionStore
}

func NewHandler(collector *metrics.Collector, perms middleware.PermissionStore) *Handler {
	return &Handler{Collector: collector, Perms: perms}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/admin", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermSystemAdmin, h.Perms)).Get("/metrics", h.handleMetrics)
	})
}

func (h *Handler) handleMetrics(w http.ResponseWriter, r *http.Request) {
	if h.Collector == nil {
		api.Fail(w, http.StatusNotFound, "metrics_disabled", "metrics collection is disabled", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, h.Collector.Snapshot(), middleware.GetRequestID(r.Context()))
}
