package reportshandler

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"worktime/internal/domain/auth"
	"worktime/internal/domain/company"
	"worktime/internal/domain/reports"
	"worktime/internal/transport/http/api"
	"worktime/internal/transport/http/middleware"
	"worktime/internal/transport/http/shared"
)

type Handler struct {
	Service   *reports.Service
	Companies *company.Store
	Perms     middleware.PermissionStore
}

func NewHandler(service *reports.Service, companies *company.Store, perms middleware.PermissionStore) *Handler {
	return &Handler{Service: service, Companies: companies, Perms: perms}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/reports", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermReportsRead, h.Perms)).Get("/workmode", h.handleTimeline)
		r.With(middleware.RequirePermission(auth.PermReportsRead, h.Perms)).Get("/workmode/export.pdf", h.handleTimelinePDF)
	})
}

func (h *Handler) day(r *http.Request) (time.Time, bool) {
	raw := r.URL.Query().Get("day")
	if raw == "" {
		return time.Now(), true
	}
	parsed, err := shared.ParseDate(raw)
	if err != nil || parsed.IsZero() {
		return time.Time{}, false
	}
	return parsed, true
}

func (h *Handler) handleTimeline(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	day, ok := h.day(r)
	if !ok {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid day", middleware.GetRequestID(r.Context()))
		return
	}

	events, err := h.Service.Timeline(r.Context(), user.CompanyID, day)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "report_failed", "failed to load timeline", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, events, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleTimelinePDF(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	day, ok := h.day(r)
	if !ok {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid day", middleware.GetRequestID(r.Context()))
		return
	}

	companyName, err := h.Companies.Name(r.Context(), user.CompanyID)
	if err != nil {
		slog.Warn("report company name lookup failed", "err", err)
		companyName = user.CompanyID
	}

	data, err := h.Service.TimelinePDF(r.Context(), user.CompanyID, companyName, day)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "report_failed", "failed to render report", middleware.GetRequestID(r.Context()))
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", "attachment; filename=workmode-"+day.Format("2006-01-02")+".pdf")
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		slog.Warn("report pdf write failed", "err", err)
	}
}
