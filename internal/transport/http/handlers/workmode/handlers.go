package workmodehandler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"worktime/internal/domain/audit"
	"worktime/internal/domain/auth"
	"worktime/internal/domain/notifications"
	"worktime/internal/domain/push"
	"worktime/internal/domain/workmode"
	"worktime/internal/platform/metrics"
	"worktime/internal/transport/http/api"
	"worktime/internal/transport/http/middleware"
	"worktime/internal/transport/http/shared"
)

type Handler struct {
	Service   *workmode.Service
	Broker    *workmode.Broker
	Perms     middleware.PermissionStore
	Notify    *notifications.Service
	Audit     *audit.Service
	Push      *push.WorkerPool
	Heartbeat time.Duration

	// Metrics is optional; nil disables stream and mode-change counters.
	Metrics *metrics.Collector
}

func NewHandler(service *workmode.Service, broker *workmode.Broker, perms middleware.PermissionStore, notify *notifications.Service, auditSvc *audit.Service, pushPool *push.WorkerPool, heartbeat time.Duration) *Handler {
	if heartbeat <= 0 {
		heartbeat = 25 * time.Second
	}
	return &Handler{
		Service:   service,
		Broker:    broker,
		Perms:     perms,
		Notify:    notify,
		Audit:     auditSvc,
		Push:      pushPool,
		Heartbeat: heartbeat,
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/work-config", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermWorkModeRead, h.Perms)).Get("/", h.handleGetConfig)
		r.With(middleware.RequirePermission(auth.PermWorkModeControl, h.Perms)).Put("/", h.handleUpdateConfig)
	})
	r.Route("/work-mode", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermWorkModeControl, h.Perms)).Post("/start", h.handleStartWork)
		r.With(middleware.RequirePermission(auth.PermWorkModeControl, h.Perms)).Post("/break", h.handleStartBreak)
		r.With(middleware.RequirePermission(auth.PermWorkModeControl, h.Perms)).Post("/resume", h.handleResumeWork)
		r.With(middleware.RequirePermission(auth.PermWorkModeControl, h.Perms)).Post("/end", h.handleEndWork)
		r.With(middleware.RequirePermission(auth.PermWorkModeRead, h.Perms)).Get("/stream", h.handleStream)
	})
}

func (h *Handler) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	cfg, err := h.Service.LoadConfig(r.Context(), user.CompanyID)
	if err != nil {
		if errors.Is(err, workmode.ErrConfigUnavailable) {
			api.Fail(w, http.StatusServiceUnavailable, "config_unavailable", "work config unavailable", middleware.GetRequestID(r.Context()))
			return
		}
		api.Fail(w, http.StatusInternalServerError, "config_failed", "failed to load work config", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, cfg, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdateConfig(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	var patch workmode.SchedulePatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	cfg, err := h.Service.UpdateConfig(r.Context(), user, patch)
	if err != nil {
		h.failMutation(w, r, "config_update_failed", "failed to update work config", err)
		return
	}

	if err := h.Audit.Record(r.Context(), user.CompanyID, user.UserID, "workmode.config.update", "company_work_config", user.CompanyID, middleware.GetRequestID(r.Context()), shared.ClientIP(r), patch); err != nil {
		slog.Warn("audit workmode.config.update failed", "err", err)
	}
	api.Success(w, cfg, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleStartWork(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	cfg, err := h.Service.StartWorkDay(r.Context(), user)
	if err != nil {
		h.failMutation(w, r, "work_start_failed", "failed to start work day", err)
		return
	}
	h.afterModeChange(r, user, cfg, "workmode.start", notifications.TypeWorkStarted, "notification.work_started", nil)
	api.Success(w, cfg, middleware.GetRequestID(r.Context()))
}

type breakRequest struct {
	Reason string `json:"reason"`
}

func (h *Handler) handleStartBreak(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	var payload breakRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	cfg, err := h.Service.StartGlobalBreak(r.Context(), user, payload.Reason)
	if err != nil {
		h.failMutation(w, r, "break_start_failed", "failed to start break", err)
		return
	}
	h.afterModeChange(r, user, cfg, "workmode.break.start", notifications.TypeBreakStarted, "notification.break_started", map[string]any{"Reason": cfg.ActiveBreakReason})
	api.Success(w, cfg, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleResumeWork(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	cfg, err := h.Service.EndGlobalBreak(r.Context(), user)
	if err != nil {
		h.failMutation(w, r, "break_end_failed", "failed to end break", err)
		return
	}
	h.afterModeChange(r, user, cfg, "workmode.break.end", notifications.TypeBreakEnded, "notification.break_ended", nil)
	api.Success(w, cfg, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleEndWork(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	cfg, err := h.Service.EndAllWork(r.Context(), user)
	if err != nil {
		h.failMutation(w, r, "work_end_failed", "failed to end work day", err)
		return
	}
	h.afterModeChange(r, user, cfg, "workmode.end", notifications.TypeWorkEnded, "notification.work_ended", nil)
	api.Success(w, cfg, middleware.GetRequestID(r.Context()))
}

// handleStream pushes mode changes to the client over SSE. Each connection
// gets its own coordinator so duplicate or stale notifications are folded
// away before anything reaches the wire.
func (h *Handler) handleStream(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		api.Fail(w, http.StatusInternalServerError, "stream_unsupported", "streaming unsupported", middleware.GetRequestID(r.Context()))
		return
	}

	coordinator := workmode.NewCoordinator(user.CompanyID, h.Service, h.Broker)
	if err := coordinator.Bootstrap(r.Context()); err != nil {
		api.Fail(w, http.StatusServiceUnavailable, "config_unavailable", "work config unavailable", middleware.GetRequestID(r.Context()))
		return
	}

	if h.Metrics != nil {
		h.Metrics.StreamOpened()
		defer h.Metrics.StreamClosed()
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	writeEvent(w, "state", coordinator.State())
	flusher.Flush()

	go coordinator.Run(r.Context())

	heartbeat := time.NewTicker(h.Heartbeat)
	defer heartbeat.Stop()
	for {
		select {
		case <-r.Context().Done():
			return
		case <-heartbeat.C:
			if _, err := w.Write([]byte(": ping\n\n")); err != nil {
				return
			}
			flusher.Flush()
		case state := <-coordinator.Changes():
			writeEvent(w, "state", state)
			flusher.Flush()
		}
	}
}

func writeEvent(w http.ResponseWriter, event string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		slog.Warn("sse payload marshal failed", "err", err)
		return
	}
	if _, err := w.Write([]byte("event: " + event + "\ndata: " + string(data) + "\n\n")); err != nil {
		slog.Warn("sse write failed", "err", err)
	}
}

func (h *Handler) failMutation(w http.ResponseWriter, r *http.Request, code, message string, err error) {
	requestID := middleware.GetRequestID(r.Context())
	switch {
	case errors.Is(err, workmode.ErrPermissionDenied):
		api.Fail(w, http.StatusForbidden, "forbidden", "work mode control requires elevated permissions", requestID)
	case errors.Is(err, workmode.ErrEmptyReason):
		api.Fail(w, http.StatusUnprocessableEntity, "validation_error", "break reason is required", requestID)
	case errors.Is(err, workmode.ErrInvalidClock):
		api.Fail(w, http.StatusUnprocessableEntity, "validation_error", "schedule times must be HH:MM", requestID)
	case errors.Is(err, workmode.ErrInvalidTransition):
		api.Fail(w, http.StatusConflict, "invalid_transition", "mode change is not allowed from the current mode", requestID)
	case errors.Is(err, workmode.ErrUnknownMode):
		api.Fail(w, http.StatusBadRequest, "unknown_mode", "unknown work mode", requestID)
	case errors.Is(err, workmode.ErrConfigUnavailable):
		api.Fail(w, http.StatusServiceUnavailable, "config_unavailable", "work config unavailable", requestID)
	default:
		api.Fail(w, http.StatusInternalServerError, code, message, requestID)
	}
}

// afterModeChange fans a successful global mode change out to the audit log,
// in-app notifications and web push. All best-effort: the mode change itself
// already committed.
func (h *Handler) afterModeChange(r *http.Request, user auth.UserContext, cfg workmode.CompanyWorkConfig, action, notifType, messageKey string, data map[string]any) {
	ctx := r.Context()
	if h.Metrics != nil {
		h.Metrics.ModeChanged()
	}
	if err := h.Audit.Record(ctx, user.CompanyID, user.UserID, action, "company_work_config", user.CompanyID, middleware.GetRequestID(ctx), shared.ClientIP(r), map[string]any{
		"mode":    cfg.CurrentMode,
		"reason":  cfg.ActiveBreakReason,
		"version": cfg.Version,
	}); err != nil {
		slog.Warn("audit "+action+" failed", "err", err)
	}

	if h.Notify != nil {
		if err := h.Notify.Broadcast(ctx, user.CompanyID, notifType, messageKey, data); err != nil {
			slog.Warn("mode change broadcast failed", "action", action, "err", err)
		}
	}

	if h.Push != nil {
		payload, err := json.Marshal(map[string]any{
			"type":    notifType,
			"mode":    cfg.CurrentMode,
			"reason":  cfg.ActiveBreakReason,
			"version": cfg.Version,
		})
		if err != nil {
			slog.Warn("push payload marshal failed", "err", err)
			return
		}
		h.Push.Dispatch(user.CompanyID, payload)
	}
}
