package leavehandler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"worktime/internal/domain/audit"
	"worktime/internal/domain/auth"
	"worktime/internal/domain/company"
	"worktime/internal/domain/leave"
	"worktime/internal/domain/notifications"
	"worktime/internal/transport/http/api"
	"worktime/internal/transport/http/middleware"
	"worktime/internal/transport/http/shared"
)

type Handler struct {
	Service   *leave.Service
	Employees *company.Store
	Perms     middleware.PermissionStore
	Notify    *notifications.Service
	Audit     *audit.Service
}

func NewHandler(service *leave.Service, employees *company.Store, perms middleware.PermissionStore, notify *notifications.Service, auditSvc *audit.Service) *Handler {
	return &Handler{Service: service, Employees: employees, Perms: perms, Notify: notify, Audit: auditSvc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/leave/requests", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermLeaveRead, h.Perms)).Get("/", h.handleList)
		r.With(middleware.RequirePermission(auth.PermLeaveWrite, h.Perms)).Post("/", h.handleSubmit)
		r.With(middleware.RequirePermission(auth.PermLeaveRead, h.Perms)).Get("/{requestID}", h.handleGet)
		r.With(middleware.RequirePermission(auth.PermLeaveApprove, h.Perms)).Post("/{requestID}/approve", h.handleApprove)
		r.With(middleware.RequirePermission(auth.PermLeaveApprove, h.Perms)).Post("/{requestID}/reject", h.handleReject)
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	employeeID := r.URL.Query().Get("employeeId")
	if user.RoleName == auth.RoleEmployee {
		// Employees only ever see their own requests.
		self, err := h.Employees.EmployeeByUserID(r.Context(), user.CompanyID, user.UserID)
		if err != nil {
			api.Fail(w, http.StatusForbidden, "forbidden", "no employee record", middleware.GetRequestID(r.Context()))
			return
		}
		employeeID = self.ID
	}

	requests, err := h.Service.List(r.Context(), user.CompanyID, employeeID)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "leave_list_failed", "failed to list leave requests", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, requests, middleware.GetRequestID(r.Context()))
}

type submitRequest struct {
	Reason          string  `json:"reason"`
	WorkHoursLogged float64 `json:"workHoursLogged"`
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	var payload submitRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	self, err := h.Employees.EmployeeByUserID(r.Context(), user.CompanyID, user.UserID)
	if err != nil {
		api.Fail(w, http.StatusForbidden, "forbidden", "no employee record", middleware.GetRequestID(r.Context()))
		return
	}
	name := strings.TrimSpace(self.FirstName + " " + self.LastName)

	request, err := h.Service.Submit(r.Context(), user, self.ID, name, payload.Reason, payload.WorkHoursLogged)
	if err != nil {
		if errors.Is(err, leave.ErrEmptyReason) {
			api.Fail(w, http.StatusUnprocessableEntity, "validation_error", "leave reason is required", middleware.GetRequestID(r.Context()))
			return
		}
		api.Fail(w, http.StatusInternalServerError, "leave_submit_failed", "failed to submit leave request", middleware.GetRequestID(r.Context()))
		return
	}

	if err := h.Audit.Record(r.Context(), user.CompanyID, user.UserID, "leave.request.submit", "leave_request", request.ID, middleware.GetRequestID(r.Context()), shared.ClientIP(r), map[string]any{
		"reason":          request.Reason,
		"workHoursLogged": request.WorkHoursLogged,
	}); err != nil {
		slog.Warn("audit leave.request.submit failed", "err", err)
	}
	if h.Notify != nil {
		if err := h.Notify.Broadcast(r.Context(), user.CompanyID, notifications.TypeLeaveSubmitted, "notification.leave_submitted", map[string]any{"Name": name, "Reason": request.Reason}); err != nil {
			slog.Warn("leave submitted broadcast failed", "err", err)
		}
	}

	api.Created(w, request, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	requestID := chi.URLParam(r, "requestID")
	request, err := h.Service.Get(r.Context(), user.CompanyID, requestID)
	if err != nil {
		api.Fail(w, http.StatusNotFound, "not_found", "leave request not found", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, request, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleApprove(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, true)
}

func (h *Handler) handleReject(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, false)
}

func (h *Handler) decide(w http.ResponseWriter, r *http.Request, approve bool) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	requestID := chi.URLParam(r, "requestID")
	var request leave.LeaveRequest
	var err error
	if approve {
		request, err = h.Service.Approve(r.Context(), user, requestID)
	} else {
		request, err = h.Service.Reject(r.Context(), user, requestID)
	}
	if err != nil {
		if errors.Is(err, leave.ErrNotFound) {
			api.Fail(w, http.StatusNotFound, "not_found", "leave request not found", middleware.GetRequestID(r.Context()))
			return
		}
		if errors.Is(err, leave.ErrInvalidState) {
			api.Fail(w, http.StatusConflict, "invalid_state", "leave request already decided", middleware.GetRequestID(r.Context()))
			return
		}
		api.Fail(w, http.StatusInternalServerError, "leave_decide_failed", "failed to decide leave request", middleware.GetRequestID(r.Context()))
		return
	}

	action := "leave.request.reject"
	notifType := notifications.TypeLeaveRejected
	messageKey := "notification.leave_rejected"
	if approve {
		action = "leave.request.approve"
		notifType = notifications.TypeLeaveApproved
		messageKey = "notification.leave_approved"
	}

	if err := h.Audit.Record(r.Context(), user.CompanyID, user.UserID, action, "leave_request", requestID, middleware.GetRequestID(r.Context()), shared.ClientIP(r), map[string]any{
		"employeeId": request.EmployeeID,
		"status":     request.Status,
	}); err != nil {
		slog.Warn("audit "+action+" failed", "err", err)
	}

	if h.Notify != nil {
		if employeeUserID, err := h.Employees.UserIDByEmployee(r.Context(), user.CompanyID, request.EmployeeID); err == nil && employeeUserID != "" {
			if err := h.Notify.Notify(r.Context(), user.CompanyID, employeeUserID, "", notifType, messageKey, map[string]any{"Name": request.EmployeeName}); err != nil {
				slog.Warn("leave decision notification failed", "err", err)
			}
		} else if err != nil {
			slog.Warn("leave decision user lookup failed", "err", err)
		}
	}

	api.Success(w, request, middleware.GetRequestID(r.Context()))
}
