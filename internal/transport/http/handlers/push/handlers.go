package pushhandler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"worktime/internal/domain/auth"
	"worktime/internal/domain/push"
	"worktime/internal/transport/http/api"
	"worktime/internal/transport/http/middleware"
)

type Handler struct {
	Store          *push.Store
	Perms          middleware.PermissionStore
	VAPIDPublicKey string
}

func NewHandler(store *push.Store, perms middleware.PermissionStore, vapidPublicKey string) *Handler {
	return &Handler{Store: store, Perms: perms, VAPIDPublicKey: vapidPublicKey}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/push", func(r chi.Router) {
		r.Get("/vapid-public-key", h.handlePublicKey)
		r.With(middleware.RequirePermission(auth.PermPushSubscribe, h.Perms)).Post("/subscriptions", h.handleSubscribe)
		r.With(middleware.RequirePermission(auth.PermPushSubscribe, h.Perms)).Delete("/subscriptions", h.handleUnsubscribe)
	})
}

func (h *Handler) handlePublicKey(w http.ResponseWriter, r *http.Request) {
	api.Success(w, map[string]string{"publicKey": h.VAPIDPublicKey}, middleware.GetRequestID(r.Context()))
}

type subscribeRequest struct {
	Endpoint string `json:"endpoint"`
	Keys     struct {
		P256dh string `json:"p256dh"`
		Auth   string `json:"auth"`
	} `json:"keys"`
}

func (h *Handler) handleSubscribe(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	var payload subscribeRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	if strings.TrimSpace(payload.Endpoint) == "" || payload.Keys.P256dh == "" || payload.Keys.Auth == "" {
		api.Fail(w, http.StatusUnprocessableEntity, "validation_error", "endpoint and keys are required", middleware.GetRequestID(r.Context()))
		return
	}

	err := h.Store.Save(r.Context(), user.CompanyID, user.UserID, push.Subscription{
		Endpoint: payload.Endpoint,
		P256dh:   payload.Keys.P256dh,
		Auth:     payload.Keys.Auth,
	})
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "push_subscribe_failed", "failed to save subscription", middleware.GetRequestID(r.Context()))
		return
	}
	api.Created(w, map[string]string{"status": "subscribed"}, middleware.GetRequestID(r.Context()))
}

type unsubscribeRequest struct {
	Endpoint string `json:"endpoint"`
}

func (h *Handler) handleUnsubscribe(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	var payload unsubscribeRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	if err := h.Store.DeleteEndpoint(r.Context(), user.UserID, payload.Endpoint); err != nil {
		api.Fail(w, http.StatusInternalServerError, "push_unsubscribe_failed", "failed to remove subscription", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, map[string]string{"status": "unsubscribed"}, middleware.GetRequestID(r.Context()))
}
