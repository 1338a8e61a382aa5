package notificationshandler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"crm/internal/domain/notifications"
	"crm/internal/transport/http/api"
	"crm/internal/transport/http/middleware"
	"crm/internal/transport/http/shared"
)

type Service interface {
	List(ctx context.Context, userID string, filter notifications.ListFilter) ([]*notifications.Notification, error)
	UnreadCount(ctx context.Context, userID string) (int, error)
	MarkRead(ctx context.Context, userID, id string) (*notifications.Notification, error)
	MarkAllRead(ctx context.Context, userID string) (int64, error)
}

type Handler struct {
	Service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{Service: service}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/notifications", func(r chi.Router) {
		r.Get("/", h.handleList)
		r.Get("/unread-count", h.handleUnreadCount)
		r.Post("/read-all", h.handleMarkAllRead)
		r.Post("/{notificationID}/read", h.handleMarkRead)
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	page := shared.ParsePagination(r, 100, 500)
	unread, err := h.Service.UnreadCount(r.Context(), user.UserID)
	if err != nil {
		slog.Warn("notification count failed", "err", err)
	}

	items, err := h.Service.List(r.Context(), user.UserID, notifications.ListFilter{
		UnreadOnly: r.URL.Query().Get("unread") == "true",
		Limit:      page.Limit,
		Offset:     page.Offset,
	})
	if err != nil {
		shared.FailInternal(w, r, "notification_list_failed", "failed to list notifications", err)
		return
	}
	if items == nil {
		items = []*notifications.Notification{}
	}

	w.Header().Set("X-Unread-Count", strconv.Itoa(unread))
	api.Success(w, items, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUnreadCount(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	count, err := h.Service.UnreadCount(r.Context(), user.UserID)
	if err != nil {
		shared.FailInternal(w, r, "notification_count_failed", "failed to count notifications", err)
		return
	}
	api.Success(w, map[string]int{"count": count}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	n, err := h.Service.MarkRead(r.Context(), user.UserID, chi.URLParam(r, "notificationID"))
	if err != nil {
		if errors.Is(err, notifications.ErrNotFound) {
			api.Fail(w, http.StatusNotFound, "notification_not_found", "notification not found", middleware.GetRequestID(r.Context()))
			return
		}
		shared.FailInternal(w, r, "notification_update_failed", "failed to update notification", err)
		return
	}
	api.Success(w, n, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleMarkAllRead(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	updated, err := h.Service.MarkAllRead(r.Context(), user.UserID)
	if err != nil {
		shared.FailInternal(w, r, "notification_update_failed", "failed to update notifications", err)
		return
	}
	api.Success(w, map[string]int64{"updated": updated}, middleware.GetRequestID(r.Context()))
}
