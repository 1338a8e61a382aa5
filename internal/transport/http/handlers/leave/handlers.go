package leavehandler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"crm/internal/domain/audit"
	"crm/internal/domain/auth"
	"crm/internal/domain/leave"
	"crm/internal/transport/http/api"
	"crm/internal/transport/http/middleware"
	"crm/internal/transport/http/shared"
)

type Service interface {
	Apply(ctx context.Context, actor auth.Actor, input leave.ApplyInput) (*leave.Leave, error)
	Review(ctx context.Context, actor auth.Actor, id string, status leave.Status, comments string) (*leave.Leave, error)
	Cancel(ctx context.Context, actor auth.Actor, id string) (*leave.Leave, error)
	List(ctx context.Context, actor auth.Actor, filter leave.ListFilter) ([]*leave.Leave, error)
}

type Handler struct {
	Service Service
	Audit   shared.Auditor
}

func NewHandler(service Service, auditor shared.Auditor) *Handler {
	return &Handler{Service: service, Audit: auditor}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/leaves", func(r chi.Router) {
		r.Post("/", h.handleApply)
		r.Get("/", h.handleList)
		r.With(middleware.RequireCapability(auth.CapLeaveReview)).Put("/{leaveID}/review", h.handleReview)
		r.Post("/{leaveID}/cancel", h.handleCancel)
	})
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	requestID := middleware.GetRequestID(r.Context())
	switch {
	case errors.Is(err, leave.ErrInvalidLeave):
		api.Fail(w, http.StatusBadRequest, "invalid_leave", err.Error(), requestID)
	case errors.Is(err, leave.ErrLeaveOverlap):
		api.Fail(w, http.StatusBadRequest, "leave_overlap", "leave overlaps an existing request", requestID)
	case errors.Is(err, leave.ErrAlreadyReviewed):
		api.Fail(w, http.StatusBadRequest, "already_reviewed", "leave request is no longer pending", requestID)
	case errors.Is(err, leave.ErrNotAuthorized):
		api.Fail(w, http.StatusForbidden, "forbidden", "not allowed to modify this leave", requestID)
	case errors.Is(err, leave.ErrNotFound):
		api.Fail(w, http.StatusNotFound, "leave_not_found", "leave request not found", requestID)
	default:
		shared.FailInternal(w, r, "leave_failed", "leave operation failed", err)
	}
}

type applyRequest struct {
	Type      string `json:"type"`
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
	Reason    string `json:"reason"`
}

func (h *Handler) handleApply(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	var payload applyRequest
	if err := shared.DecodeJSON(r, &payload); err != nil {
		shared.FailPayload(w, r, err)
		return
	}

	v := shared.NewValidator()
	v.Required("type", payload.Type, "is required")
	v.Required("startDate", payload.StartDate, "is required")
	v.Required("endDate", payload.EndDate, "is required")
	v.Required("reason", payload.Reason, "is required")
	leaveType := leave.Type(strings.ToLower(strings.TrimSpace(payload.Type)))
	if leaveType != "" && !leave.ValidType(leaveType) {
		v.Add("type", "unknown leave type")
	}
	var input leave.ApplyInput
	if payload.StartDate != "" && payload.EndDate != "" {
		start, okStart := v.Date("startDate", payload.StartDate)
		end, okEnd := v.Date("endDate", payload.EndDate)
		if okStart && okEnd {
			v.DateOrder("startDate", start, "endDate", end)
			input.StartDate, input.EndDate = start, end
		}
	}
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}
	input.Type = leaveType
	input.Reason = payload.Reason

	created, err := h.Service.Apply(r.Context(), user, input)
	if err != nil {
		writeError(w, r, err)
		return
	}
	api.Created(w, created, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	page := shared.ParsePagination(r, 50, 200)
	items, err := h.Service.List(r.Context(), user, leave.ListFilter{
		UserID: r.URL.Query().Get("userId"),
		Status: leave.Status(r.URL.Query().Get("status")),
		Limit:  page.Limit,
		Offset: page.Offset,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	if items == nil {
		items = []*leave.Leave{}
	}
	api.Success(w, items, middleware.GetRequestID(r.Context()))
}

type reviewRequest struct {
	Status         string `json:"status"`
	ReviewComments string `json:"reviewComments"`
}

func (h *Handler) handleReview(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())

	var payload reviewRequest
	if err := shared.DecodeJSON(r, &payload); err != nil {
		shared.FailPayload(w, r, err)
		return
	}
	status := strings.ToLower(strings.TrimSpace(payload.Status))
	v := shared.NewValidator()
	v.Required("status", status, "is required")
	v.Enum("status", status, []string{string(leave.StatusApproved), string(leave.StatusDenied)}, "must be approved or denied")
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	reviewed, err := h.Service.Review(r.Context(), user, chi.URLParam(r, "leaveID"), leave.Status(status), payload.ReviewComments)
	if err != nil {
		writeError(w, r, err)
		return
	}

	shared.RecordAudit(r, h.Audit, user.UserID, audit.ActionLeaveReview, "leave", reviewed.ID,
		map[string]any{"status": leave.StatusPending},
		map[string]any{"status": reviewed.Status, "reviewComments": reviewed.ReviewComments})
	api.Success(w, reviewed, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCancel(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	cancelled, err := h.Service.Cancel(r.Context(), user, chi.URLParam(r, "leaveID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	api.Success(w, cancelled, middleware.GetRequestID(r.Context()))
}
