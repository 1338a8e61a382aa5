package attendancehandler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"crm/internal/domain/attendance"
	"crm/internal/domain/audit"
	"crm/internal/domain/auth"
	"crm/internal/transport/http/api"
	"crm/internal/transport/http/middleware"
	"crm/internal/transport/http/shared"
)

const (
	actionCheckIn    = "checkin"
	actionCheckOut   = "checkout"
	actionBreakStart = "break-start"
	actionBreakEnd   = "break-end"
)

type Service interface {
	CheckIn(ctx context.Context, actor auth.Actor, input attendance.CheckInput) (*attendance.Record, error)
	CheckOut(ctx context.Context, actor auth.Actor, input attendance.CheckInput) (*attendance.Record, error)
	StartBreak(ctx context.Context, actor auth.Actor) (*attendance.Record, error)
	EndBreak(ctx context.Context, actor auth.Actor) (*attendance.Record, error)
	Override(ctx context.Context, actor auth.Actor, id string, input attendance.OverrideInput) (*attendance.Record, error)
	Today(ctx context.Context, actor auth.Actor) (*attendance.Record, error)
	List(ctx context.Context, actor auth.Actor, filter attendance.ListFilter) ([]*attendance.Record, error)
}

type Handler struct {
	Service Service
	Audit   shared.Auditor
}

func NewHandler(service Service, auditor shared.Auditor) *Handler {
	return &Handler{Service: service, Audit: auditor}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/attendance", func(r chi.Router) {
		r.Post("/", h.handleRecord)
		r.Post("/checkin", h.handleAction(actionCheckIn))
		r.Post("/checkout", h.handleAction(actionCheckOut))
		r.Get("/today", h.handleToday)
		r.Get("/", h.handleList)
		r.With(middleware.RequireCapability(auth.CapAttendanceManage)).Put("/{recordID}", h.handleOverride)
	})
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	requestID := middleware.GetRequestID(r.Context())
	switch {
	case errors.Is(err, attendance.ErrDuplicateCheckIn):
		api.Fail(w, http.StatusBadRequest, "already_checked_in", "already checked in today", requestID)
	case errors.Is(err, attendance.ErrNotCheckedIn):
		api.Fail(w, http.StatusBadRequest, "not_checked_in", "not checked in today", requestID)
	case errors.Is(err, attendance.ErrDuplicateCheckOut):
		api.Fail(w, http.StatusBadRequest, "already_checked_out", "already checked out today", requestID)
	case errors.Is(err, attendance.ErrBreakInProgress):
		api.Fail(w, http.StatusBadRequest, "break_in_progress", "a break is already in progress", requestID)
	case errors.Is(err, attendance.ErrNoOpenBreak):
		api.Fail(w, http.StatusBadRequest, "no_open_break", "no break in progress", requestID)
	case errors.Is(err, attendance.ErrInvalidOverride):
		api.Fail(w, http.StatusBadRequest, "invalid_override", err.Error(), requestID)
	case errors.Is(err, attendance.ErrNotAuthorized):
		api.Fail(w, http.StatusForbidden, "forbidden", "not allowed to modify attendance", requestID)
	case errors.Is(err, attendance.ErrNotFound):
		api.Fail(w, http.StatusNotFound, "attendance_not_found", "attendance record not found", requestID)
	default:
		shared.FailInternal(w, r, "attendance_failed", "attendance operation failed", err)
	}
}

type recordRequest struct {
	Type     string `json:"type"`
	Location string `json:"location"`
}

func (h *Handler) handleRecord(w http.ResponseWriter, r *http.Request) {
	var payload recordRequest
	if err := shared.DecodeJSON(r, &payload); err != nil {
		shared.FailPayload(w, r, err)
		return
	}
	action := strings.ToLower(strings.TrimSpace(payload.Type))
	v := shared.NewValidator()
	v.Required("type", action, "is required")
	v.Enum("type", action, []string{actionCheckIn, actionCheckOut, actionBreakStart, actionBreakEnd}, "must be checkin, checkout, break-start or break-end")
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}
	h.apply(w, r, action, payload.Location)
}

// handleAction serves the single-purpose aliases, which accept an optional
// body carrying only a location.
func (h *Handler) handleAction(action string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload recordRequest
		if err := shared.DecodeJSON(r, &payload); err != nil && !errors.Is(err, shared.ErrEmptyBody) {
			shared.FailPayload(w, r, err)
			return
		}
		h.apply(w, r, action, payload.Location)
	}
}

func (h *Handler) apply(w http.ResponseWriter, r *http.Request, action, location string) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	input := attendance.CheckInput{Location: strings.TrimSpace(location), IPAddress: shared.ClientIP(r)}
	var (
		rec *attendance.Record
		err error
	)
	switch action {
	case actionCheckIn:
		rec, err = h.Service.CheckIn(r.Context(), user, input)
	case actionCheckOut:
		rec, err = h.Service.CheckOut(r.Context(), user, input)
	case actionBreakStart:
		rec, err = h.Service.StartBreak(r.Context(), user)
	case actionBreakEnd:
		rec, err = h.Service.EndBreak(r.Context(), user)
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	api.Success(w, rec, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleToday(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	rec, err := h.Service.Today(r.Context(), user)
	if err != nil {
		writeError(w, r, err)
		return
	}
	api.Success(w, rec, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	query := r.URL.Query()
	filter := attendance.ListFilter{UserID: query.Get("userId")}
	v := shared.NewValidator()
	if raw := query.Get("from"); raw != "" {
		if from, ok := v.Date("from", raw); ok {
			filter.From = from
		}
	}
	if raw := query.Get("to"); raw != "" {
		if to, ok := v.Date("to", raw); ok {
			filter.To = to
		}
	}
	if !filter.From.IsZero() && !filter.To.IsZero() {
		v.DateOrder("from", filter.From, "to", filter.To)
	}
	if raw := query.Get("status"); raw != "" {
		status := attendance.Status(raw)
		if !attendance.ValidStatus(status) {
			v.Add("status", "unknown attendance status")
		}
		filter.Status = status
	}
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	page := shared.ParsePagination(r, 50, 200)
	filter.Limit, filter.Offset = page.Limit, page.Offset
	records, err := h.Service.List(r.Context(), user, filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if records == nil {
		records = []*attendance.Record{}
	}
	api.Success(w, records, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleOverride(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())

	var payload attendance.OverrideInput
	if err := shared.DecodeJSON(r, &payload); err != nil {
		shared.FailPayload(w, r, err)
		return
	}
	if payload.Status != nil && !attendance.ValidStatus(*payload.Status) {
		api.Fail(w, http.StatusBadRequest, "invalid_status", "unknown attendance status", middleware.GetRequestID(r.Context()))
		return
	}

	recordID := chi.URLParam(r, "recordID")
	rec, err := h.Service.Override(r.Context(), user, recordID, payload)
	if err != nil {
		writeError(w, r, err)
		return
	}

	shared.RecordAudit(r, h.Audit, user.UserID, audit.ActionAttendanceOverride, "attendance", rec.ID, nil, payload)
	api.Success(w, rec, middleware.GetRequestID(r.Context()))
}
