package reportshandler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"crm/internal/domain/auth"
	"crm/internal/domain/reports"
	"crm/internal/transport/http/api"
	"crm/internal/transport/http/middleware"
	"crm/internal/transport/http/shared"
)

type Service interface {
	JobRuns(ctx context.Context, filter reports.JobRunFilter, limit, offset int) ([]reports.JobRun, int, error)
	JobRun(ctx context.Context, runID string) (reports.JobRun, error)
}

type Handler struct {
	Service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{Service: service}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/reports", func(r chi.Router) {
		r.Use(middleware.RequireCapability(auth.CapReportsRead))
		r.Get("/jobs", h.handleListJobRuns)
		r.Get("/jobs/{runID}", h.handleGetJobRun)
	})
}

func (h *Handler) handleListJobRuns(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	v := shared.NewValidator()
	filter := reports.JobRunFilter{
		JobType: strings.TrimSpace(query.Get("jobType")),
		Status:  strings.TrimSpace(query.Get("status")),
	}
	if filter.Status != "" {
		v.Enum("status", filter.Status, []string{"running", "completed", "failed"}, "must be running, completed or failed")
	}
	var from, to time.Time
	if raw := query.Get("startedFrom"); raw != "" {
		if parsed, ok := v.Date("startedFrom", raw); ok {
			from = parsed
			filter.StartedFrom = &from
		}
	}
	if raw := query.Get("startedTo"); raw != "" {
		if parsed, ok := v.Date("startedTo", raw); ok {
			to = parsed
			filter.StartedTo = &to
		}
	}
	v.DateOrder("startedFrom", from, "startedTo", to)
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	page := shared.ParsePagination(r, 50, 200)
	runs, total, err := h.Service.JobRuns(r.Context(), filter, page.Limit, page.Offset)
	if err != nil {
		shared.FailInternal(w, r, "job_runs_failed", "failed to list job runs", err)
		return
	}
	w.Header().Set("X-Total-Count", strconv.Itoa(total))
	api.Success(w, runs, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGetJobRun(w http.ResponseWriter, r *http.Request) {
	run, err := h.Service.JobRun(r.Context(), chi.URLParam(r, "runID"))
	if err != nil {
		if errors.Is(err, reports.ErrJobRunNotFound) {
			api.Fail(w, http.StatusNotFound, "not_found", "job run not found", middleware.GetRequestID(r.Context()))
			return
		}
		shared.FailInternal(w, r, "job_run_failed", "failed to load job run", err)
		return
	}
	api.Success(w, run, middleware.GetRequestID(r.Context()))
}
