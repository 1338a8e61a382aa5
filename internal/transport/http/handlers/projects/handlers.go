package projectshandler

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"crm/internal/domain/audit"
	"crm/internal/domain/auth"
	"crm/internal/domain/projects"
	"crm/internal/transport/http/api"
	"crm/internal/transport/http/middleware"
	"crm/internal/transport/http/shared"
)

type Service interface {
	Create(ctx context.Context, actor auth.Actor, input projects.CreateInput) (*projects.Project, error)
	Get(ctx context.Context, actor auth.Actor, id string) (*projects.Project, error)
	List(ctx context.Context, actor auth.Actor, filter projects.ListFilter) ([]*projects.Project, error)
}

type Handler struct {
	Service Service
	Audit   shared.Auditor
}

func NewHandler(service Service, auditor shared.Auditor) *Handler {
	return &Handler{Service: service, Audit: auditor}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/projects", func(r chi.Router) {
		r.With(middleware.RequireCapability(auth.CapProjectsRead)).Get("/", h.handleList)
		r.With(middleware.RequireCapability(auth.CapProjectsRead)).Get("/{projectID}", h.handleGet)
		r.With(middleware.RequireCapability(auth.CapProjectsManage)).Post("/", h.handleCreate)
	})
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	requestID := middleware.GetRequestID(r.Context())
	switch {
	case errors.Is(err, projects.ErrNotFound):
		api.Fail(w, http.StatusNotFound, "project_not_found", "project not found", requestID)
	case errors.Is(err, projects.ErrNotAuthorized):
		api.Fail(w, http.StatusForbidden, "forbidden", "not allowed to access projects", requestID)
	case errors.Is(err, projects.ErrInvalidProject):
		api.Fail(w, http.StatusBadRequest, "invalid_project", err.Error(), requestID)
	default:
		shared.FailInternal(w, r, "project_failed", "project operation failed", err)
	}
}

type createRequest struct {
	Name         string          `json:"name"`
	Client       projects.Client `json:"client"`
	Budget       decimal.Decimal `json:"budget"`
	StartDate    string          `json:"startDate"`
	Technologies []string        `json:"technologies"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())

	var payload createRequest
	if err := shared.DecodeJSON(r, &payload); err != nil {
		shared.FailPayload(w, r, err)
		return
	}
	v := shared.NewValidator()
	v.Required("name", payload.Name, "is required")
	v.Required("client.company", payload.Client.Company, "is required")
	input := projects.CreateInput{
		Name:         payload.Name,
		Client:       payload.Client,
		Budget:       payload.Budget,
		Technologies: payload.Technologies,
	}
	if payload.StartDate != "" {
		if start, ok := v.Date("startDate", payload.StartDate); ok {
			input.StartDate = start
		}
	}
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	project, err := h.Service.Create(r.Context(), user, input)
	if err != nil {
		writeError(w, r, err)
		return
	}

	shared.RecordAudit(r, h.Audit, user.UserID, audit.ActionProjectCreate, "project", project.ID, nil, project)
	api.Created(w, project, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	page := shared.ParsePagination(r, 50, 200)
	items, err := h.Service.List(r.Context(), user, projects.ListFilter{
		Status: projects.Status(r.URL.Query().Get("status")),
		LeadID: r.URL.Query().Get("leadId"),
		Limit:  page.Limit,
		Offset: page.Offset,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	if items == nil {
		items = []*projects.Project{}
	}
	api.Success(w, items, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	project, err := h.Service.Get(r.Context(), user, chi.URLParam(r, "projectID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	api.Success(w, project, middleware.GetRequestID(r.Context()))
}
