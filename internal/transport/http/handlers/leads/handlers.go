package leadshandler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"crm/internal/domain/audit"
	"crm/internal/domain/auth"
	"crm/internal/domain/leads"
	"crm/internal/transport/http/api"
	"crm/internal/transport/http/middleware"
	"crm/internal/transport/http/shared"
)

type Service interface {
	Create(ctx context.Context, actor auth.Actor, input leads.CreateInput) (*leads.Lead, error)
	SetStatus(ctx context.Context, actor auth.Actor, leadID string, status leads.Status, reason string) (*leads.Lead, error)
	Assign(ctx context.Context, actor auth.Actor, ids []string, assignTo string) ([]*leads.Lead, error)
	AddNote(ctx context.Context, actor auth.Actor, leadID, body string) (*leads.Note, error)
	Get(ctx context.Context, actor auth.Actor, leadID string) (*leads.Lead, error)
	List(ctx context.Context, actor auth.Actor, filter leads.ListFilter) ([]*leads.Lead, error)
	Update(ctx context.Context, actor auth.Actor, leadID string, input leads.UpdateInput) (*leads.Lead, error)
}

type Handler struct {
	Service     Service
	Audit       shared.Auditor
	Idempotency middleware.IdempotencyChecker
}

func NewHandler(service Service, auditor shared.Auditor, idem middleware.IdempotencyChecker) *Handler {
	return &Handler{Service: service, Audit: auditor, Idempotency: idem}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/leads", func(r chi.Router) {
		r.Get("/", h.handleList)
		r.With(middleware.Idempotent(h.Idempotency, "leads.create")).Post("/", h.handleCreate)
		r.With(middleware.RequireCapability(auth.CapLeadsManage)).Post("/assign", h.handleAssign)
		r.Get("/{leadID}", h.handleGet)
		r.Put("/{leadID}", h.handleUpdate)
		r.Put("/{leadID}/status", h.handleSetStatus)
		r.Post("/{leadID}/notes", h.handleAddNote)
	})
}

// writeError maps lead domain errors onto the response envelope.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	requestID := middleware.GetRequestID(r.Context())
	var missing *leads.MissingLeadsError
	switch {
	case errors.As(err, &missing):
		api.FailWithDetails(w, http.StatusNotFound, "lead_not_found", "some leads were not found", map[string]any{"leadIds": missing.IDs}, requestID)
	case errors.Is(err, leads.ErrNotFound):
		api.Fail(w, http.StatusNotFound, "lead_not_found", "lead not found", requestID)
	case errors.Is(err, leads.ErrNotAuthorized):
		api.Fail(w, http.StatusForbidden, "forbidden", "not allowed to modify this lead", requestID)
	case errors.Is(err, leads.ErrInvalidStatus):
		api.Fail(w, http.StatusBadRequest, "invalid_status", "invalid lead status", requestID)
	case errors.Is(err, leads.ErrInvalidLead):
		api.Fail(w, http.StatusBadRequest, "invalid_lead", err.Error(), requestID)
	case errors.Is(err, leads.ErrAssigneeNotFound):
		api.Fail(w, http.StatusBadRequest, "assignee_not_found", "assignee not found", requestID)
	case errors.Is(err, leads.ErrNoLeadsToAssign):
		api.Fail(w, http.StatusBadRequest, "no_leads", "leadIds must not be empty", requestID)
	default:
		shared.FailInternal(w, r, "lead_failed", "lead operation failed", err)
	}
}

type createRequest struct {
	Company             string           `json:"company"`
	ContactName         string           `json:"contactName"`
	Email               string           `json:"email"`
	Phone               string           `json:"phone"`
	Industry            string           `json:"industry"`
	Source              string           `json:"source"`
	Priority            string           `json:"priority"`
	PotentialValue      decimal.Decimal  `json:"potentialValue"`
	ClientQuotation     *decimal.Decimal `json:"clientQuotation"`
	FinalQuotation      *decimal.Decimal `json:"finalQuotation"`
	InterestedPlatforms []string         `json:"interestedPlatforms"`
	SLAAgreed           bool             `json:"slaAgreed"`
	NDASigned           bool             `json:"ndaSigned"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	var payload createRequest
	if err := shared.DecodeJSON(r, &payload); err != nil {
		shared.FailPayload(w, r, err)
		return
	}

	v := shared.NewValidator()
	v.Required("company", payload.Company, "is required")
	v.Required("contactName", payload.ContactName, "is required")
	v.Required("email", payload.Email, "is required")
	v.Enum("priority", payload.Priority, []string{string(leads.PriorityLow), string(leads.PriorityMedium), string(leads.PriorityHigh)}, "must be low, medium or high")
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	lead, err := h.Service.Create(r.Context(), user, leads.CreateInput{
		Company:             payload.Company,
		ContactName:         payload.ContactName,
		Email:               payload.Email,
		Phone:               payload.Phone,
		Industry:            payload.Industry,
		Source:              payload.Source,
		Priority:            leads.Priority(strings.ToLower(strings.TrimSpace(payload.Priority))),
		PotentialValue:      payload.PotentialValue,
		ClientQuotation:     payload.ClientQuotation,
		FinalQuotation:      payload.FinalQuotation,
		InterestedPlatforms: payload.InterestedPlatforms,
		SLAAgreed:           payload.SLAAgreed,
		NDASigned:           payload.NDASigned,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	shared.RecordAudit(r, h.Audit, user.UserID, audit.ActionLeadCreate, "lead", lead.ID, nil, lead)
	api.Created(w, lead, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	query := r.URL.Query()
	status := leads.Status(query.Get("status"))
	if status != "" && !leads.ValidStatus(status) {
		api.Fail(w, http.StatusBadRequest, "invalid_status", "invalid lead status", middleware.GetRequestID(r.Context()))
		return
	}
	page := shared.ParsePagination(r, 50, 200)
	items, err := h.Service.List(r.Context(), user, leads.ListFilter{
		Status:     status,
		AssignedTo: query.Get("assignedTo"),
		Search:     strings.TrimSpace(query.Get("search")),
		Limit:      page.Limit,
		Offset:     page.Offset,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	if items == nil {
		items = []*leads.Lead{}
	}
	api.Success(w, items, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	lead, err := h.Service.Get(r.Context(), user, chi.URLParam(r, "leadID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	api.Success(w, lead, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	var payload leads.UpdateInput
	if err := shared.DecodeJSON(r, &payload); err != nil {
		shared.FailPayload(w, r, err)
		return
	}

	lead, err := h.Service.Update(r.Context(), user, chi.URLParam(r, "leadID"), payload)
	if err != nil {
		writeError(w, r, err)
		return
	}
	api.Success(w, lead, middleware.GetRequestID(r.Context()))
}

type statusRequest struct {
	Status string `json:"status"`
	Reason string `json:"reason"`
}

func (h *Handler) handleSetStatus(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	var payload statusRequest
	if err := shared.DecodeJSON(r, &payload); err != nil {
		shared.FailPayload(w, r, err)
		return
	}
	v := shared.NewValidator()
	v.Required("status", payload.Status, "is required")
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	leadID := chi.URLParam(r, "leadID")
	lead, err := h.Service.SetStatus(r.Context(), user, leadID, leads.Status(strings.ToLower(strings.TrimSpace(payload.Status))), payload.Reason)
	if err != nil {
		writeError(w, r, err)
		return
	}

	shared.RecordAudit(r, h.Audit, user.UserID, audit.ActionLeadStatus, "lead", lead.ID, nil, map[string]any{
		"status":             lead.Status,
		"reason":             payload.Reason,
		"convertedToProject": lead.ConvertedToProject,
	})
	api.Success(w, lead, middleware.GetRequestID(r.Context()))
}

type assignRequest struct {
	LeadIDs  []string `json:"leadIds"`
	AssignTo string   `json:"assignTo"`
}

func (h *Handler) handleAssign(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	var payload assignRequest
	if err := shared.DecodeJSON(r, &payload); err != nil {
		shared.FailPayload(w, r, err)
		return
	}
	v := shared.NewValidator()
	v.Required("assignTo", payload.AssignTo, "is required")
	if len(payload.LeadIDs) == 0 {
		v.Add("leadIds", "must contain at least one lead id")
	}
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	assigned, err := h.Service.Assign(r.Context(), user, payload.LeadIDs, payload.AssignTo)
	if err != nil {
		writeError(w, r, err)
		return
	}

	for _, lead := range assigned {
		shared.RecordAudit(r, h.Audit, user.UserID, audit.ActionLeadAssign, "lead", lead.ID, nil, map[string]any{"assignedTo": payload.AssignTo})
	}
	api.Success(w, map[string]any{"assigned": len(assigned), "leads": assigned}, middleware.GetRequestID(r.Context()))
}

type noteRequest struct {
	Body string `json:"body"`
}

func (h *Handler) handleAddNote(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	var payload noteRequest
	if err := shared.DecodeJSON(r, &payload); err != nil {
		shared.FailPayload(w, r, err)
		return
	}
	v := shared.NewValidator()
	v.Required("body", payload.Body, "is required")
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	note, err := h.Service.AddNote(r.Context(), user, chi.URLParam(r, "leadID"), payload.Body)
	if err != nil {
		writeError(w, r, err)
		return
	}
	api.Created(w, note, middleware.GetRequestID(r.Context()))
}
