package invoiceshandler

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"crm/internal/domain/audit"
	"crm/internal/domain/auth"
	"crm/internal/domain/invoices"
	"crm/internal/transport/http/api"
	"crm/internal/transport/http/middleware"
	"crm/internal/transport/http/shared"
)

type Service interface {
	Create(ctx context.Context, actor auth.Actor, input invoices.CreateInput) (*invoices.Invoice, error)
	Get(ctx context.Context, actor auth.Actor, id string) (*invoices.Invoice, error)
	List(ctx context.Context, actor auth.Actor, filter invoices.ListFilter) ([]*invoices.Invoice, error)
	Update(ctx context.Context, actor auth.Actor, id string, input invoices.UpdateInput) (*invoices.Invoice, error)
	MarkPaid(ctx context.Context, actor auth.Actor, id string) (*invoices.Invoice, error)
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
	r.Route("/invoices", func(r chi.Router) {
		r.Use(middleware.RequireCapability(auth.CapInvoicesManage))
		r.Get("/", h.handleList)
		r.With(middleware.Idempotent(h.Idempotency, "invoices.create")).Post("/", h.handleCreate)
		r.Get("/{invoiceID}", h.handleGet)
		r.Put("/{invoiceID}", h.handleUpdate)
		r.Post("/{invoiceID}/pay", h.handlePay)
		r.Get("/{invoiceID}/pdf", h.handlePDF)
	})
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	requestID := middleware.GetRequestID(r.Context())
	switch {
	case errors.Is(err, invoices.ErrInvalidInvoice):
		api.Fail(w, http.StatusBadRequest, "invalid_invoice", err.Error(), requestID)
	case errors.Is(err, invoices.ErrInvoicePaid):
		api.Fail(w, http.StatusBadRequest, "invoice_paid", "invoice is already paid", requestID)
	case errors.Is(err, invoices.ErrNotAuthorized):
		api.Fail(w, http.StatusForbidden, "forbidden", "not allowed to manage invoices", requestID)
	case errors.Is(err, invoices.ErrNotFound):
		api.Fail(w, http.StatusNotFound, "invoice_not_found", "invoice not found", requestID)
	default:
		shared.FailInternal(w, r, "invoice_failed", "invoice operation failed", err)
	}
}

type createRequest struct {
	ClientName  string               `json:"clientName"`
	ClientEmail string               `json:"clientEmail"`
	LeadID      *string              `json:"leadId"`
	ProjectID   *string              `json:"projectId"`
	Items       []invoices.ItemInput `json:"items"`
	Currency    string               `json:"currency"`
	TaxRate     decimal.Decimal      `json:"taxRate"`
	DueDate     string               `json:"dueDate"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())

	var payload createRequest
	if err := shared.DecodeJSON(r, &payload); err != nil {
		shared.FailPayload(w, r, err)
		return
	}
	v := shared.NewValidator()
	v.Required("clientName", payload.ClientName, "is required")
	if len(payload.Items) == 0 {
		v.Add("items", "must contain at least one item")
	}
	input := invoices.CreateInput{
		ClientName:  payload.ClientName,
		ClientEmail: payload.ClientEmail,
		LeadID:      payload.LeadID,
		ProjectID:   payload.ProjectID,
		Items:       payload.Items,
		Currency:    strings.ToUpper(strings.TrimSpace(payload.Currency)),
		TaxRate:     payload.TaxRate,
	}
	if payload.DueDate != "" {
		if due, ok := v.Date("dueDate", payload.DueDate); ok {
			input.DueDate = &due
		}
	}
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	inv, err := h.Service.Create(r.Context(), user, input)
	if err != nil {
		writeError(w, r, err)
		return
	}
	api.Created(w, inv, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	page := shared.ParsePagination(r, 50, 200)
	items, err := h.Service.List(r.Context(), user, invoices.ListFilter{
		Status: invoices.Status(r.URL.Query().Get("status")),
		Limit:  page.Limit,
		Offset: page.Offset,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	if items == nil {
		items = []*invoices.Invoice{}
	}
	api.Success(w, items, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	inv, err := h.Service.Get(r.Context(), user, chi.URLParam(r, "invoiceID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	api.Success(w, inv, middleware.GetRequestID(r.Context()))
}

type updateRequest struct {
	ClientName  *string              `json:"clientName"`
	ClientEmail *string              `json:"clientEmail"`
	Items       []invoices.ItemInput `json:"items"`
	TaxRate     *decimal.Decimal     `json:"taxRate"`
	DueDate     *string              `json:"dueDate"`
	Status      *string              `json:"status"`
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())

	var payload updateRequest
	if err := shared.DecodeJSON(r, &payload); err != nil {
		shared.FailPayload(w, r, err)
		return
	}
	input := invoices.UpdateInput{
		ClientName:  payload.ClientName,
		ClientEmail: payload.ClientEmail,
		Items:       payload.Items,
		TaxRate:     payload.TaxRate,
	}
	v := shared.NewValidator()
	if payload.DueDate != nil {
		if due, ok := v.Date("dueDate", *payload.DueDate); ok {
			input.DueDate = &due
		}
	}
	if payload.Status != nil {
		status := invoices.Status(strings.ToLower(strings.TrimSpace(*payload.Status)))
		input.Status = &status
	}
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	inv, err := h.Service.Update(r.Context(), user, chi.URLParam(r, "invoiceID"), input)
	if err != nil {
		writeError(w, r, err)
		return
	}
	api.Success(w, inv, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handlePay(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	inv, err := h.Service.MarkPaid(r.Context(), user, chi.URLParam(r, "invoiceID"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	shared.RecordAudit(r, h.Audit, user.UserID, audit.ActionInvoicePay, "invoice", inv.ID,
		nil, map[string]any{"status": inv.Status, "total": inv.Total, "paidAt": inv.PaidAt})
	api.Success(w, inv, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handlePDF(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	inv, err := h.Service.Get(r.Context(), user, chi.URLParam(r, "invoiceID"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := invoices.RenderPDF(&buf, inv); err != nil {
		shared.FailInternal(w, r, "invoice_pdf_failed", "failed to render invoice", err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", "attachment; filename="+inv.InvoiceNumber+".pdf")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
