package shared

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"crm/internal/platform/requestctx"
)

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.1:5555"
	if got := ClientIP(req); got != "192.0.2.1" {
		t.Fatalf("expected peer address, got %q", got)
	}

	req.Header.Set("X-Forwarded-For", "203.0.113.7")
	if got := ClientIP(req); got != "192.0.2.1" {
		t.Fatalf("forwarded header must not be trusted on its own, got %q", got)
	}

	req = req.WithContext(requestctx.WithClientIP(req.Context(), "203.0.113.7"))
	if got := ClientIP(req); got != "203.0.113.7" {
		t.Fatalf("expected resolved address, got %q", got)
	}
}

func TestDecodeJSON(t *testing.T) {
	var payload struct {
		Name string `json:"name"`
	}

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"ACME"}`))
	if err := DecodeJSON(req, &payload); err != nil || payload.Name != "ACME" {
		t.Fatalf("unexpected decode result %v %+v", err, payload)
	}

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"nmae":"typo"}`))
	if err := DecodeJSON(req, &payload); err == nil {
		t.Fatal("expected unknown field error")
	}

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(``))
	if err := DecodeJSON(req, &payload); err != ErrEmptyBody {
		t.Fatalf("expected ErrEmptyBody, got %v", err)
	}
}

func TestParsePagination(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?limit=900&offset=20", nil)
	page := ParsePagination(req, 50, 200)
	if page.Limit != 200 || page.Offset != 20 {
		t.Fatalf("unexpected page %+v", page)
	}

	req = httptest.NewRequest(http.MethodGet, "/?limit=-1&offset=x", nil)
	page = ParsePagination(req, 50, 200)
	if page.Limit != 50 || page.Offset != 0 {
		t.Fatalf("unexpected defaults %+v", page)
	}
}

func TestValidatorReject(t *testing.T) {
	v := NewValidator()
	v.Required("company", " ", "is required")
	v.Enum("priority", "urgent", []string{"low", "medium", "high"}, "must be low, medium or high")
	start, _ := v.Date("startDate", "2024-02-05")
	end, _ := v.Date("endDate", "2024-02-01")
	v.DateOrder("startDate", start, "endDate", end)

	rec := httptest.NewRecorder()
	if !v.Reject(rec, "req-1") {
		t.Fatal("expected rejection")
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	issues := v.Issues()
	if len(issues) != 4 || issues[0].Field != "company" {
		t.Fatalf("unexpected issues %+v", issues)
	}
}

func TestFailInternalHidesCause(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	ExposeInternalErrors(false)
	rec := httptest.NewRecorder()
	FailInternal(rec, req, "boom", "something failed", errors.New("pg: connection refused"))
	if rec.Code != http.StatusInternalServerError || strings.Contains(rec.Body.String(), "connection refused") {
		t.Fatalf("unexpected response %d %s", rec.Code, rec.Body.String())
	}

	ExposeInternalErrors(true)
	defer ExposeInternalErrors(false)
	rec = httptest.NewRecorder()
	FailInternal(rec, req, "boom", "something failed", errors.New("pg: connection refused"))
	if !strings.Contains(rec.Body.String(), "connection refused") {
		t.Fatalf("expected cause in development, got %s", rec.Body.String())
	}
}

type recordingAuditor struct {
	actions []string
	ips     []string
	fail    bool
}

func (a *recordingAuditor) Record(_ context.Context, _, action, _, _, _, ip string, _, _ any) error {
	a.actions = append(a.actions, action)
	a.ips = append(a.ips, ip)
	if a.fail {
		return errors.New("audit down")
	}
	return nil
}

func TestRecordAudit(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.RemoteAddr = "198.51.100.9:1234"
	auditor := &recordingAuditor{fail: true}

	RecordAudit(req, auditor, "u1", "lead.status", "lead", "l1", nil, map[string]string{"status": "paid"})
	RecordAudit(req, nil, "u1", "lead.status", "lead", "l1", nil, nil)

	if len(auditor.actions) != 1 || auditor.ips[0] != "198.51.100.9" {
		t.Fatalf("unexpected audit calls %+v", auditor)
	}
}
