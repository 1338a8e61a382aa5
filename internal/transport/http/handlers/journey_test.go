package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"crm/internal/app/server"
	"crm/internal/platform/config"
	"crm/internal/platform/db"
)

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error any             `json:"error"`
}

func testConfig(dbURL string) config.Config {
	return config.Config{
		DatabaseURL:        dbURL,
		JWTSecret:          "test-secret",
		JWTTTL:             time.Hour,
		Environment:        "test",
		Timezone:           "UTC",
		SeedAdminEmail:     "admin@test.local",
		SeedAdminPassword:  "ChangeMe123!",
		EmailFrom:          "no-reply@test.local",
		RunMigrations:      true,
		RunSeed:            true,
		MaxBodyBytes:       1048576,
		RateLimitPerMinute: 1000,
		NotificationTTL:    time.Hour,
		DBMaxConns:         4,
	}
}

func startApp(t *testing.T) (*server.App, *httptest.Server, config.Config) {
	t.Helper()
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	cfg := testConfig(dbURL)
	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		t.Fatalf("db connect failed: %v", err)
	}
	t.Cleanup(pool.Close)
	if err := db.Migrate(ctx, pool); err != nil {
		t.Fatalf("migrations failed: %v", err)
	}
	if err := db.Seed(ctx, pool, cfg); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	app, err := server.New(ctx, cfg, pool)
	if err != nil {
		t.Fatalf("failed to start app: %v", err)
	}
	t.Cleanup(app.Close)

	ts := httptest.NewServer(app.Router)
	t.Cleanup(ts.Close)
	return app, ts, cfg
}

func TestPaidLeadJourneyCreatesSingleProject(t *testing.T) {
	_, ts, cfg := startApp(t)
	client := ts.Client()

	adminToken := login(t, client, ts.URL, cfg.SeedAdminEmail, cfg.SeedAdminPassword)
	salesEmail := fmt.Sprintf("sales-%d@example.com", time.Now().UnixNano())
	salesID := createUser(t, client, ts.URL, adminToken, salesEmail, "sales")
	salesToken := login(t, client, ts.URL, salesEmail, "Password123")

	leadBody := map[string]any{
		"company":             "Acme",
		"contactName":         "Jane Doe",
		"email":               "jane@acme.test",
		"potentialValue":      50000,
		"finalQuotation":      75000,
		"interestedPlatforms": []string{"web", "ios"},
	}
	key := map[string]string{"Idempotency-Key": fmt.Sprintf("lead-%d", time.Now().UnixNano())}
	_, created := doJSON(t, client, http.MethodPost, ts.URL+"/api/v1/leads", salesToken, leadBody, key, http.StatusCreated)
	lead := dataMap(t, created)
	leadID, _ := lead["id"].(string)
	if leadID == "" {
		t.Fatal("expected lead id")
	}

	resp, replay := doJSON(t, client, http.MethodPost, ts.URL+"/api/v1/leads", salesToken, leadBody, key, http.StatusCreated)
	if resp.Header.Get("Idempotent-Replayed") != "true" {
		t.Fatal("expected replayed response for repeated idempotency key")
	}
	if dataMap(t, replay)["id"] != leadID {
		t.Fatal("expected replay to return the original lead")
	}

	doJSON(t, client, http.MethodPost, ts.URL+"/api/v1/leads/assign", salesToken, map[string]any{
		"leadIds": []string{leadID}, "assignTo": salesID,
	}, nil, http.StatusForbidden)
	doJSON(t, client, http.MethodPost, ts.URL+"/api/v1/leads/assign", adminToken, map[string]any{
		"leadIds": []string{leadID}, "assignTo": salesID,
	}, nil, http.StatusOK)

	_, paid := doJSON(t, client, http.MethodPut, ts.URL+"/api/v1/leads/"+leadID+"/status", salesToken, map[string]any{
		"status": "paid", "reason": "signed",
	}, nil, http.StatusOK)
	if converted, _ := dataMap(t, paid)["convertedToProject"].(bool); !converted {
		t.Fatal("expected lead to be converted")
	}

	doJSON(t, client, http.MethodPut, ts.URL+"/api/v1/leads/"+leadID+"/status", salesToken, map[string]any{"status": "negotiation"}, nil, http.StatusOK)
	doJSON(t, client, http.MethodPut, ts.URL+"/api/v1/leads/"+leadID+"/status", salesToken, map[string]any{"status": "paid"}, nil, http.StatusOK)
	doJSON(t, client, http.MethodPut, ts.URL+"/api/v1/leads/"+leadID+"/status", salesToken, map[string]any{"status": "bogus"}, nil, http.StatusBadRequest)

	_, listed := doJSON(t, client, http.MethodGet, ts.URL+"/api/v1/projects?leadId="+leadID, salesToken, nil, nil, http.StatusOK)
	var projects []map[string]any
	if err := json.Unmarshal(listed.Data, &projects); err != nil {
		t.Fatalf("failed to decode projects: %v", err)
	}
	if len(projects) != 1 {
		t.Fatalf("expected exactly one project, got %d", len(projects))
	}
	if projects[0]["status"] != "planning" {
		t.Fatalf("expected planning project, got %v", projects[0]["status"])
	}
}

func TestAttendanceAndLeaveJourney(t *testing.T) {
	_, ts, cfg := startApp(t)
	client := ts.Client()

	adminToken := login(t, client, ts.URL, cfg.SeedAdminEmail, cfg.SeedAdminPassword)
	employeeEmail := fmt.Sprintf("employee-%d@example.com", time.Now().UnixNano())
	createUser(t, client, ts.URL, adminToken, employeeEmail, "employee")
	employeeToken := login(t, client, ts.URL, employeeEmail, "Password123")

	doJSON(t, client, http.MethodPost, ts.URL+"/api/v1/attendance", employeeToken, map[string]any{"type": "checkin", "location": "office"}, nil, http.StatusOK)
	_, dup := doJSON(t, client, http.MethodPost, ts.URL+"/api/v1/attendance", employeeToken, map[string]any{"type": "checkin"}, nil, http.StatusBadRequest)
	if envelopeErrorCode(dup) != "already_checked_in" {
		t.Fatalf("expected already_checked_in, got %v", dup.Error)
	}
	doJSON(t, client, http.MethodPost, ts.URL+"/api/v1/attendance", employeeToken, map[string]any{"type": "checkout"}, nil, http.StatusOK)

	_, applied := doJSON(t, client, http.MethodPost, ts.URL+"/api/v1/leaves", employeeToken, map[string]any{
		"type": "annual", "startDate": "2030-02-01", "endDate": "2030-02-05", "reason": "holiday",
	}, nil, http.StatusCreated)
	leaveReq := dataMap(t, applied)
	if days, _ := leaveReq["days"].(float64); days != 5 {
		t.Fatalf("expected 5 leave days, got %v", leaveReq["days"])
	}
	leaveID, _ := leaveReq["id"].(string)

	doJSON(t, client, http.MethodPost, ts.URL+"/api/v1/leaves", employeeToken, map[string]any{
		"type": "sick", "startDate": "2030-02-04", "endDate": "2030-02-06", "reason": "overlap",
	}, nil, http.StatusBadRequest)

	doJSON(t, client, http.MethodPut, ts.URL+"/api/v1/leaves/"+leaveID+"/review", employeeToken, map[string]any{"status": "approved"}, nil, http.StatusForbidden)
	_, reviewed := doJSON(t, client, http.MethodPut, ts.URL+"/api/v1/leaves/"+leaveID+"/review", adminToken, map[string]any{
		"status": "approved", "reviewComments": "enjoy",
	}, nil, http.StatusOK)
	if dataMap(t, reviewed)["status"] != "approved" {
		t.Fatal("expected approved leave")
	}
	doJSON(t, client, http.MethodPut, ts.URL+"/api/v1/leaves/"+leaveID+"/review", adminToken, map[string]any{"status": "denied"}, nil, http.StatusBadRequest)

	_, count := doJSON(t, client, http.MethodGet, ts.URL+"/api/v1/notifications/unread-count", employeeToken, nil, nil, http.StatusOK)
	if n, _ := dataMap(t, count)["count"].(float64); n < 1 {
		t.Fatalf("expected a leave decision notification, got %v", n)
	}
}

func TestInvoicePaymentIsFinal(t *testing.T) {
	_, ts, cfg := startApp(t)
	client := ts.Client()
	adminToken := login(t, client, ts.URL, cfg.SeedAdminEmail, cfg.SeedAdminPassword)

	_, created := doJSON(t, client, http.MethodPost, ts.URL+"/api/v1/invoices", adminToken, map[string]any{
		"clientName": "Acme",
		"items":      []map[string]any{{"description": "Build", "quantity": 2, "unitPrice": 100}},
		"taxRate":    10,
	}, nil, http.StatusCreated)
	invoice := dataMap(t, created)
	invoiceID, _ := invoice["id"].(string)
	total, err := decimal.NewFromString(fmt.Sprint(invoice["total"]))
	if err != nil || !total.Equal(decimal.NewFromInt(220)) {
		t.Fatalf("expected total 220, got %v", invoice["total"])
	}

	doJSON(t, client, http.MethodPost, ts.URL+"/api/v1/invoices/"+invoiceID+"/pay", adminToken, nil, nil, http.StatusOK)
	doJSON(t, client, http.MethodPost, ts.URL+"/api/v1/invoices/"+invoiceID+"/pay", adminToken, nil, nil, http.StatusBadRequest)
	doJSON(t, client, http.MethodPut, ts.URL+"/api/v1/invoices/"+invoiceID, adminToken, map[string]any{"clientName": "Other"}, nil, http.StatusBadRequest)
}

func login(t *testing.T, client *http.Client, baseURL, email, password string) string {
	t.Helper()
	_, resp := doJSON(t, client, http.MethodPost, baseURL+"/api/v1/auth/login", "", map[string]any{
		"email":    email,
		"password": password,
	}, nil, http.StatusOK)
	token, _ := dataMap(t, resp)["token"].(string)
	if token == "" {
		t.Fatal("expected token")
	}
	return token
}

func createUser(t *testing.T, client *http.Client, baseURL, token, email, role string) string {
	t.Helper()
	_, resp := doJSON(t, client, http.MethodPost, baseURL+"/api/v1/users", token, map[string]any{
		"email":    email,
		"name":     "Journey Tester",
		"password": "Password123",
		"role":     role,
	}, nil, http.StatusCreated)
	id, _ := dataMap(t, resp)["id"].(string)
	if id == "" {
		t.Fatal("expected user id")
	}
	return id
}

func doJSON(t *testing.T, client *http.Client, method, url, token string, body any, headers map[string]string, want int) (*http.Response, envelope) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
		reader = bytes.NewBuffer(raw)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read response: %v", err)
	}
	if resp.StatusCode != want {
		t.Fatalf("%s %s: expected status %d, got %d: %s", method, url, want, resp.StatusCode, string(raw))
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return resp, env
}

func dataMap(t *testing.T, env envelope) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(env.Data, &out); err != nil {
		t.Fatalf("failed to decode data: %v", err)
	}
	return out
}

func envelopeErrorCode(env envelope) string {
	errMap, ok := env.Error.(map[string]any)
	if !ok {
		return ""
	}
	code, _ := errMap["code"].(string)
	return code
}
