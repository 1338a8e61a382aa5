package reportshandler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crm/internal/domain/auth"
	"crm/internal/domain/reports"
	"crm/internal/transport/http/middleware"
)

type fakeService struct {
	filter reports.JobRunFilter
	limit  int
}

func (f *fakeService) JobRuns(_ context.Context, filter reports.JobRunFilter, limit, _ int) ([]reports.JobRun, int, error) {
	f.filter = filter
	f.limit = limit
	return []reports.JobRun{{ID: "r1", JobType: "conversion_reconcile", Status: "completed"}}, 4, nil
}

func (f *fakeService) JobRun(_ context.Context, runID string) (reports.JobRun, error) {
	if runID != "r1" {
		return reports.JobRun{}, reports.ErrJobRunNotFound
	}
	return reports.JobRun{ID: "r1"}, nil
}

func serve(svc Service, actor auth.Actor, target string) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(middleware.WithUser(req.Context(), actor)))
		})
	})
	NewHandler(svc).RegisterRoutes(r)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestReportsRequireCapability(t *testing.T) {
	for _, role := range []auth.Role{auth.RoleSales, auth.RoleDeveloper, auth.RoleEmployee} {
		rec := serve(&fakeService{}, auth.NewActor("u", role), "/reports/jobs")
		assert.Equal(t, http.StatusForbidden, rec.Code, role)
	}
}

func TestListJobRuns(t *testing.T) {
	svc := &fakeService{}
	rec := serve(svc, auth.NewActor("a1", auth.RoleAdmin), "/reports/jobs?jobType=notification_purge&status=failed&startedFrom=2024-01-01&limit=1000")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "4", rec.Header().Get("X-Total-Count"))
	assert.Equal(t, "notification_purge", svc.filter.JobType)
	assert.Equal(t, "failed", svc.filter.Status)
	require.NotNil(t, svc.filter.StartedFrom)
	assert.Nil(t, svc.filter.StartedTo)
	assert.Equal(t, 200, svc.limit)
}

func TestListJobRunsValidation(t *testing.T) {
	rec := serve(&fakeService{}, auth.NewActor("a1", auth.RoleAdmin), "/reports/jobs?status=weird&startedFrom=2024-02-01&startedTo=2024-01-01")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "validation_error")
}

func TestGetJobRun(t *testing.T) {
	rec := serve(&fakeService{}, auth.NewActor("h1", auth.RoleHR), "/reports/jobs/r1")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = serve(&fakeService{}, auth.NewActor("h1", auth.RoleHR), "/reports/jobs/nope")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
