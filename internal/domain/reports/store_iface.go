package reports

import "context"

//go:generate mockgen -source=store_iface.go -destination=store_mock.go -package=reports

type StoreAPI interface {
	ListJobRuns(ctx context.Context, filter JobRunFilter, limit, offset int) ([]JobRun, error)
	CountJobRuns(ctx context.Context, filter JobRunFilter) (int, error)
	JobRunByID(ctx context.Context, runID string) (JobRun, error)
}
