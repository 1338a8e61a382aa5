package reports

import "context"

// Service exposes the background job history recorded in job_runs.
type Service struct {
	store StoreAPI
}

func NewService(store StoreAPI) *Service {
	return &Service{store: store}
}

func (s *Service) JobRuns(ctx context.Context, filter JobRunFilter, limit, offset int) ([]JobRun, int, error) {
	total, err := s.store.CountJobRuns(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	runs, err := s.store.ListJobRuns(ctx, filter, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	return runs, total, nil
}

func (s *Service) JobRun(ctx context.Context, runID string) (JobRun, error) {
	return s.store.JobRunByID(ctx, runID)
}
