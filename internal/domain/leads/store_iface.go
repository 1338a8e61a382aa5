package leads

import (
	"context"
	"time"
)

// Repository persists leads. Mutating methods run inside one row-locked
// transaction; authorize sees the locked row before anything is written.
type Repository interface {
	Create(ctx context.Context, lead *Lead, initial HistoryEntry) error
	Get(ctx context.Context, id string) (*Lead, error)
	List(ctx context.Context, filter ListFilter) ([]*Lead, error)
	ChangeStatus(ctx context.Context, id string, authorize func(*Lead) error, entry HistoryEntry, note func(from Status) string) (*Lead, Status, error)
	Assign(ctx context.Context, ids []string, assignTo, assignedBy string, at time.Time) ([]*Lead, error)
	AddNote(ctx context.Context, id string, authorize func(*Lead) error, note *Note) error
	Update(ctx context.Context, id string, authorize func(*Lead) error, apply func(*Lead), at time.Time) (*Lead, error)
	PendingConversions(ctx context.Context, limit int) ([]string, error)
}

// ProjectConverter turns a paid lead into a project at most once. converted
// is false when the lead had already been converted.
type ProjectConverter interface {
	ConvertLead(ctx context.Context, leadID string) (projectID string, converted bool, err error)
}

type UserDirectory interface {
	UserExists(ctx context.Context, userID string) (bool, error)
}
