package projects

import (
	"context"

	"crm/internal/domain/leads"
)

//go:generate mockgen -source=store_iface.go -destination=store_mock.go -package=projects

type StoreAPI interface {
	// ConvertLead claims the lead, inserts the project built from it and
	// links both in one transaction. It returns a nil project when the lead
	// was already converted and leads.ErrNotFound when it does not exist.
	ConvertLead(ctx context.Context, leadID string, build func(*leads.Lead) *Project) (*Project, error)
	Create(ctx context.Context, p *Project) error
	Get(ctx context.Context, id string) (*Project, error)
	List(ctx context.Context, filter ListFilter) ([]*Project, error)
}
