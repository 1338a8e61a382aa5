package leave

import "context"

//go:generate mockgen -source=store_iface.go -destination=store_mock.go -package=leave

type StoreAPI interface {
	// Create inserts a pending leave unless it overlaps one of the user's
	// pending or approved leaves, in which case it returns ErrLeaveOverlap.
	Create(ctx context.Context, l *Leave) error
	Get(ctx context.Context, id string) (*Leave, error)
	// Transition locks the leave and persists the status fields fn leaves on it.
	Transition(ctx context.Context, id string, fn func(*Leave) error) (*Leave, error)
	List(ctx context.Context, filter ListFilter) ([]*Leave, error)
}
