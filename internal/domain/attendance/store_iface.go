package attendance

import (
	"context"
	"time"
)

//go:generate mockgen -source=store_iface.go -destination=store_mock.go -package=attendance

type StoreAPI interface {
	// CheckIn creates or fills the (user, day) record. It returns
	// ErrDuplicateCheckIn when the day already has a check-in.
	CheckIn(ctx context.Context, userID string, workDate, at time.Time, input CheckInput, status Status) (*Record, error)
	// UpdateDay locks the (user, day) record, applies fn and saves it.
	UpdateDay(ctx context.Context, userID string, workDate time.Time, fn func(*Record) error) (*Record, error)
	// Update locks the record by id, applies fn and saves it.
	Update(ctx context.Context, id string, fn func(*Record) error) (*Record, error)
	GetDay(ctx context.Context, userID string, workDate time.Time) (*Record, error)
	List(ctx context.Context, filter ListFilter) ([]*Record, error)
}
