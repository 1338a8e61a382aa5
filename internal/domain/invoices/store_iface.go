package invoices

import "context"

//go:generate mockgen -source=store_iface.go -destination=store_mock.go -package=invoices

type StoreAPI interface {
	Create(ctx context.Context, inv *Invoice) error
	Get(ctx context.Context, id string) (*Invoice, error)
	List(ctx context.Context, filter ListFilter) ([]*Invoice, error)
	// Update locks the invoice, applies fn and saves the result.
	Update(ctx context.Context, id string, fn func(*Invoice) error) (*Invoice, error)
}
