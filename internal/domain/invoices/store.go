package invoices

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"crm/internal/platform/querier"
)

type Store struct {
	DB querier.TxBeginner
}

func NewStore(db querier.TxBeginner) *Store {
	return &Store{DB: db}
}

const invoiceColumns = `id, invoice_number, client_name, client_email, lead_id, project_id, items, currency,
  tax_rate, subtotal, tax, total, status, due_date, paid_at, created_by, created_at, updated_at`

func scanInvoice(row pgx.Row) (*Invoice, error) {
	var inv Invoice
	var items []byte
	if err := row.Scan(&inv.ID, &inv.InvoiceNumber, &inv.ClientName, &inv.ClientEmail, &inv.LeadID, &inv.ProjectID,
		&items, &inv.Currency, &inv.TaxRate, &inv.Subtotal, &inv.Tax, &inv.Total, &inv.Status, &inv.DueDate,
		&inv.PaidAt, &inv.CreatedBy, &inv.CreatedAt, &inv.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if err := json.Unmarshal(items, &inv.Items); err != nil {
		return nil, fmt.Errorf("decode invoice items: %w", err)
	}
	return &inv, nil
}

func (s *Store) Create(ctx context.Context, inv *Invoice) error {
	items, err := json.Marshal(inv.Items)
	if err != nil {
		return err
	}
	err = s.DB.QueryRow(ctx, `
    INSERT INTO invoices (invoice_number, client_name, client_email, lead_id, project_id, items, currency,
      tax_rate, subtotal, tax, total, status, due_date, created_by)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
    RETURNING id, created_at, updated_at
  `, inv.InvoiceNumber, inv.ClientName, inv.ClientEmail, inv.LeadID, inv.ProjectID, items, inv.Currency,
		inv.TaxRate, inv.Subtotal, inv.Tax, inv.Total, string(inv.Status), inv.DueDate, inv.CreatedBy,
	).Scan(&inv.ID, &inv.CreatedAt, &inv.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateNumber
		}
		return fmt.Errorf("insert invoice: %w", err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, id string) (*Invoice, error) {
	return scanInvoice(s.DB.QueryRow(ctx, "SELECT "+invoiceColumns+" FROM invoices WHERE id = $1", id))
}

func (s *Store) List(ctx context.Context, filter ListFilter) ([]*Invoice, error) {
	query := "SELECT " + invoiceColumns + " FROM invoices"
	args := []any{}
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		query += " WHERE status = $1"
	}
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, filter.Limit, filter.Offset)

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, inv)
	}
	return out, rows.Err()
}

func (s *Store) Update(ctx context.Context, id string, fn func(*Invoice) error) (*Invoice, error) {
	var out *Invoice
	err := querier.WithTx(ctx, s.DB, func(tx pgx.Tx) error {
		inv, err := scanInvoice(tx.QueryRow(ctx, "SELECT "+invoiceColumns+" FROM invoices WHERE id = $1 FOR UPDATE", id))
		if err != nil {
			return err
		}
		if err := fn(inv); err != nil {
			return err
		}
		items, err := json.Marshal(inv.Items)
		if err != nil {
			return err
		}
		if err := tx.QueryRow(ctx, `
      UPDATE invoices SET client_name = $2, client_email = $3, items = $4, tax_rate = $5, subtotal = $6,
        tax = $7, total = $8, status = $9, due_date = $10, paid_at = $11, updated_at = now()
      WHERE id = $1
      RETURNING updated_at
    `, id, inv.ClientName, inv.ClientEmail, items, inv.TaxRate, inv.Subtotal, inv.Tax, inv.Total,
			string(inv.Status), inv.DueDate, inv.PaidAt).Scan(&inv.UpdatedAt); err != nil {
			return fmt.Errorf("update invoice: %w", err)
		}
		out = inv
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
