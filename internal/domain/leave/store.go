package leave

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"crm/internal/platform/querier"
)

type Store struct {
	DB querier.TxBeginner
}

func NewStore(db querier.TxBeginner) *Store {
	return &Store{DB: db}
}

const leaveColumns = `id, user_id, type, start_date, end_date, days, reason, status,
  reviewed_by, reviewed_at, review_comments, created_at`

func scanLeave(row pgx.Row) (*Leave, error) {
	var l Leave
	if err := row.Scan(&l.ID, &l.UserID, &l.Type, &l.StartDate, &l.EndDate, &l.Days, &l.Reason, &l.Status,
		&l.ReviewedBy, &l.ReviewedAt, &l.ReviewComments, &l.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &l, nil
}

func (s *Store) Create(ctx context.Context, l *Leave) error {
	return querier.WithTx(ctx, s.DB, func(tx pgx.Tx) error {
		// Serialises concurrent applications from the same user.
		if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock(hashtext($1))", l.UserID); err != nil {
			return err
		}
		var overlaps bool
		if err := tx.QueryRow(ctx, `
      SELECT EXISTS (
        SELECT 1 FROM leaves
        WHERE user_id = $1 AND status IN ('pending', 'approved')
          AND start_date <= $3 AND end_date >= $2
      )
    `, l.UserID, l.StartDate, l.EndDate).Scan(&overlaps); err != nil {
			return err
		}
		if overlaps {
			return ErrLeaveOverlap
		}
		return tx.QueryRow(ctx, `
      INSERT INTO leaves (user_id, type, start_date, end_date, days, reason, status)
      VALUES ($1,$2,$3,$4,$5,$6,$7)
      RETURNING id, created_at
    `, l.UserID, string(l.Type), l.StartDate, l.EndDate, l.Days, l.Reason, string(l.Status)).Scan(&l.ID, &l.CreatedAt)
	})
}

func (s *Store) Get(ctx context.Context, id string) (*Leave, error) {
	return scanLeave(s.DB.QueryRow(ctx, "SELECT "+leaveColumns+" FROM leaves WHERE id = $1", id))
}

func (s *Store) Transition(ctx context.Context, id string, fn func(*Leave) error) (*Leave, error) {
	var out *Leave
	err := querier.WithTx(ctx, s.DB, func(tx pgx.Tx) error {
		l, err := scanLeave(tx.QueryRow(ctx, "SELECT "+leaveColumns+" FROM leaves WHERE id = $1 FOR UPDATE", id))
		if err != nil {
			return err
		}
		if err := fn(l); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `
      UPDATE leaves SET status = $2, reviewed_by = $3, reviewed_at = $4, review_comments = $5
      WHERE id = $1
    `, id, string(l.Status), l.ReviewedBy, l.ReviewedAt, l.ReviewComments); err != nil {
			return fmt.Errorf("update leave: %w", err)
		}
		out = l
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) List(ctx context.Context, filter ListFilter) ([]*Leave, error) {
	var conds []string
	var args []any
	if filter.UserID != "" {
		args = append(args, filter.UserID)
		conds = append(conds, fmt.Sprintf("user_id = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	query := "SELECT " + leaveColumns + " FROM leaves"
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += fmt.Sprintf(" ORDER BY start_date DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, filter.Limit, filter.Offset)

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Leave
	for rows.Next() {
		l, err := scanLeave(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}
