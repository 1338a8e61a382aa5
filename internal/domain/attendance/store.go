package attendance

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"crm/internal/platform/querier"
)

type Store struct {
	DB querier.TxBeginner
}

func NewStore(db querier.TxBeginner) *Store {
	return &Store{DB: db}
}

const recordColumns = `id, user_id, work_date, check_in_time, check_in_location, check_in_ip,
  check_out_time, check_out_location, check_out_ip, breaks, working_hours, status, notes,
  approved_by, created_at, updated_at`

func scanRecord(row pgx.Row) (*Record, error) {
	var r Record
	var breaks []byte
	if err := row.Scan(
		&r.ID, &r.UserID, &r.WorkDate,
		&r.CheckIn.Time, &r.CheckIn.Location, &r.CheckIn.IPAddress,
		&r.CheckOut.Time, &r.CheckOut.Location, &r.CheckOut.IPAddress,
		&breaks, &r.WorkingHours, &r.Status, &r.Notes,
		&r.ApprovedBy, &r.CreatedAt, &r.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if len(breaks) > 0 {
		if err := json.Unmarshal(breaks, &r.Breaks); err != nil {
			return nil, fmt.Errorf("decode breaks: %w", err)
		}
	}
	if r.Breaks == nil {
		r.Breaks = []Break{}
	}
	return &r, nil
}

func (s *Store) CheckIn(ctx context.Context, userID string, workDate, at time.Time, input CheckInput, status Status) (*Record, error) {
	rec, err := scanRecord(s.DB.QueryRow(ctx, `
    INSERT INTO attendance (user_id, work_date, check_in_time, check_in_location, check_in_ip, status)
    VALUES ($1,$2,$3,$4,$5,$6)
    ON CONFLICT (user_id, work_date) DO UPDATE
      SET check_in_time = EXCLUDED.check_in_time,
          check_in_location = EXCLUDED.check_in_location,
          check_in_ip = EXCLUDED.check_in_ip,
          status = EXCLUDED.status,
          updated_at = now()
      WHERE attendance.check_in_time IS NULL
    RETURNING `+recordColumns,
		userID, workDate, at, input.Location, input.IPAddress, string(status)))
	if errors.Is(err, ErrNotFound) {
		return nil, ErrDuplicateCheckIn
	}
	return rec, err
}

func (s *Store) UpdateDay(ctx context.Context, userID string, workDate time.Time, fn func(*Record) error) (*Record, error) {
	return s.update(ctx, "user_id = $1 AND work_date = $2", []any{userID, workDate}, fn)
}

func (s *Store) Update(ctx context.Context, id string, fn func(*Record) error) (*Record, error) {
	return s.update(ctx, "id = $1", []any{id}, fn)
}

func (s *Store) update(ctx context.Context, where string, args []any, fn func(*Record) error) (*Record, error) {
	var out *Record
	err := querier.WithTx(ctx, s.DB, func(tx pgx.Tx) error {
		rec, err := scanRecord(tx.QueryRow(ctx, "SELECT "+recordColumns+" FROM attendance WHERE "+where+" FOR UPDATE", args...))
		if err != nil {
			return err
		}
		if err := fn(rec); err != nil {
			return err
		}
		saved, err := save(ctx, tx, rec)
		if err != nil {
			return err
		}
		out = saved
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func save(ctx context.Context, q querier.Querier, r *Record) (*Record, error) {
	if r.Breaks == nil {
		r.Breaks = []Break{}
	}
	breaks, err := json.Marshal(r.Breaks)
	if err != nil {
		return nil, err
	}
	return scanRecord(q.QueryRow(ctx, `
    UPDATE attendance
    SET check_in_time = $2, check_in_location = $3, check_in_ip = $4,
        check_out_time = $5, check_out_location = $6, check_out_ip = $7,
        breaks = $8, working_hours = $9, status = $10, notes = $11, approved_by = $12,
        updated_at = now()
    WHERE id = $1
    RETURNING `+recordColumns,
		r.ID, r.CheckIn.Time, r.CheckIn.Location, r.CheckIn.IPAddress,
		r.CheckOut.Time, r.CheckOut.Location, r.CheckOut.IPAddress,
		breaks, r.WorkingHours, string(r.Status), r.Notes, r.ApprovedBy))
}

func (s *Store) GetDay(ctx context.Context, userID string, workDate time.Time) (*Record, error) {
	return scanRecord(s.DB.QueryRow(ctx, "SELECT "+recordColumns+" FROM attendance WHERE user_id = $1 AND work_date = $2", userID, workDate))
}

func (s *Store) List(ctx context.Context, filter ListFilter) ([]*Record, error) {
	var conds []string
	var args []any
	add := func(cond string, value any) {
		args = append(args, value)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if filter.UserID != "" {
		add("user_id = $%d", filter.UserID)
	}
	if !filter.From.IsZero() {
		add("work_date >= $%d", filter.From)
	}
	if !filter.To.IsZero() {
		add("work_date <= $%d", filter.To)
	}
	if filter.Status != "" {
		add("status = $%d", string(filter.Status))
	}

	query := "SELECT " + recordColumns + " FROM attendance"
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += fmt.Sprintf(" ORDER BY work_date DESC, created_at DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, filter.Limit, filter.Offset)

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
