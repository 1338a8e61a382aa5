package leads

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"crm/internal/platform/querier"
)

type Store struct {
	DB querier.TxBeginner
}

func NewStore(db querier.TxBeginner) *Store {
	return &Store{DB: db}
}

const leadColumns = `id, lead_code, company, contact_name, email, phone, industry, source, priority,
  potential_value, client_quotation, final_quotation, interested_platforms, sla_agreed, nda_signed,
  status, assigned_to, assigned_by, assigned_date, created_by, converted_to_project, project_id,
  last_activity, created_at`

func scanLead(row pgx.Row) (*Lead, error) {
	var l Lead
	var clientQuote, finalQuote decimal.NullDecimal
	if err := row.Scan(
		&l.ID, &l.LeadCode, &l.Company, &l.ContactName, &l.Email, &l.Phone, &l.Industry, &l.Source, &l.Priority,
		&l.PotentialValue, &clientQuote, &finalQuote, &l.InterestedPlatforms, &l.SLAAgreed, &l.NDASigned,
		&l.Status, &l.AssignedTo, &l.AssignedBy, &l.AssignedDate, &l.CreatedBy, &l.ConvertedToProject, &l.ProjectID,
		&l.LastActivity, &l.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	l.ClientQuotation = fromNull(clientQuote)
	l.FinalQuotation = fromNull(finalQuote)
	if l.InterestedPlatforms == nil {
		l.InterestedPlatforms = []string{}
	}
	return &l, nil
}

func fromNull(d decimal.NullDecimal) *decimal.Decimal {
	if !d.Valid {
		return nil
	}
	v := d.Decimal
	return &v
}

func toNull(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *d, Valid: true}
}

func (s *Store) Create(ctx context.Context, lead *Lead, initial HistoryEntry) error {
	err := querier.WithTx(ctx, s.DB, func(tx pgx.Tx) error {
		if err := tx.QueryRow(ctx, `
      INSERT INTO leads (lead_code, company, contact_name, email, phone, industry, source, priority,
        potential_value, client_quotation, final_quotation, interested_platforms, sla_agreed, nda_signed,
        status, created_by)
      VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)
      RETURNING id, created_at
    `, lead.LeadCode, lead.Company, lead.ContactName, lead.Email, lead.Phone, lead.Industry, lead.Source, string(lead.Priority),
			lead.PotentialValue, toNull(lead.ClientQuotation), toNull(lead.FinalQuotation), lead.InterestedPlatforms,
			lead.SLAAgreed, lead.NDASigned, string(lead.Status), lead.CreatedBy,
		).Scan(&lead.ID, &lead.CreatedAt); err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == "23505" {
				return ErrDuplicateLeadCode
			}
			return fmt.Errorf("insert lead: %w", err)
		}
		return insertHistory(ctx, tx, lead.ID, initial)
	})
	if err != nil {
		return err
	}
	lead.StatusHistory = []HistoryEntry{initial}
	return nil
}

func insertHistory(ctx context.Context, q querier.Querier, leadID string, entry HistoryEntry) error {
	_, err := q.Exec(ctx, `
    INSERT INTO lead_status_history (lead_id, status, changed_by, changed_at, reason)
    VALUES ($1,$2,$3,$4,$5)
  `, leadID, string(entry.Status), entry.ChangedBy, entry.ChangedAt, entry.Reason)
	if err != nil {
		return fmt.Errorf("insert status history: %w", err)
	}
	return nil
}

func insertNote(ctx context.Context, q querier.Querier, leadID string, note *Note) error {
	return q.QueryRow(ctx, `
    INSERT INTO lead_notes (lead_id, author_id, body, created_at)
    VALUES ($1,$2,$3,$4)
    RETURNING id
  `, leadID, note.AuthorID, note.Body, note.CreatedAt).Scan(&note.ID)
}

func (s *Store) Get(ctx context.Context, id string) (*Lead, error) {
	return s.load(ctx, s.DB, id)
}

// load reads a lead with its history and notes.
func (s *Store) load(ctx context.Context, q querier.Querier, id string) (*Lead, error) {
	lead, err := scanLead(q.QueryRow(ctx, "SELECT "+leadColumns+" FROM leads WHERE id = $1", id))
	if err != nil {
		return nil, err
	}

	rows, err := q.Query(ctx, `
    SELECT status, changed_by, changed_at, reason
    FROM lead_status_history WHERE lead_id = $1 ORDER BY id
  `, id)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var h HistoryEntry
		if err := rows.Scan(&h.Status, &h.ChangedBy, &h.ChangedAt, &h.Reason); err != nil {
			rows.Close()
			return nil, err
		}
		lead.StatusHistory = append(lead.StatusHistory, h)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = q.Query(ctx, `
    SELECT id, author_id, body, created_at
    FROM lead_notes WHERE lead_id = $1 ORDER BY created_at, id
  `, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var n Note
		if err := rows.Scan(&n.ID, &n.AuthorID, &n.Body, &n.CreatedAt); err != nil {
			return nil, err
		}
		lead.Notes = append(lead.Notes, n)
	}
	return lead, rows.Err()
}

func lockLead(ctx context.Context, tx pgx.Tx, id string) (*Lead, error) {
	return scanLead(tx.QueryRow(ctx, "SELECT "+leadColumns+" FROM leads WHERE id = $1 FOR UPDATE", id))
}

func (s *Store) List(ctx context.Context, filter ListFilter) ([]*Lead, error) {
	var conds []string
	var args []any
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.AssignedTo != "" {
		args = append(args, filter.AssignedTo)
		conds = append(conds, fmt.Sprintf("assigned_to = $%d", len(args)))
	}
	if filter.VisibleTo != "" {
		args = append(args, filter.VisibleTo)
		conds = append(conds, fmt.Sprintf("(created_by = $%d OR assigned_to = $%d)", len(args), len(args)))
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		conds = append(conds, fmt.Sprintf("(company ILIKE $%d OR contact_name ILIKE $%d OR lead_code ILIKE $%d)", len(args), len(args), len(args)))
	}

	query := "SELECT " + leadColumns + " FROM leads"
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, filter.Limit, filter.Offset)

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Lead
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, lead)
	}
	return out, rows.Err()
}

func (s *Store) ChangeStatus(ctx context.Context, id string, authorize func(*Lead) error, entry HistoryEntry, note func(from Status) string) (*Lead, Status, error) {
	var out *Lead
	var previous Status
	err := querier.WithTx(ctx, s.DB, func(tx pgx.Tx) error {
		lead, err := lockLead(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := authorize(lead); err != nil {
			return err
		}
		previous = lead.Status

		if _, err := tx.Exec(ctx, "UPDATE leads SET status = $2, last_activity = $3 WHERE id = $1", id, string(entry.Status), entry.ChangedAt); err != nil {
			return fmt.Errorf("update lead status: %w", err)
		}
		if err := insertHistory(ctx, tx, id, entry); err != nil {
			return err
		}
		if err := insertNote(ctx, tx, id, &Note{AuthorID: entry.ChangedBy, Body: note(previous), CreatedAt: entry.ChangedAt}); err != nil {
			return fmt.Errorf("insert timeline note: %w", err)
		}

		out, err = s.load(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, "", err
	}
	return out, previous, nil
}

func (s *Store) Assign(ctx context.Context, ids []string, assignTo, assignedBy string, at time.Time) ([]*Lead, error) {
	var out []*Lead
	err := querier.WithTx(ctx, s.DB, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, "SELECT id, status FROM leads WHERE id = ANY($1::uuid[]) ORDER BY id FOR UPDATE", ids)
		if err != nil {
			return err
		}
		found := map[string]Status{}
		for rows.Next() {
			var id string
			var status Status
			if err := rows.Scan(&id, &status); err != nil {
				rows.Close()
				return err
			}
			found[id] = status
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return err
		}

		var missing []string
		for _, id := range ids {
			if _, ok := found[id]; !ok {
				missing = append(missing, id)
			}
		}
		if len(missing) > 0 {
			return &MissingLeadsError{IDs: missing}
		}

		for _, id := range ids {
			if _, err := tx.Exec(ctx, `
        UPDATE leads SET assigned_to = $2, assigned_by = $3, assigned_date = $4, last_activity = $4
        WHERE id = $1
      `, id, assignTo, assignedBy, at); err != nil {
				return fmt.Errorf("assign lead: %w", err)
			}
			entry := HistoryEntry{Status: found[id], ChangedBy: assignedBy, ChangedAt: at, Reason: ReasonAssigned}
			if err := insertHistory(ctx, tx, id, entry); err != nil {
				return err
			}
			lead, err := scanLead(tx.QueryRow(ctx, "SELECT "+leadColumns+" FROM leads WHERE id = $1", id))
			if err != nil {
				return err
			}
			out = append(out, lead)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) AddNote(ctx context.Context, id string, authorize func(*Lead) error, note *Note) error {
	return querier.WithTx(ctx, s.DB, func(tx pgx.Tx) error {
		lead, err := lockLead(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := authorize(lead); err != nil {
			return err
		}
		if err := insertNote(ctx, tx, id, note); err != nil {
			return fmt.Errorf("insert note: %w", err)
		}
		_, err = tx.Exec(ctx, "UPDATE leads SET last_activity = $2 WHERE id = $1", id, note.CreatedAt)
		return err
	})
}

func (s *Store) Update(ctx context.Context, id string, authorize func(*Lead) error, apply func(*Lead), at time.Time) (*Lead, error) {
	var out *Lead
	err := querier.WithTx(ctx, s.DB, func(tx pgx.Tx) error {
		lead, err := lockLead(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := authorize(lead); err != nil {
			return err
		}
		apply(lead)
		if _, err := tx.Exec(ctx, `
      UPDATE leads
      SET company = $2, contact_name = $3, email = $4, phone = $5, industry = $6, source = $7,
          priority = $8, potential_value = $9, client_quotation = $10, final_quotation = $11,
          interested_platforms = $12, sla_agreed = $13, nda_signed = $14, last_activity = $15
      WHERE id = $1
    `, id, lead.Company, lead.ContactName, lead.Email, lead.Phone, lead.Industry, lead.Source,
			string(lead.Priority), lead.PotentialValue, toNull(lead.ClientQuotation), toNull(lead.FinalQuotation),
			lead.InterestedPlatforms, lead.SLAAgreed, lead.NDASigned, at); err != nil {
			return fmt.Errorf("update lead: %w", err)
		}
		out, err = s.load(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) PendingConversions(ctx context.Context, limit int) ([]string, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id FROM leads
    WHERE status = $1 AND converted_to_project = false
    ORDER BY last_activity NULLS FIRST
    LIMIT $2
  `, string(StatusPaid), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
