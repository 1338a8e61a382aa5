package projects

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"crm/internal/domain/leads"
	"crm/internal/platform/querier"
)

type Store struct {
	DB querier.TxBeginner
}

func NewStore(db querier.TxBeginner) *Store {
	return &Store{DB: db}
}

const projectColumns = `id, project_code, name, lead_id, client_company, client_name, client_email, client_phone,
  budget_allocated, start_date, technologies, status, created_by, created_at`

func scanProject(row pgx.Row) (*Project, error) {
	var p Project
	if err := row.Scan(
		&p.ID, &p.ProjectCode, &p.Name, &p.LeadID, &p.Client.Company, &p.Client.Name, &p.Client.Email, &p.Client.Phone,
		&p.Budget.Allocated, &p.Timeline.StartDate, &p.Technologies, &p.Status, &p.CreatedBy, &p.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if p.Technologies == nil {
		p.Technologies = []string{}
	}
	return &p, nil
}

// ConvertLead flips converted_to_project first so that concurrent callers
// cannot both create a project; the loser sees zero rows and does nothing.
// A lead that has left paid since the conversion was triggered is not claimed.
func (s *Store) ConvertLead(ctx context.Context, leadID string, build func(*leads.Lead) *Project) (*Project, error) {
	var out *Project
	err := querier.WithTx(ctx, s.DB, func(tx pgx.Tx) error {
		var lead leads.Lead
		var finalQuote decimal.NullDecimal
		err := tx.QueryRow(ctx, `
      UPDATE leads SET converted_to_project = true
      WHERE id = $1 AND converted_to_project = false AND status = $2
      RETURNING id, company, contact_name, email, phone, potential_value, final_quotation, interested_platforms
    `, leadID, string(leads.StatusPaid)).Scan(&lead.ID, &lead.Company, &lead.ContactName, &lead.Email, &lead.Phone,
			&lead.PotentialValue, &finalQuote, &lead.InterestedPlatforms)
		if errors.Is(err, pgx.ErrNoRows) {
			var exists bool
			if err := tx.QueryRow(ctx, "SELECT EXISTS(SELECT 1 FROM leads WHERE id = $1)", leadID).Scan(&exists); err != nil {
				return err
			}
			if !exists {
				return leads.ErrNotFound
			}
			return nil
		}
		if err != nil {
			return fmt.Errorf("claim lead: %w", err)
		}
		if finalQuote.Valid {
			lead.FinalQuotation = &finalQuote.Decimal
		}

		project := build(&lead)
		if err := insertProject(ctx, tx, project); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, "UPDATE leads SET project_id = $2 WHERE id = $1", leadID, project.ID); err != nil {
			return fmt.Errorf("link lead to project: %w", err)
		}
		out = project
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func insertProject(ctx context.Context, q querier.Querier, p *Project) error {
	err := q.QueryRow(ctx, `
    INSERT INTO projects (project_code, name, lead_id, client_company, client_name, client_email, client_phone,
      budget_allocated, start_date, technologies, status, created_by)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
    RETURNING id, created_at
  `, p.ProjectCode, p.Name, p.LeadID, p.Client.Company, p.Client.Name, p.Client.Email, p.Client.Phone,
		p.Budget.Allocated, p.Timeline.StartDate, p.Technologies, string(p.Status), p.CreatedBy,
	).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" && strings.Contains(pgErr.ConstraintName, "project_code") {
			return ErrDuplicateCode
		}
		return fmt.Errorf("insert project: %w", err)
	}
	return nil
}

func (s *Store) Create(ctx context.Context, p *Project) error {
	return insertProject(ctx, s.DB, p)
}

func (s *Store) Get(ctx context.Context, id string) (*Project, error) {
	return scanProject(s.DB.QueryRow(ctx, "SELECT "+projectColumns+" FROM projects WHERE id = $1", id))
}

func (s *Store) List(ctx context.Context, filter ListFilter) ([]*Project, error) {
	var conds []string
	var args []any
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.LeadID != "" {
		args = append(args, filter.LeadID)
		conds = append(conds, fmt.Sprintf("lead_id = $%d", len(args)))
	}
	query := "SELECT " + projectColumns + " FROM projects"
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

	var out []*Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
