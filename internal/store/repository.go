// Package store persists report runs in PostgreSQL.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mtlprog/shareholders/internal/domain"
)

// ErrNotFound indicates that no report run exists for the company.
var ErrNotFound = errors.New("report run not found")

// Run is a stored report header with its country summary.
type Run struct {
	ID                int64                     `json:"id"`
	CompanyID         string                    `json:"companyId"`
	GeneratedAt       time.Time                 `json:"generatedAt"`
	HoldingsCount     int                       `json:"holdingsCount"`
	DuplicatesRemoved int                       `json:"duplicatesRemoved"`
	Countries         []domain.CountryAggregate `json:"countries"`
}

// Repository defines persistent storage for report runs.
type Repository interface {
	Save(ctx context.Context, r domain.Report) (int64, error)
	Latest(ctx context.Context, companyID string) (*Run, error)
}

// PgRepository implements Repository with PostgreSQL.
type PgRepository struct {
	pool *pgxpool.Pool
}

// NewPgRepository creates a new PostgreSQL report repository.
func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

// Save stores the run header, summary rows and holdings in one transaction.
func (r *PgRepository) Save(ctx context.Context, rep domain.Report) (int64, error) {
	var runID int64
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx,
			`INSERT INTO report_runs (company_id, generated_at, holdings_count, duplicates_removed)
			 VALUES ($1, $2, $3, $4)
			 RETURNING id`,
			rep.CompanyID, rep.GeneratedAt, len(rep.Holdings), rep.DuplicatesRemoved).Scan(&runID)
		if err != nil {
			return fmt.Errorf("inserting report run: %w", err)
		}

		batch := &pgx.Batch{}
		for i, c := range rep.Countries {
			batch.Queue(
				`INSERT INTO country_summaries
				 (run_id, position, country_code, total_shares, total_percentage, number_of_agents)
				 VALUES ($1, $2, $3, $4, $5, $6)`,
				runID, i, c.CountryCode, c.TotalNumberOfShares, c.TotalPercentageOfShares, c.NumberOfAgents)
		}
		for i, h := range rep.Holdings {
			batch.Queue(
				`INSERT INTO agent_holdings
				 (run_id, position, agent_id, agent_name, country_code,
				  number_of_shares, percentage_of_shares, number_of_votes, percentage_of_votes, snapshot_date)
				 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
				runID, i, h.AgentID, h.AgentName, h.CountryCode,
				h.NumberOfShares, h.PercentageOfShares, h.NumberOfVotes, h.PercentageOfVotes, h.Date)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("inserting report rows: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("saving report run: %w", err)
	}
	return runID, nil
}

// Write implements report.Writer.
func (r *PgRepository) Write(ctx context.Context, rep domain.Report) error {
	_, err := r.Save(ctx, rep)
	return err
}

// Latest returns the most recent run for the company with its summary in stored order.
func (r *PgRepository) Latest(ctx context.Context, companyID string) (*Run, error) {
	var run Run
	err := r.pool.QueryRow(ctx,
		`SELECT id, company_id, generated_at, holdings_count, duplicates_removed
		 FROM report_runs
		 WHERE company_id = $1
		 ORDER BY generated_at DESC, id DESC
		 LIMIT 1`, companyID).Scan(&run.ID, &run.CompanyID, &run.GeneratedAt, &run.HoldingsCount, &run.DuplicatesRemoved)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("getting latest report run: %w", err)
	}

	rows, err := r.pool.Query(ctx,
		`SELECT country_code, total_shares, total_percentage, number_of_agents
		 FROM country_summaries
		 WHERE run_id = $1
		 ORDER BY position`, run.ID)
	if err != nil {
		return nil, fmt.Errorf("listing country summaries: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var c domain.CountryAggregate
		if err := rows.Scan(&c.CountryCode, &c.TotalNumberOfShares, &c.TotalPercentageOfShares, &c.NumberOfAgents); err != nil {
			return nil, fmt.Errorf("scanning country summary: %w", err)
		}
		run.Countries = append(run.Countries, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating country summaries: %w", err)
	}
	return &run, nil
}
