// Package pipeline runs the holdings ETL: fetch and join holdings with agent details,
// then deduplicate, summarise by country and write the results.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/mtlprog/shareholders/internal/domain"
	"github.com/mtlprog/shareholders/internal/holdings"
	"github.com/mtlprog/shareholders/internal/report"
	"github.com/mtlprog/shareholders/internal/savr"
)

const sampleRows = 5

// Source provides holdings and agent records from the upstream API.
type Source interface {
	CollectHoldings(ctx context.Context, companyID string, pages, pageSize int, policy savr.Policy) ([]domain.HoldingRecord, error)
	FetchAgents(ctx context.Context, ids []string, policy savr.Policy) ([]domain.AgentRecord, error)
}

// Options configures a pipeline run.
type Options struct {
	CompanyID   string
	Pages       int
	PageSize    int
	Policy      savr.Policy
	JoinedPath  string
	SummaryPath string
}

// Service orchestrates fetching, joining and summarising holdings.
// Progress messages for the user go to out; diagnostics go to slog.
type Service struct {
	source Source
	opts   Options
	out    io.Writer
	sinks  []report.Writer
	now    func() time.Time
}

// NewService creates a pipeline Service. Sinks receive every finished report.
func NewService(source Source, opts Options, out io.Writer, sinks ...report.Writer) *Service {
	return &Service{
		source: source,
		opts:   opts,
		out:    out,
		sinks:  sinks,
		now:    time.Now,
	}
}

// Collect fetches holdings and agents and returns the joined rows in arrival order.
func (s *Service) Collect(ctx context.Context) ([]domain.HoldingRow, error) {
	records, err := s.source.CollectHoldings(ctx, s.opts.CompanyID, s.opts.Pages, s.opts.PageSize, s.opts.Policy)
	if err != nil {
		return nil, fmt.Errorf("collecting holdings: %w", err)
	}

	ids := holdings.ExtractAgentIDs(records)
	agents, err := s.source.FetchAgents(ctx, ids, s.opts.Policy)
	if err != nil {
		return nil, fmt.Errorf("fetching agents: %w", err)
	}

	rows := holdings.Enrich(holdings.Flatten(records), agents)
	slog.Info("holdings joined", "records", len(records), "agentIds", len(ids), "agents", len(agents), "rows", len(rows))
	return rows, nil
}

// Fetch collects the joined rows and writes them to the joined CSV.
func (s *Service) Fetch(ctx context.Context) ([]domain.HoldingRow, error) {
	rows, err := s.Collect(ctx)
	if err != nil {
		return nil, err
	}
	if err := report.WriteHoldingsCSV(s.opts.JoinedPath, rows); err != nil {
		return nil, fmt.Errorf("writing joined holdings: %w", err)
	}
	fmt.Fprintf(s.out, "The latest data has been saved to '%s'.\n", s.opts.JoinedPath)
	return rows, nil
}

// Run executes the whole pipeline in memory: fetch, join, deduplicate, aggregate and write.
func (s *Service) Run(ctx context.Context) (domain.Report, error) {
	rows, err := s.Fetch(ctx)
	if err != nil {
		return domain.Report{}, err
	}
	return s.summarise(ctx, rows)
}

// AggregateFile summarises a joined holdings CSV at inputPath into the summary CSV.
// Read failures are returned unwrapped so callers can match report.ErrEmptyInput,
// *report.MissingColumnsError and os.ErrNotExist.
func (s *Service) AggregateFile(ctx context.Context, inputPath string) (domain.Report, error) {
	rows, err := report.ReadHoldingsCSV(inputPath)
	if err != nil {
		return domain.Report{}, err
	}
	fmt.Fprintf(s.out, "Loaded data from '%s' successfully.\n", inputPath)
	return s.summarise(ctx, rows)
}

// summarise prints a sample of the joined rows, then deduplicates, drops rows that cannot be
// summed and aggregates what remains.
func (s *Service) summarise(ctx context.Context, rows []domain.HoldingRow) (domain.Report, error) {
	fmt.Fprintln(s.out, "\nSample Data:")
	if err := report.RowsTable(rows[:min(sampleRows, len(rows))]).Render(s.out); err != nil {
		return domain.Report{}, fmt.Errorf("rendering sample: %w", err)
	}

	kept, removed := holdings.Deduplicate(rows)
	s.printDuplicates(removed, len(kept))

	cleaned := holdings.Clean(kept)
	if cleaned.InvalidShares > 0 || cleaned.InvalidPercentages > 0 {
		fmt.Fprintf(s.out, "Found %d rows with invalid 'numberOfShares' and %d rows with invalid 'percentageOfShares'. These will be removed.\n",
			cleaned.InvalidShares, cleaned.InvalidPercentages)
		slog.Warn("dropped non-numeric rows",
			"invalidShares", cleaned.InvalidShares, "invalidPercentages", cleaned.InvalidPercentages, "remaining", len(cleaned.Rows))
	}
	if cleaned.MissingCountry > 0 {
		slog.Warn("dropped rows without country code", "count", cleaned.MissingCountry)
	}

	rep := s.newReport(cleaned.Rows, removed)
	if err := s.finish(ctx, rep); err != nil {
		return domain.Report{}, err
	}
	return rep, nil
}

func (s *Service) newReport(rows []domain.FlattenedHolding, removed int) domain.Report {
	return domain.Report{
		CompanyID:         s.opts.CompanyID,
		GeneratedAt:       s.now().UTC(),
		Holdings:          rows,
		Countries:         holdings.Aggregate(rows),
		DuplicatesRemoved: removed,
	}
}

func (s *Service) printDuplicates(removed, remaining int) {
	if removed == 0 {
		fmt.Fprintln(s.out, "No duplicate entries found.")
		return
	}
	fmt.Fprintf(s.out, "Found %d duplicate entries. Removing duplicates...\n", removed)
	fmt.Fprintf(s.out, "Data cleaned. %d entries remaining.\n", remaining)
}

// finish renders the summary, writes the summary CSV and publishes to the sinks.
func (s *Service) finish(ctx context.Context, rep domain.Report) error {
	fmt.Fprintln(s.out, "\nAggregated Total Shares and Summed Percentages by Country:")
	if err := report.SummaryTable(rep.Countries).Render(s.out); err != nil {
		return fmt.Errorf("rendering summary: %w", err)
	}

	if err := report.WriteSummaryCSV(s.opts.SummaryPath, rep.Countries); err != nil {
		return fmt.Errorf("writing summary: %w", err)
	}
	fmt.Fprintf(s.out, "\nAggregated data has been saved to '%s'.\n", s.opts.SummaryPath)
	slog.Info("summary written", "path", s.opts.SummaryPath, "countries", len(rep.Countries), "total", holdings.TotalShares(rep.Holdings))

	return s.publish(ctx, rep)
}

// publish hands the report to every sink; a failing sink does not stop the others.
func (s *Service) publish(ctx context.Context, rep domain.Report) error {
	var errs []error
	for _, sink := range s.sinks {
		if err := sink.Write(ctx, rep); err != nil {
			slog.Error("report sink failed", "sink", fmt.Sprintf("%T", sink), "error", err)
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("publishing report: %w", errors.Join(errs...))
	}
	return nil
}
