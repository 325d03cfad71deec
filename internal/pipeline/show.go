package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"time"

	"github.com/mtlprog/shareholders/internal/report"
	"github.com/mtlprog/shareholders/internal/store"
)

// RunReader reads stored report runs.
type RunReader interface {
	Latest(ctx context.Context, companyID string) (*store.Run, error)
}

// ShowLatest prints the most recent stored summary for the company.
func ShowLatest(ctx context.Context, runs RunReader, companyID string, out io.Writer) error {
	run, err := runs.Latest(ctx, companyID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("no stored report for company %s: %w", companyID, err)
		}
		return fmt.Errorf("loading latest report: %w", err)
	}

	fmt.Fprintf(out, "Report #%d for %s generated %s: %d holdings, %d duplicates removed.\n\n",
		run.ID, run.CompanyID, run.GeneratedAt.UTC().Format(time.RFC3339), run.HoldingsCount, run.DuplicatesRemoved)
	return report.SummaryTable(run.Countries).Render(out)
}

// UserMessage turns an aggregation failure into the single line shown to the user.
func UserMessage(err error, inputPath string) string {
	var pathErr *fs.PathError
	switch {
	case errors.As(err, &pathErr) && pathErr.Path == inputPath && errors.Is(err, fs.ErrNotExist):
		return fmt.Sprintf("Error: The file '%s' does not exist.", inputPath)
	case errors.Is(err, report.ErrEmptyInput):
		return "Error: The provided CSV file is empty."
	default:
		return fmt.Sprintf("An error occurred: %v", err)
	}
}
