package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/mtlprog/shareholders/internal/domain"
	"github.com/mtlprog/shareholders/internal/report"
	"github.com/mtlprog/shareholders/internal/store"
)

type mockRuns struct {
	run *store.Run
	err error
}

func (m *mockRuns) Latest(_ context.Context, _ string) (*store.Run, error) {
	return m.run, m.err
}

func TestShowLatest(t *testing.T) {
	runs := &mockRuns{run: &store.Run{
		ID:                7,
		CompanyID:         "c1",
		GeneratedAt:       time.Date(2024, 2, 1, 12, 0, 0, 0, time.UTC),
		HoldingsCount:     3,
		DuplicatesRemoved: 1,
		Countries: []domain.CountryAggregate{
			{CountryCode: "SE", TotalNumberOfShares: dec("200"), TotalPercentageOfShares: dec("10"), NumberOfAgents: 1},
		},
	}}
	var out bytes.Buffer

	if err := ShowLatest(context.Background(), runs, "c1", &out); err != nil {
		t.Fatalf("ShowLatest() error: %v", err)
	}

	if !strings.HasPrefix(out.String(), "Report #7 for c1 generated 2024-02-01T12:00:00Z: 3 holdings, 1 duplicates removed.") {
		t.Errorf("output = %q", out.String())
	}
	if !strings.Contains(out.String(), "| SE          |                 200 |") {
		t.Errorf("output missing summary row:\n%s", out.String())
	}
}

func TestShowLatestNotFound(t *testing.T) {
	err := ShowLatest(context.Background(), &mockRuns{err: store.ErrNotFound}, "c1", &bytes.Buffer{})
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("ShowLatest() error = %v, want ErrNotFound", err)
	}
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"empty", fmt.Errorf("loading: %w", report.ErrEmptyInput), "Error: The provided CSV file is empty."},
		{"other", errors.New("disk on fire"), "An error occurred: disk on fire"},
		{"missing columns", &report.MissingColumnsError{Columns: []string{"countryCode"}}, "An error occurred: missing columns in CSV: countryCode"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := UserMessage(tt.err, "in.csv"); got != tt.want {
				t.Errorf("UserMessage() = %q, want %q", got, tt.want)
			}
		})
	}
}
