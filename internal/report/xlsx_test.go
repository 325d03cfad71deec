package report

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/mtlprog/shareholders/internal/domain"
)

func sampleReport() domain.Report {
	return domain.Report{
		CompanyID: "c1",
		Holdings: []domain.FlattenedHolding{
			{AgentID: "A1", AgentName: "Acme", CountryCode: "US", NumberOfShares: dec("100"), PercentageOfShares: dec("5"), Date: "2024-01-01"},
			{AgentID: "A2", AgentName: "Beta", CountryCode: "SE", NumberOfShares: dec("200"), PercentageOfShares: dec("10"), Date: "2024-01-01"},
		},
		Countries: []domain.CountryAggregate{
			{CountryCode: "SE", TotalNumberOfShares: dec("200"), TotalPercentageOfShares: dec("10"), NumberOfAgents: 1},
			{CountryCode: "US", TotalNumberOfShares: dec("100"), TotalPercentageOfShares: dec("5"), NumberOfAgents: 1},
		},
	}
}

func TestXLSXWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.xlsx")

	if err := NewXLSXWriter(path).Write(context.Background(), sampleReport()); err != nil {
		t.Fatalf("Write() error: %v", err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("OpenFile() error: %v", err)
	}
	defer f.Close()

	if got := f.GetSheetList(); len(got) != 2 || got[0] != countriesSheet || got[1] != holdingsSheet {
		t.Errorf("sheets = %v, want [Countries Holdings]", got)
	}

	countries, err := f.GetRows(countriesSheet)
	if err != nil {
		t.Fatalf("GetRows(countries) error: %v", err)
	}
	if len(countries) != 3 {
		t.Fatalf("country rows = %d, want 3", len(countries))
	}
	if countries[0][0] != "countryCode" || countries[1][0] != "SE" || countries[1][1] != "200" {
		t.Errorf("countries = %v", countries)
	}

	holdings, err := f.GetRows(holdingsSheet)
	if err != nil {
		t.Fatalf("GetRows(holdings) error: %v", err)
	}
	if len(holdings) != 3 || holdings[2][1] != "Beta" {
		t.Errorf("holdings = %v", holdings)
	}
}

func TestBuildSummaryValuesRoundsPercentages(t *testing.T) {
	values := buildSummaryValues([]domain.CountryAggregate{
		{CountryCode: "US", TotalNumberOfShares: dec("1"), TotalPercentageOfShares: dec("1.005"), NumberOfAgents: 1},
	})
	if len(values) != 2 {
		t.Fatalf("len = %d, want 2", len(values))
	}
	if got := values[1][2].(float64); got != 1 {
		t.Errorf("pct = %v, want 1 (half-to-even)", got)
	}
}
