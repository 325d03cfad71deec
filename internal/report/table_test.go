package report

import (
	"bytes"
	"strings"
	"testing"

	"github.com/mtlprog/shareholders/internal/domain"
)

func TestSummaryTableRender(t *testing.T) {
	countries := []domain.CountryAggregate{
		{CountryCode: "SE", TotalNumberOfShares: dec("200"), TotalPercentageOfShares: dec("10"), NumberOfAgents: 1},
		{CountryCode: "US", TotalNumberOfShares: dec("150"), TotalPercentageOfShares: dec("7.5"), NumberOfAgents: 2},
	}

	var buf bytes.Buffer
	if err := SummaryTable(countries).Render(&buf); err != nil {
		t.Fatalf("Render() error: %v", err)
	}

	want := "" +
		"+-------------+---------------------+-------------------------+----------------+\n" +
		"| countryCode | totalNumberOfShares | totalPercentageOfShares | numberOfAgents |\n" +
		"+-------------+---------------------+-------------------------+----------------+\n" +
		"| SE          |                 200 |                   10.00 |              1 |\n" +
		"| US          |                 150 |                    7.50 |              2 |\n" +
		"+-------------+---------------------+-------------------------+----------------+\n"
	if buf.String() != want {
		t.Errorf("Render() =\n%s\nwant\n%s", buf.String(), want)
	}
}

func TestTableWidensToLongestCell(t *testing.T) {
	table := Table{
		Headers: []string{"a", "n"},
		Align:   []Align{AlignLeft, AlignRight},
		Rows:    [][]string{{"Åland", "12345"}, {"x"}},
	}

	var buf bytes.Buffer
	if err := table.Render(&buf); err != nil {
		t.Fatalf("Render() error: %v", err)
	}

	want := "" +
		"+-------+-------+\n" +
		"| a     |     n |\n" +
		"+-------+-------+\n" +
		"| Åland | 12345 |\n" +
		"| x     |       |\n" +
		"+-------+-------+\n"
	if buf.String() != want {
		t.Errorf("Render() =\n%s\nwant\n%s", buf.String(), want)
	}
}

func TestEmptyTableRendersHeader(t *testing.T) {
	var buf bytes.Buffer
	if err := SummaryTable(nil).Render(&buf); err != nil {
		t.Fatalf("Render() error: %v", err)
	}
	if !strings.HasPrefix(buf.String(), "+-------------+") || !strings.Contains(buf.String(), "| countryCode |") {
		t.Errorf("Render() =\n%s\nwant bordered header only", buf.String())
	}
	if strings.Count(buf.String(), "|") != 5 {
		t.Errorf("Render() =\n%s\nwant a single header row", buf.String())
	}
}

func TestRowsTableKeepsRawValues(t *testing.T) {
	table := RowsTable([]domain.HoldingRow{{AgentName: "Acme", CountryCode: "US", NumberOfShares: "100.0", PercentageOfShares: "n/a"}})
	if table.Rows[0][2] != "100.0" || table.Rows[0][3] != "n/a" {
		t.Errorf("row = %v, want raw text", table.Rows[0])
	}
}
