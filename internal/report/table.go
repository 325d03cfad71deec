package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/mtlprog/shareholders/internal/domain"
)

// Align is the horizontal alignment of a table column.
type Align int

const (
	AlignLeft Align = iota
	AlignRight
)

// Table is a plain-text grid drawn with +---+ borders.
type Table struct {
	Headers []string
	Align   []Align
	Rows    [][]string
}

// Render writes the table to w. Columns without an explicit alignment are left-aligned;
// a header takes the alignment of its column.
func (t Table) Render(w io.Writer) error {
	tw := table.NewWriter()
	tw.Style().Format.Header = text.FormatDefault
	tw.AppendHeader(toRow(t.Headers))
	for _, r := range t.Rows {
		tw.AppendRow(toRow(r))
	}

	configs := make([]table.ColumnConfig, 0, len(t.Headers))
	for i := range t.Headers {
		align := text.AlignLeft
		if i < len(t.Align) && t.Align[i] == AlignRight {
			align = text.AlignRight
		}
		configs = append(configs, table.ColumnConfig{Number: i + 1, Align: align, AlignHeader: align})
	}
	tw.SetColumnConfigs(configs)

	_, err := fmt.Fprintln(w, tw.Render())
	return err
}

func toRow(cells []string) table.Row {
	row := make(table.Row, len(cells))
	for i, c := range cells {
		row[i] = c
	}
	return row
}

// SummaryTable lays out country aggregates: country code left, numbers right.
func SummaryTable(countries []domain.CountryAggregate) Table {
	rows := make([][]string, 0, len(countries))
	for _, c := range countries {
		rows = append(rows, []string{
			c.CountryCode,
			c.TotalNumberOfShares.String(),
			domain.FormatPercentage(c.TotalPercentageOfShares),
			strconv.Itoa(c.NumberOfAgents),
		})
	}
	return Table{
		Headers: []string{"countryCode", "totalNumberOfShares", "totalPercentageOfShares", "numberOfAgents"},
		Align:   []Align{AlignLeft, AlignRight, AlignRight, AlignRight},
		Rows:    rows,
	}
}

// RowsTable lays out raw CSV rows as read, without parsing numbers.
func RowsTable(rows []domain.HoldingRow) Table {
	cells := make([][]string, 0, len(rows))
	for _, r := range rows {
		cells = append(cells, []string{
			r.AgentName,
			r.CountryCode,
			r.NumberOfShares,
			r.PercentageOfShares,
			r.Date,
		})
	}
	return Table{
		Headers: []string{"agentName", "countryCode", "numberOfShares", "percentageOfShares", "date"},
		Align:   []Align{AlignLeft, AlignLeft, AlignRight, AlignRight, AlignLeft},
		Rows:    cells,
	}
}
