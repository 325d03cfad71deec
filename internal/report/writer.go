package report

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/mtlprog/shareholders/internal/domain"
)

// Writer publishes a finished report to an external destination.
type Writer interface {
	Write(ctx context.Context, r domain.Report) error
}

var (
	summaryHeader  = []any{"countryCode", "totalNumberOfShares", "totalPercentageOfShares", "numberOfAgents"}
	holdingsHeader = []any{"agentId", "agentName", "countryCode", "numberOfShares", "percentageOfShares", "numberOfVotes", "percentageOfVotes", "date"}
)

// buildSummaryValues builds spreadsheet rows for the country summary, header first.
func buildSummaryValues(countries []domain.CountryAggregate) [][]any {
	data := make([][]any, 0, len(countries)+1)
	data = append(data, summaryHeader)
	for _, c := range countries {
		data = append(data, []any{
			c.CountryCode,
			toFloat(c.TotalNumberOfShares),
			toFloat(domain.RoundPercentage(c.TotalPercentageOfShares)),
			c.NumberOfAgents,
		})
	}
	return data
}

// buildHoldingsValues builds spreadsheet rows for the joined holdings, header first.
func buildHoldingsValues(holdings []domain.FlattenedHolding) [][]any {
	data := make([][]any, 0, len(holdings)+1)
	data = append(data, holdingsHeader)
	for _, h := range holdings {
		data = append(data, []any{
			h.AgentID,
			h.AgentName,
			h.CountryCode,
			toFloat(h.NumberOfShares),
			toFloat(h.PercentageOfShares),
			toFloat(h.NumberOfVotes),
			toFloat(h.PercentageOfVotes),
			h.Date,
		})
	}
	return data
}

func toFloat(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}
