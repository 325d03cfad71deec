package holdings

import (
	"cmp"
	"slices"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/mtlprog/shareholders/internal/domain"
)

// DedupKey identifies duplicate entries: same agent name and same share count.
// The agent id is not part of the key, so distinct agents with equal name and share
// count collapse into one row.
type DedupKey struct {
	AgentName      string
	NumberOfShares string
}

// RowKey keys a joined row; numeric share counts compare by value, other text verbatim.
func RowKey(r domain.HoldingRow) DedupKey {
	return DedupKey{AgentName: r.AgentName, NumberOfShares: domain.NormalizeNumber(r.NumberOfShares)}
}

// Deduplicate keeps the first row for each RowKey, preserving order, and returns the number removed.
func Deduplicate(rows []domain.HoldingRow) ([]domain.HoldingRow, int) {
	seen := make(map[DedupKey]bool, len(rows))
	kept := make([]domain.HoldingRow, 0, len(rows))
	for _, row := range rows {
		k := RowKey(row)
		if seen[k] {
			continue
		}
		seen[k] = true
		kept = append(kept, row)
	}
	return kept, len(rows) - len(kept)
}

// CleanResult is the outcome of numeric coercion of raw rows.
type CleanResult struct {
	Rows               []domain.FlattenedHolding
	InvalidShares      int
	InvalidPercentages int
	MissingCountry     int
}

// Clean converts raw rows to parsed rows, dropping those whose share count or share percentage
// is not numeric. Rows without a country code cannot be grouped and are dropped as well.
// Votes are parsed leniently; they do not take part in the summary.
func Clean(rows []domain.HoldingRow) CleanResult {
	var result CleanResult
	result.Rows = make([]domain.FlattenedHolding, 0, len(rows))

	for _, r := range rows {
		shares, sharesOK := domain.ParseNumeric(r.NumberOfShares)
		pct, pctOK := domain.ParseNumeric(r.PercentageOfShares)
		if !sharesOK {
			result.InvalidShares++
		}
		if !pctOK {
			result.InvalidPercentages++
		}
		if !sharesOK || !pctOK {
			continue
		}
		if r.CountryCode == "" {
			result.MissingCountry++
			continue
		}

		votes, _ := domain.ParseNumeric(r.NumberOfVotes)
		votesPct, _ := domain.ParseNumeric(r.PercentageOfVotes)
		result.Rows = append(result.Rows, domain.FlattenedHolding{
			AgentID:            r.AgentID,
			AgentName:          r.AgentName,
			CountryCode:        r.CountryCode,
			NumberOfShares:     shares,
			PercentageOfShares: pct,
			NumberOfVotes:      votes,
			PercentageOfVotes:  votesPct,
			Date:               r.Date,
		})
	}
	return result
}

// Aggregate groups rows by country code, summing shares and percentages and counting rows.
// Output is sorted by total shares descending, then country code ascending; percentages
// are rounded to 2 decimals half-to-even.
func Aggregate(rows []domain.FlattenedHolding) []domain.CountryAggregate {
	groups := lo.GroupBy(rows, func(h domain.FlattenedHolding) string { return h.CountryCode })

	result := make([]domain.CountryAggregate, 0, len(groups))
	for country, members := range groups {
		pct := lo.Reduce(members, func(acc decimal.Decimal, h domain.FlattenedHolding, _ int) decimal.Decimal {
			return acc.Add(h.PercentageOfShares)
		}, decimal.Zero)

		result = append(result, domain.CountryAggregate{
			CountryCode:             country,
			TotalNumberOfShares:     TotalShares(members),
			TotalPercentageOfShares: domain.RoundPercentage(pct),
			NumberOfAgents:          len(members),
		})
	}

	slices.SortFunc(result, func(a, b domain.CountryAggregate) int {
		if c := b.TotalNumberOfShares.Cmp(a.TotalNumberOfShares); c != 0 {
			return c
		}
		return cmp.Compare(a.CountryCode, b.CountryCode)
	})
	return result
}

// TotalShares sums the share counts of joined rows.
func TotalShares(rows []domain.FlattenedHolding) decimal.Decimal {
	return lo.Reduce(rows, func(acc decimal.Decimal, h domain.FlattenedHolding, _ int) decimal.Decimal {
		return acc.Add(h.NumberOfShares)
	}, decimal.Zero)
}
