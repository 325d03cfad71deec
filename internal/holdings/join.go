// Package holdings joins holding records with agent details and summarises share ownership by country.
package holdings

import (
	"log/slog"
	"slices"
	"time"

	"github.com/samber/lo"

	"github.com/mtlprog/shareholders/internal/domain"
)

// ExtractAgentIDs returns the unique agent ids of holdings that carry one, sorted ascending.
func ExtractAgentIDs(records []domain.HoldingRecord) []string {
	withID := lo.Filter(records, func(r domain.HoldingRecord, _ int) bool {
		return r.AgentID != nil
	})
	ids := lo.Uniq(lo.Map(withID, func(r domain.HoldingRecord, _ int) string {
		return *r.AgentID
	}))
	slices.Sort(ids)
	return ids
}

// LatestSnapshot returns the first snapshot of a holding, which the API orders newest-first.
// It logs a warning when a later snapshot carries a newer date but still returns index 0.
func LatestSnapshot(record domain.HoldingRecord) (domain.HoldingSnapshot, bool) {
	if len(record.Holdings) == 0 {
		return domain.HoldingSnapshot{}, false
	}
	latest := record.Holdings[0]

	if first, ok := parseDate(latest.Date); ok {
		for _, s := range record.Holdings[1:] {
			if d, ok := parseDate(s.Date); ok && d.After(first) {
				slog.Warn("snapshots not sorted newest-first, using first entry",
					"agentId", lo.FromPtr(record.AgentID), "first", latest.Date, "newer", s.Date)
				break
			}
		}
	}
	return latest, true
}

// Flatten reduces every holding with at least one snapshot to a single row tagged with its agent id.
// Holdings without snapshots are dropped. Figures are copied as received.
func Flatten(records []domain.HoldingRecord) []domain.HoldingRow {
	flat := make([]domain.HoldingRow, 0, len(records))
	for _, r := range records {
		latest, ok := LatestSnapshot(r)
		if !ok {
			continue
		}
		flat = append(flat, domain.HoldingRow{
			AgentID:            lo.FromPtr(r.AgentID),
			NumberOfShares:     latest.NumberOfShares.String(),
			PercentageOfShares: latest.PercentageOfShares.String(),
			NumberOfVotes:      latest.NumberOfVotes.String(),
			PercentageOfVotes:  latest.PercentageOfVotes.String(),
			Date:               latest.Date,
		})
	}
	if dropped := len(records) - len(flat); dropped > 0 {
		slog.Info("dropped holdings without snapshots", "count", dropped)
	}
	return flat
}

// Enrich copies agent name and country code onto each row, using domain.Unknown when the
// agent is missing or the field is empty. Duplicate agent ids resolve to the last record.
func Enrich(rows []domain.HoldingRow, agents []domain.AgentRecord) []domain.HoldingRow {
	byID := lo.KeyBy(agents, func(a domain.AgentRecord) string { return a.ID })

	enriched := make([]domain.HoldingRow, len(rows))
	for i, row := range rows {
		agent, ok := byID[row.AgentID]
		row.AgentName = domain.Unknown
		row.CountryCode = domain.Unknown
		if ok {
			row.AgentName = lo.CoalesceOrEmpty(agent.Name, domain.Unknown)
			row.CountryCode = lo.CoalesceOrEmpty(agent.CountryCode, domain.Unknown)
		}
		enriched[i] = row
	}
	return enriched
}

var dateLayouts = []string{time.DateOnly, time.RFC3339, time.RFC3339Nano}

func parseDate(s string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
