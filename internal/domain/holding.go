package domain

import (
	"bytes"
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Unknown is stored as agent name and country code when no agent record matches a holding.
const Unknown = "Unknown"

// Number is a numeric field as the API sent it. Numbers keep their literal digits, strings
// are unquoted and null is empty, so a value that is not numeric reaches the CSV unchanged
// and is only dropped when rows are cleaned.
type Number string

func (n *Number) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*n = ""
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*n = Number(s)
	default:
		*n = Number(data)
	}
	return nil
}

func (n Number) String() string {
	return string(n)
}

// HoldingSnapshot is one dated ownership entry of a holding.
type HoldingSnapshot struct {
	NumberOfShares     Number `json:"numberOfShares"`
	PercentageOfShares Number `json:"percentageOfShares"`
	NumberOfVotes      Number `json:"numberOfVotes"`
	PercentageOfVotes  Number `json:"percentageOfVotes"`
	Date               string `json:"date"`
}

// HoldingRecord represents one element of the "data" array returned by the holdings endpoint.
// Holdings is ordered newest-first by the API; AgentID is nil when the field is absent.
type HoldingRecord struct {
	AgentID  *string           `json:"agentId"`
	Holdings []HoldingSnapshot `json:"holdings"`
}

// AgentRecord represents an agent returned by the agents endpoint.
type AgentRecord struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	CountryCode string `json:"countryCode"`
}

// FlattenedHolding is a joined holding whose share and vote figures parsed as numbers.
type FlattenedHolding struct {
	AgentID            string          `json:"agentId"`
	AgentName          string          `json:"agentName"`
	CountryCode        string          `json:"countryCode"`
	NumberOfShares     decimal.Decimal `json:"numberOfShares"`
	PercentageOfShares decimal.Decimal `json:"percentageOfShares"`
	NumberOfVotes      decimal.Decimal `json:"numberOfVotes"`
	PercentageOfVotes  decimal.Decimal `json:"percentageOfVotes"`
	Date               string          `json:"date"`
}

// CountryAggregate holds per-country share totals.
type CountryAggregate struct {
	CountryCode             string          `json:"countryCode"`
	TotalNumberOfShares     decimal.Decimal `json:"totalNumberOfShares"`
	TotalPercentageOfShares decimal.Decimal `json:"totalPercentageOfShares"`
	NumberOfAgents          int             `json:"numberOfAgents"`
}

// HoldingRow is an unparsed joined holding, as fetched or as read from the joined CSV.
// Numeric columns stay as text until cleaning so that non-numeric values can be counted and dropped.
type HoldingRow struct {
	AgentID            string `csv:"agentId"`
	AgentName          string `csv:"agentName"`
	CountryCode        string `csv:"countryCode"`
	NumberOfShares     string `csv:"numberOfShares"`
	PercentageOfShares string `csv:"percentageOfShares"`
	NumberOfVotes      string `csv:"numberOfVotes"`
	PercentageOfVotes  string `csv:"percentageOfVotes"`
	Date               string `csv:"date"`
}
