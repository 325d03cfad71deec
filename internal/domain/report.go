package domain

import "time"

// Report is the result of one pipeline run: the joined holdings and the per-country summary.
type Report struct {
	CompanyID         string             `json:"companyId"`
	GeneratedAt       time.Time          `json:"generatedAt"`
	Holdings          []FlattenedHolding `json:"holdings"`
	Countries         []CountryAggregate `json:"countries"`
	DuplicatesRemoved int                `json:"duplicatesRemoved"`
}
