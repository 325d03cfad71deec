// Package report renders holdings and country summaries to CSV files, console tables,
// Excel workbooks, and Google Sheets.
package report

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/jszwec/csvutil"
	"github.com/shopspring/decimal"

	"github.com/mtlprog/shareholders/internal/domain"
)

// ErrEmptyInput is returned when a CSV file has no header row.
var ErrEmptyInput = errors.New("the provided CSV file is empty")

// MissingColumnsError reports required columns absent from a CSV header.
type MissingColumnsError struct {
	Columns []string
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("missing columns in CSV: %s", strings.Join(e.Columns, ", "))
}

// RequiredColumns must be present in a holdings CSV for it to be summarised.
var RequiredColumns = []string{"agentName", "countryCode", "numberOfShares", "percentageOfShares"}

// holdingRecord is the on-disk layout of the joined holdings CSV.
type holdingRecord struct {
	AgentID            string `csv:"agentId"`
	NumberOfShares     string `csv:"numberOfShares"`
	PercentageOfShares string `csv:"percentageOfShares"`
	NumberOfVotes      string `csv:"numberOfVotes"`
	PercentageOfVotes  string `csv:"percentageOfVotes"`
	Date               string `csv:"date"`
	AgentName          string `csv:"agentName"`
	CountryCode        string `csv:"countryCode"`
}

type summaryRecord struct {
	CountryCode             string `csv:"countryCode"`
	TotalNumberOfShares     string `csv:"totalNumberOfShares"`
	TotalPercentageOfShares string `csv:"totalPercentageOfShares"`
	NumberOfAgents          int    `csv:"numberOfAgents"`
}

type summaryInput struct {
	CountryCode             string          `csv:"countryCode"`
	TotalNumberOfShares     decimal.Decimal `csv:"totalNumberOfShares"`
	TotalPercentageOfShares decimal.Decimal `csv:"totalPercentageOfShares"`
	NumberOfAgents          int             `csv:"numberOfAgents"`
}

// WriteHoldingsCSV writes joined holdings with a header row and no index column.
// Figures are written as received, including values that are not numeric.
func WriteHoldingsCSV(path string, rows []domain.HoldingRow) error {
	records := make([]holdingRecord, 0, len(rows))
	for _, r := range rows {
		records = append(records, holdingRecord{
			AgentID:            r.AgentID,
			NumberOfShares:     r.NumberOfShares,
			PercentageOfShares: r.PercentageOfShares,
			NumberOfVotes:      r.NumberOfVotes,
			PercentageOfVotes:  r.PercentageOfVotes,
			Date:               r.Date,
			AgentName:          r.AgentName,
			CountryCode:        r.CountryCode,
		})
	}

	data, err := csvutil.Marshal(records)
	if err != nil {
		return fmt.Errorf("encoding holdings CSV: %w", err)
	}
	return writeFileAtomic(path, data)
}

// WriteSummaryCSV writes the country summary in the order given.
func WriteSummaryCSV(path string, countries []domain.CountryAggregate) error {
	records := make([]summaryRecord, 0, len(countries))
	for _, c := range countries {
		records = append(records, summaryRecord{
			CountryCode:             c.CountryCode,
			TotalNumberOfShares:     c.TotalNumberOfShares.String(),
			TotalPercentageOfShares: domain.FormatPercentage(c.TotalPercentageOfShares),
			NumberOfAgents:          c.NumberOfAgents,
		})
	}

	data, err := csvutil.Marshal(records)
	if err != nil {
		return fmt.Errorf("encoding summary CSV: %w", err)
	}
	return writeFileAtomic(path, data)
}

// ReadHoldingsCSV loads raw holding rows. Columns beyond the known ones are ignored.
// A missing file yields an error matching os.ErrNotExist, a file without a header
// yields ErrEmptyInput, and absent required columns yield *MissingColumnsError.
func ReadHoldingsCSV(path string) ([]domain.HoldingRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	dec, err := newDecoder(f)
	if err != nil {
		return nil, err
	}
	if missing := missingColumns(dec.Header(), RequiredColumns); len(missing) > 0 {
		return nil, &MissingColumnsError{Columns: missing}
	}

	var rows []domain.HoldingRow
	for {
		var row domain.HoldingRow
		if err := dec.Decode(&row); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("decoding %s: %w", path, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// ReadSummaryCSV loads a country summary written by WriteSummaryCSV.
func ReadSummaryCSV(path string) ([]domain.CountryAggregate, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	dec, err := newDecoder(f)
	if err != nil {
		return nil, err
	}

	var countries []domain.CountryAggregate
	for {
		var in summaryInput
		if err := dec.Decode(&in); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("decoding %s: %w", path, err)
		}
		countries = append(countries, domain.CountryAggregate(in))
	}
	return countries, nil
}

func newDecoder(r io.Reader) (*csvutil.Decoder, error) {
	dec, err := csvutil.NewDecoder(csv.NewReader(r))
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrEmptyInput
		}
		return nil, fmt.Errorf("reading CSV header: %w", err)
	}
	return dec, nil
}

func missingColumns(header, required []string) []string {
	var missing []string
	for _, col := range required {
		if !slices.Contains(header, col) {
			missing = append(missing, col)
		}
	}
	return missing
}

// writeFileAtomic writes data to a temporary file next to path and renames it into place,
// so readers never observe a partially written file.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file for %s: %w", path, err)
	}
	tmpName := tmp.Name()

	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("setting mode of %s: %w", path, err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("renaming into %s: %w", path, err)
	}
	return nil
}
