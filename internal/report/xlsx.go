package report

import (
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/mtlprog/shareholders/internal/domain"
)

const (
	countriesSheet = "Countries"
	holdingsSheet  = "Holdings"
)

// XLSXWriter saves a report as an Excel workbook with one sheet for the summary
// and one for the joined holdings.
type XLSXWriter struct {
	path string
}

// NewXLSXWriter creates a writer targeting the given workbook path.
func NewXLSXWriter(path string) *XLSXWriter {
	return &XLSXWriter{path: path}
}

func (w *XLSXWriter) Write(_ context.Context, r domain.Report) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", countriesSheet); err != nil {
		return fmt.Errorf("renaming default sheet: %w", err)
	}
	if _, err := f.NewSheet(holdingsSheet); err != nil {
		return fmt.Errorf("creating %s sheet: %w", holdingsSheet, err)
	}

	if err := setRows(f, countriesSheet, buildSummaryValues(r.Countries)); err != nil {
		return err
	}
	if err := setRows(f, holdingsSheet, buildHoldingsValues(r.Holdings)); err != nil {
		return err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return fmt.Errorf("encoding workbook: %w", err)
	}
	return writeFileAtomic(w.path, buf.Bytes())
}

func setRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return fmt.Errorf("addressing %s row %d: %w", sheet, i+1, err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("writing %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}
