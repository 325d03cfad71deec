package report

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/samber/lo"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	sheets "google.golang.org/api/sheets/v4"

	"github.com/mtlprog/shareholders/internal/domain"
)

const (
	sheetsCountries = "COUNTRIES"
	sheetsHoldings  = "HOLDINGS"
)

// reportSheet is one tab of the spreadsheet and the report view written to it.
type reportSheet struct {
	title   string
	columns string
	values  func(domain.Report) [][]any
}

var reportSheets = []reportSheet{
	{
		title:   sheetsCountries,
		columns: "A:D",
		values:  func(r domain.Report) [][]any { return buildSummaryValues(r.Countries) },
	},
	{
		title:   sheetsHoldings,
		columns: "A:H",
		values:  func(r domain.Report) [][]any { return buildHoldingsValues(r.Holdings) },
	},
}

// SheetsWriter replaces the COUNTRIES and HOLDINGS tabs of a spreadsheet with each report.
type SheetsWriter struct {
	spreadsheetID string
	svc           *sheets.Service
}

// NewSheetsWriter creates a SheetsWriter authenticated with a service account JSON.
func NewSheetsWriter(ctx context.Context, spreadsheetID, credentialsJSON string) (*SheetsWriter, error) {
	creds, err := google.CredentialsFromJSON(ctx, []byte(credentialsJSON), sheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("parsing google credentials: %w", err)
	}
	return newSheetsWriter(ctx, spreadsheetID, option.WithCredentials(creds))
}

func newSheetsWriter(ctx context.Context, spreadsheetID string, opts ...option.ClientOption) (*SheetsWriter, error) {
	svc, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating sheets service: %w", err)
	}
	return &SheetsWriter{spreadsheetID: spreadsheetID, svc: svc}, nil
}

// Write adds any missing report tab, then clears and rewrites every tab in one batch.
func (w *SheetsWriter) Write(ctx context.Context, r domain.Report) error {
	if err := w.addMissingTabs(ctx); err != nil {
		return err
	}

	clearReq := &sheets.BatchClearValuesRequest{}
	update := &sheets.BatchUpdateValuesRequest{ValueInputOption: "RAW"}
	for _, tab := range reportSheets {
		clearReq.Ranges = append(clearReq.Ranges, tab.title+"!"+tab.columns)
		update.Data = append(update.Data, &sheets.ValueRange{Range: tab.title + "!A1", Values: tab.values(r)})
	}

	if _, err := w.svc.Spreadsheets.Values.BatchClear(w.spreadsheetID, clearReq).Context(ctx).Do(); err != nil {
		return fmt.Errorf("clearing report tabs: %w", err)
	}
	if _, err := w.svc.Spreadsheets.Values.BatchUpdate(w.spreadsheetID, update).Context(ctx).Do(); err != nil {
		return fmt.Errorf("writing report tabs: %w", err)
	}

	slog.Info("report written to spreadsheet", "spreadsheet", w.spreadsheetID, "countries", len(r.Countries), "holdings", len(r.Holdings))
	return nil
}

func (w *SheetsWriter) addMissingTabs(ctx context.Context) error {
	spreadsheet, err := w.svc.Spreadsheets.Get(w.spreadsheetID).Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("getting spreadsheet metadata: %w", err)
	}

	titles := lo.Map(spreadsheet.Sheets, func(s *sheets.Sheet, _ int) string { return s.Properties.Title })
	missing := lo.Filter(reportSheets, func(tab reportSheet, _ int) bool { return !lo.Contains(titles, tab.title) })
	if len(missing) == 0 {
		return nil
	}

	requests := lo.Map(missing, func(tab reportSheet, _ int) *sheets.Request {
		return &sheets.Request{AddSheet: &sheets.AddSheetRequest{Properties: &sheets.SheetProperties{Title: tab.title}}}
	})
	_, err = w.svc.Spreadsheets.BatchUpdate(w.spreadsheetID, &sheets.BatchUpdateSpreadsheetRequest{Requests: requests}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("adding report tabs: %w", err)
	}
	slog.Info("added spreadsheet tabs", "tabs", lo.Map(missing, func(tab reportSheet, _ int) string { return tab.title }))
	return nil
}
