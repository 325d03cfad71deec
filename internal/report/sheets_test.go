package report

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"google.golang.org/api/option"
	sheets "google.golang.org/api/sheets/v4"
)

type sheetsServer struct {
	mu       sync.Mutex
	existing []string
	calls    []string
	updates  sheets.BatchUpdateValuesRequest
}

func (s *sheetsServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	path := r.URL.Path
	switch {
	case strings.HasSuffix(path, "/values:batchClear"):
		s.calls = append(s.calls, "clear")
		w.Write([]byte(`{}`))
	case strings.HasSuffix(path, "/values:batchUpdate"):
		s.calls = append(s.calls, "values")
		json.NewDecoder(r.Body).Decode(&s.updates)
		w.Write([]byte(`{}`))
	case strings.HasSuffix(path, ":batchUpdate"):
		s.calls = append(s.calls, "addSheet")
		w.Write([]byte(`{}`))
	default:
		s.calls = append(s.calls, "get")
		var resp sheets.Spreadsheet
		for _, title := range s.existing {
			resp.Sheets = append(resp.Sheets, &sheets.Sheet{Properties: &sheets.SheetProperties{Title: title}})
		}
		json.NewEncoder(w).Encode(resp)
	}
}

func newTestSheetsWriter(t *testing.T, srv *httptest.Server) *SheetsWriter {
	t.Helper()
	w, err := newSheetsWriter(context.Background(), "sheet-1",
		option.WithEndpoint(srv.URL+"/"),
		option.WithoutAuthentication(),
		option.WithHTTPClient(srv.Client()),
	)
	if err != nil {
		t.Fatalf("newSheetsWriter() error: %v", err)
	}
	return w
}

func TestSheetsWriterCreatesMissingSheets(t *testing.T) {
	fake := &sheetsServer{existing: []string{sheetsCountries}}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	if err := newTestSheetsWriter(t, srv).Write(context.Background(), sampleReport()); err != nil {
		t.Fatalf("Write() error: %v", err)
	}

	want := []string{"get", "addSheet", "clear", "values"}
	if strings.Join(fake.calls, ",") != strings.Join(want, ",") {
		t.Errorf("calls = %v, want %v", fake.calls, want)
	}
	if len(fake.updates.Data) != 2 {
		t.Fatalf("value ranges = %d, want 2", len(fake.updates.Data))
	}
	if fake.updates.Data[0].Range != "COUNTRIES!A1" || len(fake.updates.Data[0].Values) != 3 {
		t.Errorf("countries range = %+v", fake.updates.Data[0])
	}
}

func TestSheetsWriterSkipsExistingSheets(t *testing.T) {
	fake := &sheetsServer{existing: []string{sheetsCountries, sheetsHoldings}}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	if err := newTestSheetsWriter(t, srv).Write(context.Background(), sampleReport()); err != nil {
		t.Fatalf("Write() error: %v", err)
	}

	want := []string{"get", "clear", "values"}
	if strings.Join(fake.calls, ",") != strings.Join(want, ",") {
		t.Errorf("calls = %v, want %v", fake.calls, want)
	}
}

func TestSheetsWriterMetadataError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error":{"code":403,"message":"denied"}}`, http.StatusForbidden)
	}))
	defer srv.Close()

	err := newTestSheetsWriter(t, srv).Write(context.Background(), sampleReport())
	if err == nil || !strings.Contains(err.Error(), "getting spreadsheet metadata") {
		t.Errorf("Write() error = %v, want metadata error", err)
	}
}
