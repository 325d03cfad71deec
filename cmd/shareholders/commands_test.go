package main

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mtlprog/shareholders/internal/config"
)

func testApp(out *bytes.Buffer) func(args ...string) error {
	return func(args ...string) error {
		app := newApp(config.Config{
			PageSize:    25,
			Pages:       1,
			HTTPTimeout: time.Second,
			LogLevel:    "error",
		})
		app.Writer = out
		app.ErrWriter = io.Discard
		return app.Run(append([]string{"shareholders"}, args...))
	}
}

func TestAggregateCommand(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "in.csv")
	output := filepath.Join(dir, "out.csv")
	xlsx := filepath.Join(dir, "out.xlsx")
	content := "agentName,countryCode,numberOfShares,percentageOfShares\nAcme,US,100,5\nBeta,US,50,2.5\nGamma,SE,200,10\n"
	if err := os.WriteFile(input, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	if err := testApp(&out)("aggregate", "-i", input, "-o", output, "--xlsx", xlsx); err != nil {
		t.Fatalf("aggregate error: %v", err)
	}

	got, err := os.ReadFile(output)
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}
	if !strings.HasPrefix(string(got), "countryCode,totalNumberOfShares,totalPercentageOfShares,numberOfAgents\nSE,200,10.00,1\nUS,150,7.50,2\n") {
		t.Errorf("output = %q", got)
	}
	if _, err := os.Stat(xlsx); err != nil {
		t.Errorf("workbook not written: %v", err)
	}
	if !strings.Contains(out.String(), "No duplicate entries found.") {
		t.Errorf("stdout = %s", out.String())
	}
}

func TestRunCommand(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Path == "/agents" {
			w.Write([]byte(`[{"id":"A1","name":"Acme","countryCode":"US"}]`))
			return
		}
		w.Write([]byte(`{"data":[{"agentId":"A1","holdings":[{"numberOfShares":100,"percentageOfShares":5,"numberOfVotes":100,"percentageOfVotes":5,"date":"2024-01-01"}]}]}`))
	}))
	defer server.Close()

	dir := t.TempDir()
	joined := filepath.Join(dir, "joined.csv")
	output := filepath.Join(dir, "summary.csv")

	var out bytes.Buffer
	err := testApp(&out)("run", "--api-base-url", server.URL, "--company-id", "c1", "--joined", joined, "--output", output)
	if err != nil {
		t.Fatalf("run error: %v", err)
	}

	got, err := os.ReadFile(joined)
	if err != nil {
		t.Fatalf("reading joined: %v", err)
	}
	if !strings.Contains(string(got), "A1,100,5,100,5,2024-01-01,Acme,US") {
		t.Errorf("joined = %q", got)
	}
	summary, err := os.ReadFile(output)
	if err != nil {
		t.Fatalf("reading summary: %v", err)
	}
	if !strings.Contains(string(summary), "US,100,5.00,1") {
		t.Errorf("summary = %q", summary)
	}
}
