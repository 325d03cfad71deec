package savr

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// ErrorKind classifies a failed fetch.
type ErrorKind string

const (
	KindTransport ErrorKind = "transport"
	KindStatus    ErrorKind = "status"
	KindDecode    ErrorKind = "decode"
)

// FetchError describes why a GET produced no data.
type FetchError struct {
	Kind       ErrorKind
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.Kind == KindStatus {
		return fmt.Sprintf("%s error fetching %s: HTTP %d: %v", e.Kind, e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s error fetching %s: %v", e.Kind, e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Result is the outcome of a single GET: either a well-formed JSON body or a FetchError.
type Result struct {
	Body json.RawMessage
	Err  *FetchError
}

// OK reports whether the fetch produced data.
func (r Result) OK() bool {
	return r.Err == nil
}

// Policy decides what a caller does with a failed fetch.
type Policy int

const (
	// TreatAsEmpty logs the failure and continues as if zero records were returned.
	TreatAsEmpty Policy = iota
	// Propagate returns the *FetchError to the caller.
	Propagate
)

// resolve applies the policy to a failed result. It returns nil for successful results.
func (p Policy) resolve(res Result) error {
	if res.Err == nil || p == TreatAsEmpty {
		return nil
	}
	return res.Err
}

// Client is an HTTP client for the holdings and agents REST API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new API client. A zero timeout falls back to 30s.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Fetch performs a single GET and validates that the body is JSON.
// It never returns a Go error: every failure is reported through Result.Err.
func (c *Client) Fetch(ctx context.Context, url string) Result {
	slog.Info("GET", "url", url)

	res := c.fetch(ctx, url)
	if res.Err != nil {
		slog.Warn("fetch failed", "url", url, "kind", res.Err.Kind, "error", res.Err)
	}
	return res
}

func (c *Client) fetch(ctx context.Context, url string) Result {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return failed(KindTransport, url, 0, fmt.Errorf("creating request: %w", err))
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return failed(KindTransport, url, 0, fmt.Errorf("executing request: %w", err))
	}

	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return failed(KindTransport, url, resp.StatusCode, fmt.Errorf("reading response: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return failed(KindStatus, url, resp.StatusCode, fmt.Errorf("unexpected status: %s", string(body)))
	}

	if !json.Valid(body) {
		return failed(KindDecode, url, resp.StatusCode, errors.New("malformed JSON body"))
	}

	return Result{Body: body}
}

func failed(kind ErrorKind, url string, status int, err error) Result {
	return Result{Err: &FetchError{Kind: kind, URL: url, StatusCode: status, Err: err}}
}
