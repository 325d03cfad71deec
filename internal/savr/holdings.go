package savr

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/mtlprog/shareholders/internal/domain"
)

// maxAutoPages bounds pagination when the page count is not configured.
const maxAutoPages = 1000

// HoldingsPageURL builds the URL of one holdings page for a company.
func HoldingsPageURL(baseURL, companyID string, page, pageSize int) string {
	params := url.Values{}
	params.Set("page", fmt.Sprint(page))
	params.Set("pageSize", fmt.Sprint(pageSize))
	return fmt.Sprintf("%s/companies-v2/%s/holdings?%s", baseURL, url.PathEscape(companyID), params.Encode())
}

// HoldingsPageURLs builds the URLs of pages 1..pages.
func HoldingsPageURLs(baseURL, companyID string, pages, pageSize int) []string {
	urls := make([]string, 0, pages)
	for page := 1; page <= pages; page++ {
		urls = append(urls, HoldingsPageURL(baseURL, companyID, page, pageSize))
	}
	return urls
}

// FetchHoldings fetches every page in order and concatenates their "data" arrays.
// Pages without a "data" array contribute zero records.
func (c *Client) FetchHoldings(ctx context.Context, pageURLs []string, policy Policy) ([]domain.HoldingRecord, error) {
	var all []domain.HoldingRecord
	for _, pageURL := range pageURLs {
		records, _, err := c.fetchHoldingsPage(ctx, pageURL, policy)
		if err != nil {
			return nil, err
		}
		all = append(all, records...)
	}
	slog.Info("holdings collected", "pages", len(pageURLs), "records", len(all))
	return all, nil
}

// CollectHoldings fetches the holdings of a company. With pages > 0 exactly that many pages are
// requested; with pages == 0 pages are followed until one returns fewer than pageSize records.
func (c *Client) CollectHoldings(ctx context.Context, companyID string, pages, pageSize int, policy Policy) ([]domain.HoldingRecord, error) {
	if pages > 0 {
		return c.FetchHoldings(ctx, HoldingsPageURLs(c.baseURL, companyID, pages, pageSize), policy)
	}

	var all []domain.HoldingRecord
	for page := 1; page <= maxAutoPages; page++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		records, received, err := c.fetchHoldingsPage(ctx, HoldingsPageURL(c.baseURL, companyID, page, pageSize), policy)
		if err != nil {
			return nil, err
		}
		all = append(all, records...)
		if received < pageSize {
			slog.Info("holdings collected", "pages", page, "records", len(all))
			return all, nil
		}
	}
	slog.Warn("holdings pagination stopped at page limit", "limit", maxAutoPages)
	return all, nil
}

// fetchHoldingsPage returns the decodable records of one page and the number of elements the
// page carried. Each element is decoded on its own so a malformed record only loses itself.
func (c *Client) fetchHoldingsPage(ctx context.Context, pageURL string, policy Policy) ([]domain.HoldingRecord, int, error) {
	res := c.Fetch(ctx, pageURL)
	if !res.OK() {
		return nil, 0, policy.resolve(res)
	}

	var page map[string]json.RawMessage
	if err := json.Unmarshal(res.Body, &page); err != nil {
		slog.Warn("holdings page is not a JSON object, skipping", "url", pageURL)
		return nil, 0, nil
	}
	data, ok := page["data"]
	if !ok {
		slog.Warn("holdings page has no data key, skipping", "url", pageURL)
		return nil, 0, nil
	}

	var elements []json.RawMessage
	if err := json.Unmarshal(data, &elements); err != nil {
		fetchErr := failed(KindDecode, pageURL, 0, fmt.Errorf("holdings data is not an array: %w", err))
		slog.Warn("skipping holdings page", "url", pageURL, "error", fetchErr.Err)
		return nil, 0, policy.resolve(fetchErr)
	}

	records := make([]domain.HoldingRecord, 0, len(elements))
	for i, element := range elements {
		var record domain.HoldingRecord
		if err := json.Unmarshal(element, &record); err != nil {
			slog.Warn("skipping undecodable holding", "url", pageURL, "index", i, "error", err)
			continue
		}
		records = append(records, record)
	}
	return records, len(elements), nil
}
