// Package quote supplies live market prices from brapi.dev, cached in
// PostgreSQL. A provider failure degrades to "no quote for this ticker" and
// never aborts the caller's wider computation.
package quote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ErrFetchFailed indicates a live price could not be obtained for a ticker.
var ErrFetchFailed = errors.New("quote fetch failed")

// FetchError names the ticker whose quote failed.
type FetchError struct {
	Ticker string
	Cause  error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("quote fetch failed for %s: %v", e.Ticker, e.Cause)
}

func (e *FetchError) Unwrap() error { return ErrFetchFailed }

// Quote is the partial record the provider returns. Only Price is
// guaranteed; the rest is whatever the provider had.
type Quote struct {
	Ticker    string          `json:"ticker"`
	Price     decimal.Decimal `json:"price"`
	LongName  string          `json:"longName,omitempty"`
	Currency  string          `json:"currency,omitempty"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// BrapiClient fetches quotes from the brapi.dev API.
type BrapiClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
	retryMax   int
	retryDelay time.Duration
}

// NewBrapiClient creates a brapi.dev client. token may be empty for the
// unauthenticated tier.
func NewBrapiClient(baseURL, token string, retryMax int, retryDelay time.Duration) *BrapiClient {
	return &BrapiClient{
		baseURL:    baseURL,
		token:      token,
		httpClient: &http.Client{Timeout: 5 * time.Second},
		retryMax:   retryMax,
		retryDelay: retryDelay,
	}
}

// NormalizeTicker uppercases and strips the fractional-market suffix, the
// form brapi files B3 tickers under.
func NormalizeTicker(ticker string) string {
	return strings.TrimSuffix(strings.ToUpper(strings.TrimSpace(ticker)), "F")
}

type brapiResult struct {
	Symbol             string   `json:"symbol"`
	RegularMarketPrice *float64 `json:"regularMarketPrice"`
	LongName           *string  `json:"longName"`
	Currency           *string  `json:"currency"`
}

type brapiResponse struct {
	Results []brapiResult `json:"results"`
}

// Fetch retrieves the current quote for a ticker. All failure modes fold
// into ErrFetchFailed.
func (c *BrapiClient) Fetch(ctx context.Context, ticker string) (Quote, error) {
	normalized := NormalizeTicker(ticker)
	url := fmt.Sprintf("%s/api/quote/%s", c.baseURL, normalized)

	body, err := c.fetchWithRetry(ctx, url)
	if err != nil {
		return Quote{}, &FetchError{Ticker: normalized, Cause: err}
	}

	var parsed brapiResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return Quote{}, &FetchError{Ticker: normalized, Cause: fmt.Errorf("parsing response: %w", err)}
	}
	if len(parsed.Results) == 0 {
		return Quote{}, &FetchError{Ticker: normalized, Cause: errors.New("no results")}
	}

	result := parsed.Results[0]
	if result.RegularMarketPrice == nil || *result.RegularMarketPrice <= 0 {
		return Quote{}, &FetchError{Ticker: normalized, Cause: errors.New("no usable price")}
	}

	q := Quote{
		Ticker: normalized,
		Price:  decimal.NewFromFloat(*result.RegularMarketPrice),
	}
	if result.LongName != nil {
		q.LongName = *result.LongName
	}
	if result.Currency != nil {
		q.Currency = *result.Currency
	}
	return q, nil
}

func (c *BrapiClient) fetchWithRetry(ctx context.Context, url string) ([]byte, error) {
	var lastErr error
	for attempt := range c.retryMax + 1 {
		if attempt > 0 {
			delay := c.retryDelay * time.Duration(1<<uint(attempt-1))
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, fmt.Errorf("creating brapi request: %w", err)
		}
		if c.token != "" {
			req.Header.Set("Authorization", "Bearer "+c.token)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("brapi request failed: %w", err)
			continue
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("reading brapi response: %w", err)
			continue
		}

		switch {
		case resp.StatusCode == http.StatusOK:
			return body, nil
		case resp.StatusCode == http.StatusNotFound:
			// Unknown ticker: retrying will not help.
			return nil, errors.New("ticker not found")
		default:
			lastErr = fmt.Errorf("brapi returned status %d", resp.StatusCode)
		}
	}
	return nil, lastErr
}
