package index

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/finlab-br/patrimonio/internal/domain"
)

// ipcaSeries is the BCB SGS series number for the monthly IPCA variation.
const ipcaSeries = 433

// BCBClient fetches monthly inflation index values from the Banco Central
// SGS API.
type BCBClient struct {
	baseURL    string
	httpClient *http.Client
	retryMax   int
	retryDelay time.Duration
}

// NewBCBClient creates a new SGS API client.
func NewBCBClient(baseURL string, retryMax int, retryDelay time.Duration) *BCBClient {
	return &BCBClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 6 * time.Second},
		retryMax:   retryMax,
		retryDelay: retryDelay,
	}
}

// sgsItem is one row of the SGS JSON payload. Dates arrive as DD/MM/YYYY and
// values as percent with a comma decimal separator ("0,83").
type sgsItem struct {
	Data  string `json:"data"`
	Valor string `json:"valor"`
}

// FetchMonth returns the index rate for the exact requested month as a
// fraction (0.0087 for 0.87%). Items filed under any other month are
// discarded even when the API returns them, so a not-yet-published month
// yields ErrUnavailable rather than a neighbor's value.
func (c *BCBClient) FetchMonth(ctx context.Context, month domain.YearMonth) (decimal.Decimal, error) {
	url := fmt.Sprintf(
		"%s/dados/serie/bcdata.sgs.%d/dados?formato=json&dataInicial=01/%02d/%04d&dataFinal=%02d/%02d/%04d",
		c.baseURL, ipcaSeries,
		int(month.Month), month.Year,
		month.LastDay(), int(month.Month), month.Year,
	)

	body, err := c.fetchWithRetry(ctx, url)
	if err != nil {
		return decimal.Zero, unavailable(month, err)
	}

	var items []sgsItem
	if err := json.Unmarshal(body, &items); err != nil {
		return decimal.Zero, unavailable(month, fmt.Errorf("parsing SGS response: %w", err))
	}

	// Keep only rows dated inside the requested month; the API sometimes
	// pads the range with adjacent observations.
	var rate decimal.Decimal
	found := false
	for _, item := range items {
		if !sameMonth(item.Data, month) {
			continue
		}
		rate = domain.ParsePtBR(item.Valor).Div(decimal.NewFromInt(100))
		found = true
	}
	if !found {
		return decimal.Zero, unavailable(month, nil)
	}
	return rate, nil
}

func sameMonth(sgsDate string, month domain.YearMonth) bool {
	parts := strings.Split(sgsDate, "/")
	if len(parts) != 3 {
		return false
	}
	m, err1 := strconv.Atoi(parts[1])
	y, err2 := strconv.Atoi(parts[2])
	if err1 != nil || err2 != nil {
		return false
	}
	return y == month.Year && time.Month(m) == month.Month
}

func (c *BCBClient) fetchWithRetry(ctx context.Context, url string) ([]byte, error) {
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
			return nil, fmt.Errorf("creating SGS request: %w", err)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("SGS request failed: %w", err)
			continue
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("reading SGS response: %w", err)
			continue
		}

		if resp.StatusCode != http.StatusOK {
			lastErr = fmt.Errorf("SGS returned status %d", resp.StatusCode)
			continue
		}

		return body, nil
	}
	return nil, lastErr
}
