package quote

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/finlab-br/patrimonio/internal/domain"
)

// Fetcher retrieves a quote from the upstream provider.
type Fetcher interface {
	Fetch(ctx context.Context, ticker string) (Quote, error)
}

// Service serves quotes from the cache when fresh, falling back to the
// provider. repo may be nil (cache disabled).
type Service struct {
	fetcher        Fetcher
	repo           Repository
	staleThreshold time.Duration
	now            domain.Clock
}

// NewService creates a quote service. clock defaults to the system clock.
func NewService(fetcher Fetcher, repo Repository, staleThreshold time.Duration, clock domain.Clock) *Service {
	if clock == nil {
		clock = domain.SystemClock
	}
	return &Service{
		fetcher:        fetcher,
		repo:           repo,
		staleThreshold: staleThreshold,
		now:            clock,
	}
}

// GetQuote returns the full quote record for a ticker, cache first.
func (s *Service) GetQuote(ctx context.Context, ticker string) (Quote, error) {
	normalized := NormalizeTicker(ticker)

	if s.repo != nil {
		cached, ok, err := s.repo.Get(ctx, normalized)
		if err != nil {
			slog.Warn("quote cache read failed", "ticker", normalized, "error", err)
		} else if ok && s.now().Sub(cached.UpdatedAt) < s.staleThreshold {
			return cached, nil
		}
	}

	q, err := s.fetcher.Fetch(ctx, normalized)
	if err != nil {
		return Quote{}, err
	}
	q.UpdatedAt = s.now()

	if s.repo != nil {
		if err := s.repo.Save(ctx, q); err != nil {
			slog.Warn("quote cache write failed", "ticker", normalized, "error", err)
		}
	}
	return q, nil
}

// GetPrice returns just the current unit price. Satisfies
// ledger.QuoteProvider.
func (s *Service) GetPrice(ctx context.Context, ticker string) (decimal.Decimal, error) {
	q, err := s.GetQuote(ctx, ticker)
	if err != nil {
		return decimal.Zero, err
	}
	return q.Price, nil
}

// RefreshAll re-fetches every given ticker, storing the results. Per-ticker
// failures are collected, not fatal; the worker logs and moves on.
func (s *Service) RefreshAll(ctx context.Context, tickers []string) error {
	var failed int
	for _, ticker := range tickers {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		q, err := s.fetcher.Fetch(ctx, NormalizeTicker(ticker))
		if err != nil {
			slog.Warn("quote refresh failed", "ticker", ticker, "error", err)
			failed++
			continue
		}
		q.UpdatedAt = s.now()
		if s.repo != nil {
			if err := s.repo.Save(ctx, q); err != nil {
				slog.Warn("quote cache write failed", "ticker", ticker, "error", err)
			}
		}
	}
	if failed == len(tickers) && failed > 0 {
		return fmt.Errorf("all %d quote refreshes failed: %w", failed, ErrFetchFailed)
	}
	return nil
}
