// Package worker runs the background refresh loops.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// TickerSource lists the tickers currently referenced by any ledger.
type TickerSource interface {
	DistinctTickers(ctx context.Context) ([]string, error)
}

// QuoteRefresher re-fetches quotes for a set of tickers.
type QuoteRefresher interface {
	RefreshAll(ctx context.Context, tickers []string) error
}

// QuoteWorker periodically refreshes market quotes for every ticker in use.
type QuoteWorker struct {
	tickers  TickerSource
	quotes   QuoteRefresher
	interval time.Duration
}

// NewQuoteWorker creates a new QuoteWorker.
func NewQuoteWorker(tickers TickerSource, quotes QuoteRefresher, interval time.Duration) *QuoteWorker {
	return &QuoteWorker{
		tickers:  tickers,
		quotes:   quotes,
		interval: interval,
	}
}

// Refresh runs one refresh pass. Also serves the admin refresh endpoint.
func (w *QuoteWorker) Refresh(ctx context.Context) error {
	tickers, err := w.tickers.DistinctTickers(ctx)
	if err != nil {
		return fmt.Errorf("listing tickers: %w", err)
	}
	if len(tickers) == 0 {
		return nil
	}
	return w.quotes.RefreshAll(ctx, tickers)
}

// Run starts the quote worker loop. It blocks until the context is cancelled.
func (w *QuoteWorker) Run(ctx context.Context) {
	slog.Info("QuoteWorker: starting")

	// Refresh immediately on startup
	if err := w.Refresh(ctx); err != nil {
		slog.Error("QuoteWorker: initial refresh failed", "error", err)
	} else {
		slog.Info("QuoteWorker: initial refresh completed")
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("QuoteWorker: shutting down")
			return
		case <-ticker.C:
			if err := w.Refresh(ctx); err != nil {
				slog.Error("QuoteWorker: refresh failed", "error", err)
			} else {
				slog.Info("QuoteWorker: refresh completed")
			}
		}
	}
}
