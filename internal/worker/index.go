package worker

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/finlab-br/patrimonio/internal/domain"
	"github.com/finlab-br/patrimonio/internal/index"
)

// IndexLookup resolves one month's inflation rate, caching as a side effect.
type IndexLookup interface {
	Lookup(ctx context.Context, month domain.YearMonth) (decimal.Decimal, error)
}

// warmupMonths is how far back the worker pre-fills the rate cache.
const warmupMonths = 24

// IndexWorker keeps the recent window of inflation rates warm so that
// correction requests rarely hit the provider inline.
type IndexWorker struct {
	lookup   IndexLookup
	interval time.Duration
	now      domain.Clock
}

// NewIndexWorker creates a new IndexWorker.
func NewIndexWorker(lookup IndexLookup, interval time.Duration, clock domain.Clock) *IndexWorker {
	if clock == nil {
		clock = domain.SystemClock
	}
	return &IndexWorker{
		lookup:   lookup,
		interval: interval,
		now:      clock,
	}
}

// warm walks the recent months oldest first. A month that is simply not
// published yet is expected and not an error; anything else is logged and
// the walk continues.
func (w *IndexWorker) warm(ctx context.Context) {
	month := domain.MonthOf(w.now())
	for range warmupMonths {
		month = month.Prev()
	}

	current := domain.MonthOf(w.now())
	for ; month.Before(current) || month == current; month = month.Next() {
		if ctx.Err() != nil {
			return
		}
		if _, err := w.lookup.Lookup(ctx, month); err != nil {
			if !errors.Is(err, index.ErrUnavailable) {
				slog.Error("IndexWorker: lookup failed", "month", month.String(), "error", err)
			}
		}
	}
}

// Run starts the index worker loop. It blocks until the context is cancelled.
func (w *IndexWorker) Run(ctx context.Context) {
	slog.Info("IndexWorker: starting")

	w.warm(ctx)
	slog.Info("IndexWorker: initial warmup completed")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("IndexWorker: shutting down")
			return
		case <-ticker.C:
			w.warm(ctx)
			slog.Info("IndexWorker: warmup completed")
		}
	}
}
