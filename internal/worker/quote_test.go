package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

type mockTickerSource struct {
	tickers []string
	err     error
}

func (m *mockTickerSource) DistinctTickers(context.Context) ([]string, error) {
	return m.tickers, m.err
}

type mockRefresher struct {
	callCount atomic.Int32
	last      []string
}

func (m *mockRefresher) RefreshAll(_ context.Context, tickers []string) error {
	m.callCount.Add(1)
	m.last = tickers
	return nil
}

func TestQuoteWorkerRunsAndShutdown(t *testing.T) {
	refresher := &mockRefresher{}
	w := NewQuoteWorker(&mockTickerSource{tickers: []string{"PETR4", "VALE3"}}, refresher, 50*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	w.Run(ctx)

	// Should have run at least the initial refresh + some ticks
	if got := refresher.callCount.Load(); got < 1 {
		t.Errorf("call count = %d, want >= 1", got)
	}
	if len(refresher.last) != 2 {
		t.Errorf("refreshed %v, want both tickers", refresher.last)
	}
}

func TestQuoteWorkerSkipsEmptyLedger(t *testing.T) {
	refresher := &mockRefresher{}
	w := NewQuoteWorker(&mockTickerSource{}, refresher, time.Hour)

	if err := w.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	if got := refresher.callCount.Load(); got != 0 {
		t.Errorf("call count = %d, want 0 for empty ledger", got)
	}
}

func TestQuoteWorkerPropagatesSourceError(t *testing.T) {
	w := NewQuoteWorker(&mockTickerSource{err: errors.New("db down")}, &mockRefresher{}, time.Hour)

	if err := w.Refresh(context.Background()); err == nil {
		t.Fatal("Refresh() error = nil, want failure")
	}
}
