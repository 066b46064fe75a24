package dashboard

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/finlab-br/patrimonio/internal/domain"
	"github.com/finlab-br/patrimonio/internal/index"
)

type mockLister struct {
	entries []domain.Contribution
	err     error
}

func (m *mockLister) List(context.Context, string) ([]domain.Contribution, error) {
	return m.entries, m.err
}

type mockCorrector struct {
	next decimal.Decimal
	err  error
}

func (m *mockCorrector) NextSuggested(context.Context, []domain.Contribution) (decimal.Decimal, error) {
	return m.next, m.err
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func contribution(date time.Time, amount string) domain.Contribution {
	return domain.Contribution{Date: date, Amount: dec(amount), CreatedAt: date}
}

func fixedClock(t time.Time) domain.Clock {
	return func() time.Time { return t }
}

func TestBuildAggregates(t *testing.T) {
	entries := []domain.Contribution{
		contribution(time.Date(2024, time.January, 5, 0, 0, 0, 0, time.UTC), "1000"),
		contribution(time.Date(2024, time.February, 5, 0, 0, 0, 0, time.UTC), "1500"),
		contribution(time.Date(2024, time.March, 5, 0, 0, 0, 0, time.UTC), "500"),
	}
	svc := NewService(&mockLister{entries: entries}, &mockCorrector{next: dec("1010")}, nil)

	got, err := svc.Build(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	if got.Count != 3 {
		t.Errorf("count = %d, want 3", got.Count)
	}
	if !got.Total.Equal(dec("3000")) {
		t.Errorf("total = %s, want 3000", got.Total)
	}
	if !got.MonthlyMean.Equal(dec("1000")) {
		t.Errorf("mean = %s, want 1000", got.MonthlyMean)
	}
	if !got.Largest.Equal(dec("1500")) {
		t.Errorf("largest = %s, want 1500", got.Largest)
	}

	wantHistory := []string{"1000", "2500", "3000"}
	if len(got.AccumulatedHistory) != len(wantHistory) {
		t.Fatalf("history length = %d, want %d", len(got.AccumulatedHistory), len(wantHistory))
	}
	for i, w := range wantHistory {
		if !got.AccumulatedHistory[i].Equal(dec(w)) {
			t.Errorf("history[%d] = %s, want %s", i, got.AccumulatedHistory[i], w)
		}
	}

	if got.NextSuggested == nil || !got.NextSuggested.Equal(dec("1010")) {
		t.Errorf("nextSuggested = %v, want 1010", got.NextSuggested)
	}
	if got.NextMessage != "" {
		t.Errorf("nextMessage = %q, want empty", got.NextMessage)
	}
	if len(got.Projections) != 3 {
		t.Errorf("projections = %d scenarios, want 3", len(got.Projections))
	}
	if got.Progress.Current == nil || !got.Progress.Current.Threshold.Equal(dec("3000")) {
		t.Errorf("progress current = %+v, want threshold 3000", got.Progress.Current)
	}
}

func TestBuildEmptyLedger(t *testing.T) {
	svc := NewService(&mockLister{}, &mockCorrector{}, nil)

	got, err := svc.Build(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	if got.Count != 0 || !got.Total.IsZero() {
		t.Errorf("empty ledger not zeroed: %+v", got)
	}
	if got.NextMessage != firstContributionMsg {
		t.Errorf("nextMessage = %q, want first-contribution prompt", got.NextMessage)
	}
	if got.NextSuggested != nil {
		t.Errorf("nextSuggested = %v, want nil", got.NextSuggested)
	}
	if got.Progress.Next == nil || !got.Progress.Next.Threshold.Equal(dec("1000")) {
		t.Errorf("progress next = %+v, want first tier", got.Progress.Next)
	}
}

func TestBuildPendingPublication(t *testing.T) {
	entries := []domain.Contribution{
		contribution(time.Date(2024, time.June, 5, 0, 0, 0, 0, time.UTC), "1000"),
	}
	corrector := &mockCorrector{err: &index.UnavailableError{
		Month: domain.YearMonth{Year: 2024, Month: time.June},
	}}
	now := fixedClock(time.Date(2024, time.July, 1, 0, 0, 0, 0, time.UTC))
	svc := NewService(&mockLister{entries: entries}, corrector, now)

	got, err := svc.Build(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	if got.NextSuggested != nil {
		t.Errorf("nextSuggested = %v, want nil", got.NextSuggested)
	}
	want := "IPCA de 06/2024 ainda não foi divulgado pelo BCB. Aguarde a publicação oficial."
	if got.NextMessage != want {
		t.Errorf("nextMessage = %q, want %q", got.NextMessage, want)
	}
}

func TestBuildRecentCapped(t *testing.T) {
	var entries []domain.Contribution
	base := time.Date(2023, time.January, 1, 0, 0, 0, 0, time.UTC)
	for i := range 15 {
		entries = append(entries, contribution(base.AddDate(0, i, 0), "100"))
	}
	svc := NewService(&mockLister{entries: entries}, &mockCorrector{next: dec("100")}, nil)

	got, err := svc.Build(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	if len(got.Recent) != 10 {
		t.Fatalf("recent = %d entries, want 10", len(got.Recent))
	}
	if !got.Recent[0].Date.Equal(base.AddDate(0, 5, 0)) {
		t.Errorf("recent starts at %s, want sixth entry", got.Recent[0].Date)
	}
}

func TestBuildListerFailure(t *testing.T) {
	svc := NewService(&mockLister{err: errors.New("db down")}, &mockCorrector{}, nil)

	if _, err := svc.Build(context.Background(), "u1"); err == nil {
		t.Fatal("Build() error = nil, want failure")
	}
}

func TestBuildCorrectorHardFailure(t *testing.T) {
	entries := []domain.Contribution{
		contribution(time.Date(2024, time.June, 5, 0, 0, 0, 0, time.UTC), "1000"),
	}
	svc := NewService(&mockLister{entries: entries}, &mockCorrector{err: errors.New("network")}, nil)

	if _, err := svc.Build(context.Background(), "u1"); err == nil {
		t.Fatal("Build() error = nil, want failure on non-index error")
	}
}
