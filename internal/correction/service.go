// Package correction compounds nominal monetary values across months using
// the inflation index. A single missing month aborts the computation that
// needed it: silently skipping a month would understate compounding.
package correction

import (
	"context"
	"errors"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/finlab-br/patrimonio/internal/domain"
	"github.com/finlab-br/patrimonio/internal/index"
)

// Lookup resolves a monthly index rate. Satisfied by index.Service.
type Lookup interface {
	Lookup(ctx context.Context, month domain.YearMonth) (decimal.Decimal, error)
}

// Service is the correction engine.
type Service struct {
	index Lookup
	now   domain.Clock
}

// NewService creates a correction engine. clock defaults to the system clock.
func NewService(index Lookup, clock domain.Clock) *Service {
	if clock == nil {
		clock = domain.SystemClock
	}
	return &Service{index: index, now: clock}
}

var one = decimal.NewFromInt(1)

// Factor returns the compounding factor from the `from` month (inclusive) up
// to but excluding the `to` month: the product of (1+rate) over each visited
// month. Factor(m, m) is exactly 1. Any unavailable month propagates as
// index.ErrUnavailable for that month.
func (s *Service) Factor(ctx context.Context, from, to domain.YearMonth) (decimal.Decimal, error) {
	factor := one
	for m := from; m.Before(to); m = m.Next() {
		rate, err := s.index.Lookup(ctx, m)
		if err != nil {
			return decimal.Zero, err
		}
		factor = factor.Mul(one.Add(rate))
	}
	return factor, nil
}

// Correct compounds a nominal value from one month to another.
func (s *Service) Correct(ctx context.Context, nominal decimal.Decimal, from, to domain.YearMonth) (decimal.Decimal, error) {
	factor, err := s.Factor(ctx, from, to)
	if err != nil {
		return decimal.Zero, err
	}
	return nominal.Mul(factor), nil
}

// History is the result of correcting a contribution ledger to the current
// month.
type History struct {
	// Corrected holds the corrected values in chronological entry order.
	Corrected []decimal.Decimal
	// FinalFactor is the compounding factor applied to the most recent entry.
	FinalFactor decimal.Decimal
}

// CorrectHistory corrects every entry from its own month to the current
// month. Entries start in different months, so each gets its own factor.
// The entries' CorrectedAmount fields are populated as a derived cache for
// the caller to persist. Fails on the first month whose rate is unavailable.
func (s *Service) CorrectHistory(ctx context.Context, entries []domain.Contribution) (History, error) {
	ordered := make([]domain.Contribution, len(entries))
	copy(ordered, entries)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Date.Before(ordered[j].Date)
	})

	now := domain.MonthOf(s.now())
	h := History{FinalFactor: one}

	for i := range ordered {
		factor, err := s.Factor(ctx, ordered[i].Month(), now)
		if err != nil {
			return History{}, err
		}
		corrected := ordered[i].Amount.Mul(factor)
		ordered[i].CorrectedAmount = &corrected
		h.Corrected = append(h.Corrected, corrected)
		h.FinalFactor = factor
	}

	copy(entries, ordered)
	return h, nil
}

// NextSuggested estimates the next contribution: the most recent entry's
// nominal value adjusted by its own month's published rate. Returns
// index.ErrUnavailable while that rate is pending publication; callers must
// render that state distinctly, never as zero.
func (s *Service) NextSuggested(ctx context.Context, entries []domain.Contribution) (decimal.Decimal, error) {
	if len(entries) == 0 {
		return decimal.Zero, errors.New("no contributions to base a suggestion on")
	}

	last := entries[0]
	for _, e := range entries[1:] {
		if last.Date.Before(e.Date) {
			last = e
		}
	}

	rate, err := s.index.Lookup(ctx, last.Month())
	if err != nil {
		return decimal.Zero, err
	}
	return last.Amount.Mul(one.Add(rate)), nil
}

// PlanCorrected compounds the planned monthly amount from the plan's start
// month to the current month. Unlike ledger correction, months still pending
// publication are skipped rather than failing the whole plan: the plan value
// is an ongoing target, not a historical record, and the current month's
// rate is almost always unpublished.
func (s *Service) PlanCorrected(ctx context.Context, plan domain.MonthlyPlan) (decimal.Decimal, error) {
	now := domain.MonthOf(s.now())
	value := plan.PlannedAmount

	for m := domain.MonthOf(plan.StartDate); m.Before(now); m = m.Next() {
		rate, err := s.index.Lookup(ctx, m)
		if err != nil {
			if errors.Is(err, index.ErrUnavailable) {
				continue
			}
			return decimal.Zero, err
		}
		value = value.Mul(one.Add(rate))
	}
	return value, nil
}
