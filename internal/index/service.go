// Package index resolves monthly inflation index rates with an explicit
// publication-availability policy. The value for month M is typically not
// published until partway through M+1, so absence is a normal outcome, not
// an error condition callers may ignore.
package index

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/finlab-br/patrimonio/internal/domain"
)

// ErrUnavailable indicates the rate for a requested month could not be
// determined: not yet published, or the upstream was unreachable. The two
// causes are deliberately indistinguishable so callers never substitute a
// guessed value.
var ErrUnavailable = errors.New("index rate not available")

// UnavailableError carries the month whose rate is missing, for rendering a
// "pending publication" state.
type UnavailableError struct {
	Month domain.YearMonth
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("index rate not available for %s", e.Month)
}

func (e *UnavailableError) Unwrap() error { return ErrUnavailable }

func unavailable(month domain.YearMonth, cause error) error {
	if cause != nil {
		slog.Warn("index lookup failed", "month", month.String(), "error", cause)
	}
	return &UnavailableError{Month: month}
}

// FallbackPolicy names the behavior when the exact requested month has no
// published rate.
type FallbackPolicy int

const (
	// PolicyExactMonth returns ErrUnavailable unless the exact month is
	// published. Default: the safest choice for financial output.
	PolicyExactMonth FallbackPolicy = iota
	// PolicyNearestPrior substitutes the nearest earlier published month,
	// walking back up to twelve months. Changes financial output; opt-in.
	PolicyNearestPrior
)

// maxFallbackMonths bounds the PolicyNearestPrior walk.
const maxFallbackMonths = 12

// Fetcher retrieves a rate for an exact month from the upstream source.
type Fetcher interface {
	FetchMonth(ctx context.Context, month domain.YearMonth) (decimal.Decimal, error)
}

// Cache is optional persistent storage for already-published rates. Absence
// is never cached: an unpublished month must be re-checked on every request.
type Cache interface {
	Get(ctx context.Context, month domain.YearMonth) (decimal.Decimal, bool, error)
	Put(ctx context.Context, month domain.YearMonth, rate decimal.Decimal) error
}

// Service is the index lookup component.
type Service struct {
	fetcher Fetcher
	cache   Cache
	policy  FallbackPolicy
}

// NewService creates an index lookup service. cache may be nil.
func NewService(fetcher Fetcher, cache Cache, policy FallbackPolicy) *Service {
	return &Service{fetcher: fetcher, cache: cache, policy: policy}
}

// Lookup resolves the rate for month as a fraction, honoring the configured
// fallback policy.
func (s *Service) Lookup(ctx context.Context, month domain.YearMonth) (decimal.Decimal, error) {
	rate, err := s.lookupExact(ctx, month)
	if err == nil || s.policy == PolicyExactMonth {
		return rate, err
	}
	if !errors.Is(err, ErrUnavailable) {
		return decimal.Zero, err
	}

	prior := month
	for range maxFallbackMonths {
		prior = prior.Prev()
		rate, err = s.lookupExact(ctx, prior)
		if err == nil {
			slog.Info("index rate substituted from prior month",
				"requested", month.String(), "used", prior.String())
			return rate, nil
		}
		if !errors.Is(err, ErrUnavailable) {
			return decimal.Zero, err
		}
	}
	return decimal.Zero, &UnavailableError{Month: month}
}

func (s *Service) lookupExact(ctx context.Context, month domain.YearMonth) (decimal.Decimal, error) {
	if s.cache != nil {
		rate, ok, err := s.cache.Get(ctx, month)
		if err != nil {
			slog.Warn("index cache read failed", "month", month.String(), "error", err)
		} else if ok {
			return rate, nil
		}
	}

	rate, err := s.fetcher.FetchMonth(ctx, month)
	if err != nil {
		return decimal.Zero, err
	}

	if s.cache != nil {
		if err := s.cache.Put(ctx, month, rate); err != nil {
			slog.Warn("index cache write failed", "month", month.String(), "error", err)
		}
	}
	return rate, nil
}
