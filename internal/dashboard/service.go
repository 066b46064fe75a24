// Package dashboard assembles the landing-page summary: totals, growth
// projections, the next suggested contribution and progress tiers.
package dashboard

import (
	"context"
	"errors"
	"fmt"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/finlab-br/patrimonio/internal/correction"
	"github.com/finlab-br/patrimonio/internal/domain"
	"github.com/finlab-br/patrimonio/internal/index"
	"github.com/finlab-br/patrimonio/internal/milestone"
	"github.com/finlab-br/patrimonio/internal/projection"
)

// ContributionLister supplies a user's contributions in chronological order.
type ContributionLister interface {
	List(ctx context.Context, userID string) ([]domain.Contribution, error)
}

// Corrector suggests the next contribution from the inflation index.
// Satisfied by correction.Service.
type Corrector interface {
	NextSuggested(ctx context.Context, entries []domain.Contribution) (decimal.Decimal, error)
}

const (
	firstContributionMsg = "Adicione seu primeiro aporte para começar!"
	recentLimit          = 10
)

// Summary is the dashboard payload. NextSuggested and NextMessage are
// mutually exclusive: a pending index publication yields a message, never a
// zero value.
type Summary struct {
	AccumulatedHistory []decimal.Decimal           `json:"accumulatedHistory"`
	Total              decimal.Decimal             `json:"total"`
	Count              int                         `json:"count"`
	MonthlyMean        decimal.Decimal             `json:"monthlyMean"`
	Largest            decimal.Decimal             `json:"largest"`
	Projections        []projection.ScenarioResult `json:"projections"`
	NextSuggested      *decimal.Decimal            `json:"nextSuggested,omitempty"`
	NextMessage        string                      `json:"nextMessage,omitempty"`
	Progress           milestone.Progress          `json:"progress"`
	Recent             []domain.Contribution       `json:"recent"`
}

// Service builds dashboard summaries.
type Service struct {
	contributions ContributionLister
	corrector     Corrector
	now           domain.Clock
}

func NewService(contributions ContributionLister, corrector Corrector, now domain.Clock) *Service {
	if now == nil {
		now = domain.SystemClock
	}
	return &Service{contributions: contributions, corrector: corrector, now: now}
}

// Build assembles the summary for one user. An empty ledger yields a zeroed
// payload with the first-contribution prompt.
func (s *Service) Build(ctx context.Context, userID string) (Summary, error) {
	entries, err := s.contributions.List(ctx, userID)
	if err != nil {
		return Summary{}, fmt.Errorf("listing contributions: %w", err)
	}

	if len(entries) == 0 {
		return Summary{
			AccumulatedHistory: []decimal.Decimal{},
			Projections:        []projection.ScenarioResult{},
			NextMessage:        firstContributionMsg,
			Progress:           milestone.Evaluate(decimal.Zero),
			Recent:             []domain.Contribution{},
		}, nil
	}

	history := make([]decimal.Decimal, 0, len(entries))
	total := decimal.Zero
	for _, e := range entries {
		total = total.Add(e.Amount)
		history = append(history, domain.Round2(total))
	}

	mean := total.Div(decimal.NewFromInt(int64(len(entries))))
	largest := lo.MaxBy(entries, func(a, b domain.Contribution) bool {
		return a.Amount.GreaterThan(b.Amount)
	}).Amount

	summary := Summary{
		AccumulatedHistory: history,
		Total:              domain.Round2(total),
		Count:              len(entries),
		MonthlyMean:        domain.Round2(mean),
		Largest:            domain.Round2(largest),
		Projections:        projection.Scenarios(total, mean, projection.Horizon),
		Progress:           milestone.Evaluate(total),
		Recent:             recentContributions(entries),
	}

	next, err := s.corrector.NextSuggested(ctx, entries)
	switch {
	case err == nil:
		rounded := domain.Round2(next)
		summary.NextSuggested = &rounded
	case errors.Is(err, index.ErrUnavailable):
		summary.NextMessage = pendingMessage(err, s.now)
	default:
		return Summary{}, fmt.Errorf("suggesting next contribution: %w", err)
	}

	return summary, nil
}

// recentContributions returns the newest entries, oldest first, capped at
// recentLimit. Input is already chronological.
func recentContributions(entries []domain.Contribution) []domain.Contribution {
	if len(entries) <= recentLimit {
		return entries
	}
	return entries[len(entries)-recentLimit:]
}

// pendingMessage names the month whose index publication is still pending.
func pendingMessage(err error, now domain.Clock) string {
	month := domain.MonthOf(now())
	var unavailable *index.UnavailableError
	if errors.As(err, &unavailable) {
		month = unavailable.Month
	}
	return fmt.Sprintf("IPCA de %02d/%04d ainda não foi divulgado pelo BCB. Aguarde a publicação oficial.",
		int(month.Month), month.Year)
}

var _ Corrector = (*correction.Service)(nil)
