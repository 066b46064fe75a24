package ledger

import (
	"context"
	"log/slog"
	"sort"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/finlab-br/patrimonio/internal/domain"
)

// QuoteProvider supplies a live unit price for a ticker. Satisfied by
// quote.Service.
type QuoteProvider interface {
	GetPrice(ctx context.Context, ticker string) (decimal.Decimal, error)
}

// Enrich attaches market data to every position with a ticker. A failed
// quote fetch degrades that one position to cost-basis-only; the remaining
// positions still get their prices.
func Enrich(ctx context.Context, positions map[string]domain.Position, quotes QuoteProvider) {
	for key, pos := range positions {
		if pos.Ticker == "" {
			continue
		}

		price, err := quotes.GetPrice(ctx, pos.Ticker)
		if err != nil {
			slog.Warn("quote fetch failed, keeping cost basis",
				"ticker", pos.Ticker, "error", err)
			continue
		}

		marketValue := price.Mul(pos.Quantity)
		unrealized := marketValue.Sub(pos.CostBasis)
		pos.MarketPrice = &price
		pos.MarketValue = &marketValue
		pos.UnrealizedPL = &unrealized
		positions[key] = pos
	}
}

// ClassTotal aggregates the positions of one asset class.
type ClassTotal struct {
	Class     domain.AssetClass `json:"class"`
	Positions int               `json:"positions"`
	CostBasis decimal.Decimal   `json:"costBasis"`
	Value     decimal.Decimal   `json:"value"`
}

// Summary is the consolidated portfolio view.
type Summary struct {
	Positions      []domain.Position `json:"positions"`
	ByClass        []ClassTotal      `json:"byClass"`
	TotalCostBasis decimal.Decimal   `json:"totalCostBasis"`
	TotalValue     decimal.Decimal   `json:"totalValue"`
	// TotalUnrealizedPL covers only positions with a live quote.
	TotalUnrealizedPL decimal.Decimal `json:"totalUnrealizedPl"`
}

// Summarize flattens the position map into a stable, display-ready summary.
// Positions without a live quote contribute their cost basis to TotalValue.
func Summarize(positions map[string]domain.Position) Summary {
	list := lo.Values(positions)
	sort.Slice(list, func(i, j int) bool { return list[i].AssetKey < list[j].AssetKey })

	s := Summary{Positions: list}
	for _, pos := range list {
		s.TotalCostBasis = s.TotalCostBasis.Add(pos.CostBasis)
		s.TotalValue = s.TotalValue.Add(pos.CurrentValue())
		if pos.UnrealizedPL != nil {
			s.TotalUnrealizedPL = s.TotalUnrealizedPL.Add(*pos.UnrealizedPL)
		}
	}

	groups := lo.GroupBy(list, func(p domain.Position) domain.AssetClass { return p.Class })
	for class, group := range groups {
		total := ClassTotal{Class: class, Positions: len(group)}
		for _, pos := range group {
			total.CostBasis = total.CostBasis.Add(pos.CostBasis)
			total.Value = total.Value.Add(pos.CurrentValue())
		}
		s.ByClass = append(s.ByClass, total)
	}
	sort.Slice(s.ByClass, func(i, j int) bool { return s.ByClass[i].Class < s.ByClass[j].Class })

	return s
}
