// Package export writes portfolio and dashboard reports to spreadsheets.
package export

import (
	"context"
	"fmt"
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/finlab-br/patrimonio/internal/dashboard"
	"github.com/finlab-br/patrimonio/internal/domain"
	"github.com/finlab-br/patrimonio/internal/ledger"
	"github.com/finlab-br/patrimonio/internal/projection"
)

// Report is the assembled export payload.
type Report struct {
	Portfolio   ledger.Summary
	Dashboard   dashboard.Summary
	GeneratedAt time.Time
}

// SheetWriter writes a report to a spreadsheet destination.
type SheetWriter interface {
	Write(ctx context.Context, report Report) error
}

// Service assembles reports and delegates writing to a SheetWriter.
type Service struct {
	dashboards   Dashboards
	transactions TransactionLister
	quotes       ledger.QuoteProvider
	writer       SheetWriter
	now          domain.Clock
}

// Dashboards builds the per-user landing summary.
type Dashboards interface {
	Build(ctx context.Context, userID string) (dashboard.Summary, error)
}

// TransactionLister supplies a user's operations in chronological order.
type TransactionLister interface {
	List(ctx context.Context, userID string) ([]domain.Transaction, error)
}

// NewService creates a new export Service.
func NewService(dashboards Dashboards, transactions TransactionLister, quotes ledger.QuoteProvider, writer SheetWriter, clock domain.Clock) *Service {
	if clock == nil {
		clock = domain.SystemClock
	}
	return &Service{
		dashboards:   dashboards,
		transactions: transactions,
		quotes:       quotes,
		writer:       writer,
		now:          clock,
	}
}

// Export builds the user's report and writes it to the configured sheet.
func (s *Service) Export(ctx context.Context, userID string) error {
	summary, err := s.dashboards.Build(ctx, userID)
	if err != nil {
		return fmt.Errorf("building dashboard: %w", err)
	}

	txs, err := s.transactions.List(ctx, userID)
	if err != nil {
		return fmt.Errorf("listing transactions: %w", err)
	}
	positions, err := ledger.Consolidate(txs, ledger.OversellDrop)
	if err != nil {
		return fmt.Errorf("consolidating ledger: %w", err)
	}
	ledger.Enrich(ctx, positions, s.quotes)

	return s.writer.Write(ctx, Report{
		Portfolio:   ledger.Summarize(positions),
		Dashboard:   summary,
		GeneratedAt: s.now(),
	})
}

// buildPortfolioRows flattens the consolidated positions.
// Columns: Asset | Class | Quantity | Avg Cost | Cost Basis | Market Price | Market Value | Unrealized P/L
func buildPortfolioRows(summary ledger.Summary) [][]any {
	data := make([][]any, 0, len(summary.Positions)+2)
	data = append(data, []any{
		"Asset", "Class", "Quantity", "Avg Cost", "Cost Basis",
		"Market Price", "Market Value", "Unrealized P/L",
	})

	for _, pos := range summary.Positions {
		data = append(data, []any{
			pos.AssetKey, string(pos.Class),
			toFloat(pos.Quantity), toFloat(pos.AvgCost), toFloat(pos.CostBasis),
			ptrFloat(pos.MarketPrice), ptrFloat(pos.MarketValue), ptrFloat(pos.UnrealizedPL),
		})
	}

	data = append(data, []any{
		"TOTAL", "", nil, nil,
		toFloat(summary.TotalCostBasis), nil,
		toFloat(summary.TotalValue), toFloat(summary.TotalUnrealizedPL),
	})
	return data
}

// buildDashboardRows flattens the aggregate figures and the final balance of
// each projection scenario.
func buildDashboardRows(report Report) [][]any {
	data := [][]any{
		{"Metric", "Value"},
		{"Generated at", report.GeneratedAt.Format("2006-01-02 15:04")},
		{"Total contributed", toFloat(report.Dashboard.Total)},
		{"Contributions", report.Dashboard.Count},
		{"Monthly mean", toFloat(report.Dashboard.MonthlyMean)},
		{"Largest contribution", toFloat(report.Dashboard.Largest)},
	}

	if report.Dashboard.NextSuggested != nil {
		data = append(data, []any{"Next suggested", toFloat(*report.Dashboard.NextSuggested)})
	} else if report.Dashboard.NextMessage != "" {
		data = append(data, []any{"Next suggested", report.Dashboard.NextMessage})
	}

	rows := lo.Map(report.Dashboard.Projections, func(p projection.ScenarioResult, _ int) []any {
		label := fmt.Sprintf("Projection %s (%d months)", p.Name, len(p.Values))
		if len(p.Values) == 0 {
			return []any{label, nil}
		}
		return []any{label, toFloat(p.Values[len(p.Values)-1])}
	})
	return append(data, rows...)
}

func toFloat(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}

func ptrFloat(d *decimal.Decimal) any {
	if d == nil {
		return nil
	}
	f, _ := d.Float64()
	return f
}
