// Package projection simulates compound growth of a balance under periodic
// contributions. Pure decimal arithmetic end to end; only the returned
// display values are rounded.
package projection

import (
	"math"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/finlab-br/patrimonio/internal/domain"
)

// Horizon is the default projection length in months.
const Horizon = 120

var one = decimal.NewFromInt(1)

// MonthlyRate converts an annual rate to its equivalent monthly rate via
// (1+annual)^(1/12)-1. Dividing by 12 is a common shortcut that overstates
// compounding and must not be used here.
func MonthlyRate(annualRate decimal.Decimal) decimal.Decimal {
	annual, _ := annualRate.Float64()
	monthly := math.Pow(1+annual, 1.0/12.0) - 1
	return decimal.NewFromFloat(monthly)
}

// Project simulates `periods` months of growth: each month the contribution
// lands at the start of the period and the whole balance compounds at the
// monthly rate. The result has exactly `periods` period-end balances,
// rounded to display precision.
func Project(initial, contribution decimal.Decimal, periods int, annualRate decimal.Decimal) []decimal.Decimal {
	growth := one.Add(MonthlyRate(annualRate))
	balance := initial

	out := make([]decimal.Decimal, 0, periods)
	for range periods {
		balance = balance.Add(contribution).Mul(growth)
		out = append(out, balance)
	}
	return domain.Round2Slice(out)
}

// Scenario pairs a label with an annual return rate.
type Scenario struct {
	Name       string          `json:"name"`
	AnnualRate decimal.Decimal `json:"annualRate"`
}

// DefaultScenarios are the three fixed forward-looking scenarios shown on
// the dashboard.
var DefaultScenarios = []Scenario{
	{Name: "conservative", AnnualRate: decimal.RequireFromString("0.08")},
	{Name: "moderate", AnnualRate: decimal.RequireFromString("0.12")},
	{Name: "aggressive", AnnualRate: decimal.RequireFromString("0.14")},
}

// ScenarioResult is one projected sequence.
type ScenarioResult struct {
	Scenario
	Values []decimal.Decimal `json:"values"`
}

// Scenarios projects every default scenario over a shared horizon.
func Scenarios(initial, contribution decimal.Decimal, periods int) []ScenarioResult {
	return lo.Map(DefaultScenarios, func(s Scenario, _ int) ScenarioResult {
		return ScenarioResult{
			Scenario: s,
			Values:   Project(initial, contribution, periods, s.AnnualRate),
		}
	})
}
