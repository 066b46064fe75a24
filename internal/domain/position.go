package domain

import "github.com/shopspring/decimal"

// Position is the net holding derived from the operation ledger. It is
// recomputed from scratch on every consolidation and never persisted.
// Market fields are nil until quote enrichment runs, and stay nil when the
// quote provider fails for this asset.
type Position struct {
	AssetKey string     `json:"assetKey"`
	Ticker   string     `json:"ticker,omitempty"`
	Name     string     `json:"name"`
	Class    AssetClass `json:"class"`

	Quantity  decimal.Decimal `json:"quantity"`
	AvgCost   decimal.Decimal `json:"avgCost"`
	CostBasis decimal.Decimal `json:"costBasis"`

	MarketPrice  *decimal.Decimal `json:"marketPrice,omitempty"`
	MarketValue  *decimal.Decimal `json:"marketValue,omitempty"`
	UnrealizedPL *decimal.Decimal `json:"unrealizedPl,omitempty"`
}

// CurrentValue returns the market value when a quote is available, otherwise
// the cost basis. Aggregates that need a number per asset use this fallback.
func (p Position) CurrentValue() decimal.Decimal {
	if p.MarketValue != nil {
		return *p.MarketValue
	}
	return p.CostBasis
}
