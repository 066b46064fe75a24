package domain

import "github.com/shopspring/decimal"

// Fundamentals is the partial per-share record supplied by the extraction
// collaborator. Any field may be zero, meaning "not available"; consumers
// must gate on positivity, never treat a zero as a real financial value.
type Fundamentals struct {
	Ticker        string          `json:"ticker"`
	Price         decimal.Decimal `json:"price"`
	EPS           decimal.Decimal `json:"eps"`
	PE            decimal.Decimal `json:"pe"`
	ROE           decimal.Decimal `json:"roe"`           // percent
	DividendYield decimal.Decimal `json:"dividendYield"` // percent
	BookValue     decimal.Decimal `json:"bookValue"`
}

// HasPrice reports whether a usable current price is present.
func (f Fundamentals) HasPrice() bool { return f.Price.IsPositive() }
