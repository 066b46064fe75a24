// Package valuation combines three independent fair-value heuristics into a
// single voted recommendation. Each method is omitted, not defaulted, when
// its required fundamentals are absent; a zero input is "unknown", never a
// real financial value.
package valuation

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/finlab-br/patrimonio/internal/domain"
)

// Status is a method's (or the aggregate's) verdict.
type Status string

const (
	StatusBuy              Status = "BUY"
	StatusWait             Status = "WAIT"
	StatusSell             Status = "SELL"
	StatusInsufficientData Status = "INSUFFICIENT_DATA"
)

const (
	// bazinCeilingRate is the minimum dividend yield Bazin demands: the
	// ceiling price is the implied dividend per share capitalized at 6%.
	bazinCeilingRate = "0.06"
	// bazinWaitBand keeps WAIT up to 5% above the ceiling.
	bazinWaitBand = "1.05"

	// grahamMultiplier is the 22.5 of sqrt(22.5 × EPS × book value).
	grahamMultiplier = "22.5"
	// grahamBookMargin is the BUY margin when book value is available. The
	// data-complete formula earns the stricter margin.
	grahamBookMargin = "0.66"
	// grahamFallbackPE is the earnings multiple when book value is absent.
	grahamFallbackPE = "15"
	// grahamFallbackMargin is the BUY margin for the fallback formula.
	grahamFallbackMargin = "0.75"

	// lynchBuyPEG is the PEG below which Lynch says BUY. Published
	// treatments range 0.5-1.0; 0.8 is the least aggressive cutoff that
	// still leaves a WAIT band.
	lynchBuyPEG = "0.8"
	// lynchWaitPEG is the PEG up to which Lynch says WAIT.
	lynchWaitPEG = "1.5"
)

// MethodResult is one heuristic's output. FairValue and MarginPct are nil
// when the method had insufficient data.
type MethodResult struct {
	Method    string           `json:"method"`
	Status    Status           `json:"status"`
	FairValue *decimal.Decimal `json:"fairValue,omitempty"`
	MarginPct *decimal.Decimal `json:"marginPct,omitempty"`
	// PEG is populated by the Lynch method only.
	PEG *decimal.Decimal `json:"peg,omitempty"`
}

var hundred = decimal.NewFromInt(100)

// marginPct computes (fair − price) / fair × 100.
func marginPct(fair, price decimal.Decimal) *decimal.Decimal {
	m := domain.Round2(fair.Sub(price).Div(fair).Mul(hundred))
	return &m
}

func insufficient(method string) MethodResult {
	return MethodResult{Method: method, Status: StatusInsufficientData}
}

// bazin prices the stock by its dividend stream: the implied dividend per
// share capitalized at the ceiling rate gives the maximum price worth
// paying.
func bazin(f domain.Fundamentals) MethodResult {
	if !f.HasPrice() || !f.DividendYield.IsPositive() {
		return insufficient("bazin")
	}

	dividendPerShare := f.DividendYield.Div(hundred).Mul(f.Price)
	ceiling := dividendPerShare.Div(decimal.RequireFromString(bazinCeilingRate))

	r := MethodResult{Method: "bazin"}
	rounded := domain.Round2(ceiling)
	r.FairValue = &rounded
	r.MarginPct = marginPct(ceiling, f.Price)

	switch {
	case f.Price.LessThanOrEqual(ceiling):
		r.Status = StatusBuy
	case f.Price.LessThanOrEqual(ceiling.Mul(decimal.RequireFromString(bazinWaitBand))):
		r.Status = StatusWait
	default:
		r.Status = StatusSell
	}
	return r
}

// graham uses the asset-and-earnings fair price sqrt(22.5 × EPS × BV) when
// book value is known, falling back to a plain earnings multiple otherwise.
func graham(f domain.Fundamentals) MethodResult {
	if !f.HasPrice() || !f.EPS.IsPositive() {
		return insufficient("graham")
	}

	var fair, buyMargin decimal.Decimal
	if f.BookValue.IsPositive() {
		product, _ := decimal.RequireFromString(grahamMultiplier).
			Mul(f.EPS).Mul(f.BookValue).Float64()
		fair = decimal.NewFromFloat(math.Sqrt(product))
		buyMargin = decimal.RequireFromString(grahamBookMargin)
	} else {
		fair = f.EPS.Mul(decimal.RequireFromString(grahamFallbackPE))
		buyMargin = decimal.RequireFromString(grahamFallbackMargin)
	}

	r := MethodResult{Method: "graham"}
	rounded := domain.Round2(fair)
	r.FairValue = &rounded
	r.MarginPct = marginPct(fair, f.Price)

	switch {
	case f.Price.LessThanOrEqual(fair.Mul(buyMargin)):
		r.Status = StatusBuy
	case f.Price.LessThanOrEqual(fair):
		r.Status = StatusWait
	default:
		r.Status = StatusSell
	}
	return r
}

// lynch classifies by the PEG ratio (P/E over growth, with ROE standing in
// for growth) and prices the stock at EPS × ROE.
func lynch(f domain.Fundamentals) MethodResult {
	if !f.HasPrice() || !f.PE.IsPositive() || !f.ROE.IsPositive() {
		return insufficient("lynch")
	}

	peg := f.PE.Div(f.ROE)
	r := MethodResult{Method: "lynch"}
	roundedPEG := peg.Round(2)
	r.PEG = &roundedPEG

	if ideal := f.EPS.Mul(f.ROE); ideal.IsPositive() {
		rounded := domain.Round2(ideal)
		r.FairValue = &rounded
		r.MarginPct = marginPct(ideal, f.Price)
	}

	switch {
	case peg.LessThan(decimal.RequireFromString(lynchBuyPEG)):
		r.Status = StatusBuy
	case peg.LessThanOrEqual(decimal.RequireFromString(lynchWaitPEG)):
		r.Status = StatusWait
	default:
		r.Status = StatusSell
	}
	return r
}
