// Package ledger folds the append-only buy/sell operation ledger into net
// per-asset positions. Consolidation is a pure fold, recomputed from scratch
// on every request.
package ledger

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/finlab-br/patrimonio/internal/domain"
)

// ErrOversold is returned under OversellReject when a SELL exceeds the
// currently held quantity.
var ErrOversold = errors.New("sell exceeds held quantity")

// OversoldError names the asset whose position went negative.
type OversoldError struct {
	AssetKey string
}

func (e *OversoldError) Error() string {
	return fmt.Sprintf("sell exceeds held quantity for %s", e.AssetKey)
}

func (e *OversoldError) Unwrap() error { return ErrOversold }

// OversellPolicy decides what a SELL beyond the held quantity does.
type OversellPolicy int

const (
	// OversellDrop computes anyway; the resulting non-positive position is
	// dropped with the other closed positions. Default, matching the
	// permissive write path.
	OversellDrop OversellPolicy = iota
	// OversellReject aborts consolidation with an OversoldError.
	OversellReject
)

// Consolidate folds the transactions into net positions keyed by ticker or
// name. BUY recomputes the weighted-average cost; SELL shrinks the basis
// proportionally and leaves the average untouched. Positions whose quantity
// ends at or below zero are absent from the result.
func Consolidate(txs []domain.Transaction, policy OversellPolicy) (map[string]domain.Position, error) {
	ordered := make([]domain.Transaction, len(txs))
	copy(ordered, txs)
	domain.SortChronological(ordered)

	positions := make(map[string]domain.Position)
	for _, tx := range ordered {
		key := tx.AssetKey()
		pos, ok := positions[key]
		if !ok {
			pos = domain.Position{
				AssetKey: key,
				Ticker:   tx.Ticker,
				Name:     tx.Name,
				Class:    tx.Class,
			}
		}

		switch tx.Kind {
		case domain.OperationBuy:
			pos.Quantity = pos.Quantity.Add(tx.Quantity)
			pos.CostBasis = pos.CostBasis.Add(tx.Total)
			if pos.Quantity.IsPositive() {
				pos.AvgCost = pos.CostBasis.Div(pos.Quantity)
			}
		case domain.OperationSell:
			pos.Quantity = pos.Quantity.Sub(tx.Quantity)
			if pos.Quantity.IsNegative() && policy == OversellReject {
				return nil, &OversoldError{AssetKey: key}
			}
			if pos.Quantity.IsPositive() {
				// Average cost carries forward; the basis shrinks in
				// proportion to what is left.
				pos.CostBasis = pos.AvgCost.Mul(pos.Quantity)
			} else {
				pos.CostBasis = decimal.Zero
			}
		}

		positions[key] = pos
	}

	for key, pos := range positions {
		if !pos.Quantity.IsPositive() {
			delete(positions, key)
		}
	}
	return positions, nil
}
