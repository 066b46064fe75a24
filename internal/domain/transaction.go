package domain

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OperationKind distinguishes buys from sells in the operation ledger.
type OperationKind string

const (
	OperationBuy  OperationKind = "BUY"
	OperationSell OperationKind = "SELL"
)

// AssetClass classifies an asset for grouping and display.
type AssetClass string

const (
	AssetClassStocks      AssetClass = "STOCKS"
	AssetClassFunds       AssetClass = "FUNDS"
	AssetClassREITs       AssetClass = "REITS"
	AssetClassCrypto      AssetClass = "CRYPTO"
	AssetClassBDRs        AssetClass = "BDRS"
	AssetClassETFs        AssetClass = "ETFS"
	AssetClassTreasury    AssetClass = "TREASURY"
	AssetClassFixedIncome AssetClass = "FIXED_INCOME"
	AssetClassOther       AssetClass = "OTHER"
)

// Transaction is one buy or sell operation in the ledger. Quantity carries
// enough precision for fractional crypto units. The FixedIncome block is
// populated only for fixed-income instruments.
type Transaction struct {
	ID        uuid.UUID       `json:"id"`
	UserID    string          `json:"userId"`
	Kind      OperationKind   `json:"kind"`
	Class     AssetClass      `json:"class"`
	Ticker    string          `json:"ticker,omitempty"`
	Name      string          `json:"name"`
	Date      time.Time       `json:"date"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Costs     decimal.Decimal `json:"costs"`
	Total     decimal.Decimal `json:"total"`

	FixedIncome *FixedIncomeDetails `json:"fixedIncome,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// FixedIncomeDetails carries the instrument fields specific to fixed income.
type FixedIncomeDetails struct {
	Issuer         string     `json:"issuer,omitempty"`
	Subtype        string     `json:"subtype,omitempty"`
	RateIndex      string     `json:"rateIndex,omitempty"`
	MaturityDate   *time.Time `json:"maturityDate,omitempty"`
	DailyLiquidity bool       `json:"dailyLiquidity"`
}

// AssetKey returns the key positions are consolidated under: the ticker when
// present, otherwise the display name.
func (t Transaction) AssetKey() string {
	if t.Ticker != "" {
		return t.Ticker
	}
	return t.Name
}

// SortChronological orders transactions by date, ties broken by creation
// order. Consolidation depends on this ordering.
func SortChronological(txs []Transaction) {
	sort.SliceStable(txs, func(i, j int) bool {
		if !txs[i].Date.Equal(txs[j].Date) {
			return txs[i].Date.Before(txs[j].Date)
		}
		return txs[i].CreatedAt.Before(txs[j].CreatedAt)
	})
}
