package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Contribution is a single ledger entry of money put aside by a user.
// CorrectedAmount is a derived cache populated by the correction engine;
// everything else is immutable after creation except by explicit user edit.
type Contribution struct {
	ID              uuid.UUID        `json:"id"`
	UserID          string           `json:"userId"`
	Date            time.Time        `json:"date"`
	Amount          decimal.Decimal  `json:"amount"`
	CorrectedAmount *decimal.Decimal `json:"correctedAmount,omitempty"`
	Note            string           `json:"note,omitempty"`
	CreatedAt       time.Time        `json:"createdAt"`
}

// Month returns the calendar month the contribution belongs to.
func (c Contribution) Month() YearMonth {
	return MonthOf(c.Date)
}

// MonthlyPlan is the user's planned monthly contribution. At most one per user.
type MonthlyPlan struct {
	UserID        string          `json:"userId"`
	PlannedAmount decimal.Decimal `json:"plannedAmount"`
	StartDate     time.Time       `json:"startDate"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}
