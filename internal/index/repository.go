package index

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/finlab-br/patrimonio/internal/domain"
)

// PgCache implements Cache with PostgreSQL. Only published rates are stored;
// a cache miss means the month must be asked of the upstream again.
type PgCache struct {
	pool *pgxpool.Pool
}

// NewPgCache creates a PostgreSQL index rate cache.
func NewPgCache(pool *pgxpool.Pool) *PgCache {
	return &PgCache{pool: pool}
}

func (c *PgCache) Get(ctx context.Context, month domain.YearMonth) (decimal.Decimal, bool, error) {
	var rate decimal.Decimal
	err := c.pool.QueryRow(ctx,
		`SELECT rate FROM index_rates WHERE year = $1 AND month = $2`,
		month.Year, int(month.Month)).Scan(&rate)
	if errors.Is(err, pgx.ErrNoRows) {
		return decimal.Zero, false, nil
	}
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("reading index rate for %s: %w", month, err)
	}
	return rate, true, nil
}

func (c *PgCache) Put(ctx context.Context, month domain.YearMonth, rate decimal.Decimal) error {
	_, err := c.pool.Exec(ctx,
		`INSERT INTO index_rates (year, month, rate, fetched_at)
		 VALUES ($1, $2, $3, NOW())
		 ON CONFLICT (year, month) DO UPDATE SET rate = $3, fetched_at = NOW()`,
		month.Year, int(month.Month), rate)
	if err != nil {
		return fmt.Errorf("saving index rate for %s: %w", month, err)
	}
	return nil
}
