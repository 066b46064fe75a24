package quote

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository is persistent storage for fetched quotes.
type Repository interface {
	Save(ctx context.Context, q Quote) error
	Get(ctx context.Context, ticker string) (Quote, bool, error)
}

// PgRepository implements Repository with PostgreSQL.
type PgRepository struct {
	pool *pgxpool.Pool
}

// NewPgRepository creates a PostgreSQL quote repository.
func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

func (r *PgRepository) Save(ctx context.Context, q Quote) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO quotes (ticker, price, long_name, currency, updated_at)
		 VALUES ($1, $2, $3, $4, NOW())
		 ON CONFLICT (ticker) DO UPDATE
		 SET price = $2, long_name = $3, currency = $4, updated_at = NOW()`,
		q.Ticker, q.Price, q.LongName, q.Currency)
	if err != nil {
		return fmt.Errorf("saving quote for %s: %w", q.Ticker, err)
	}
	return nil
}

func (r *PgRepository) Get(ctx context.Context, ticker string) (Quote, bool, error) {
	var q Quote
	err := r.pool.QueryRow(ctx,
		`SELECT ticker, price, long_name, currency, updated_at
		 FROM quotes WHERE ticker = $1`,
		ticker).Scan(&q.Ticker, &q.Price, &q.LongName, &q.Currency, &q.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Quote{}, false, nil
	}
	if err != nil {
		return Quote{}, false, fmt.Errorf("getting quote for %s: %w", ticker, err)
	}
	return q, true, nil
}
