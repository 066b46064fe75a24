package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/finlab-br/patrimonio/internal/domain"
)

// TransactionRepository defines persistent storage for ledger operations.
type TransactionRepository interface {
	Create(ctx context.Context, t *domain.Transaction) error
	Get(ctx context.Context, userID string, id uuid.UUID) (*domain.Transaction, error)
	List(ctx context.Context, userID string) ([]domain.Transaction, error)
	Update(ctx context.Context, t *domain.Transaction) error
	Delete(ctx context.Context, userID string, id uuid.UUID) error
	DistinctTickers(ctx context.Context) ([]string, error)
}

// PgTransactionRepository implements TransactionRepository with PostgreSQL.
type PgTransactionRepository struct {
	pool *pgxpool.Pool
}

func NewPgTransactionRepository(pool *pgxpool.Pool) *PgTransactionRepository {
	return &PgTransactionRepository{pool: pool}
}

const transactionColumns = `id, user_id, kind, class, ticker, name, date, quantity, unit_price, costs, total,
	fi_issuer, fi_subtype, fi_rate_index, fi_maturity_date, fi_daily_liquidity, created_at, updated_at`

func (r *PgTransactionRepository) Create(ctx context.Context, t *domain.Transaction) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	fi := t.FixedIncome
	if fi == nil {
		fi = &domain.FixedIncomeDetails{}
	}
	err := r.pool.QueryRow(ctx,
		`INSERT INTO transactions (id, user_id, kind, class, ticker, name, date, quantity, unit_price, costs, total,
		    fi_issuer, fi_subtype, fi_rate_index, fi_maturity_date, fi_daily_liquidity)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		 RETURNING created_at, updated_at`,
		t.ID, t.UserID, t.Kind, t.Class, t.Ticker, t.Name, t.Date,
		t.Quantity, t.UnitPrice, t.Costs, t.Total,
		fi.Issuer, fi.Subtype, fi.RateIndex, fi.MaturityDate, fi.DailyLiquidity).
		Scan(&t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("creating transaction: %w", err)
	}
	return nil
}

func (r *PgTransactionRepository) Get(ctx context.Context, userID string, id uuid.UUID) (*domain.Transaction, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+transactionColumns+`
		 FROM transactions
		 WHERE user_id = $1 AND id = $2`, userID, id)
	t, err := scanTransaction(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("getting transaction: %w", err)
	}
	return t, nil
}

// List returns the user's operations in chronological order, ties broken by
// creation order. Consolidation depends on this ordering.
func (r *PgTransactionRepository) List(ctx context.Context, userID string) ([]domain.Transaction, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+transactionColumns+`
		 FROM transactions
		 WHERE user_id = $1
		 ORDER BY date, created_at`, userID)
	if err != nil {
		return nil, fmt.Errorf("listing transactions: %w", err)
	}
	defer rows.Close()

	var out []domain.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning transaction: %w", err)
		}
		out = append(out, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating transactions: %w", err)
	}
	return out, nil
}

func (r *PgTransactionRepository) Update(ctx context.Context, t *domain.Transaction) error {
	fi := t.FixedIncome
	if fi == nil {
		fi = &domain.FixedIncomeDetails{}
	}
	tag, err := r.pool.Exec(ctx,
		`UPDATE transactions
		 SET kind = $3, class = $4, ticker = $5, name = $6, date = $7,
		     quantity = $8, unit_price = $9, costs = $10, total = $11,
		     fi_issuer = $12, fi_subtype = $13, fi_rate_index = $14,
		     fi_maturity_date = $15, fi_daily_liquidity = $16,
		     updated_at = now()
		 WHERE user_id = $1 AND id = $2`,
		t.UserID, t.ID, t.Kind, t.Class, t.Ticker, t.Name, t.Date,
		t.Quantity, t.UnitPrice, t.Costs, t.Total,
		fi.Issuer, fi.Subtype, fi.RateIndex, fi.MaturityDate, fi.DailyLiquidity)
	if err != nil {
		return fmt.Errorf("updating transaction: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PgTransactionRepository) Delete(ctx context.Context, userID string, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM transactions WHERE user_id = $1 AND id = $2`, userID, id)
	if err != nil {
		return fmt.Errorf("deleting transaction: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DistinctTickers returns every ticker referenced by any user, for the quote
// refresh worker.
func (r *PgTransactionRepository) DistinctTickers(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT DISTINCT ticker FROM transactions WHERE ticker <> '' ORDER BY ticker`)
	if err != nil {
		return nil, fmt.Errorf("listing tickers: %w", err)
	}
	defer rows.Close()

	var tickers []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("scanning ticker: %w", err)
		}
		tickers = append(tickers, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating tickers: %w", err)
	}
	return tickers, nil
}

func scanTransaction(row pgx.Row) (*domain.Transaction, error) {
	var t domain.Transaction
	var fi domain.FixedIncomeDetails
	err := row.Scan(&t.ID, &t.UserID, &t.Kind, &t.Class, &t.Ticker, &t.Name, &t.Date,
		&t.Quantity, &t.UnitPrice, &t.Costs, &t.Total,
		&fi.Issuer, &fi.Subtype, &fi.RateIndex, &fi.MaturityDate, &fi.DailyLiquidity,
		&t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if t.Class == domain.AssetClassFixedIncome || t.Class == domain.AssetClassTreasury {
		t.FixedIncome = &fi
	}
	return &t, nil
}
