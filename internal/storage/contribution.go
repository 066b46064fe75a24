// Package storage implements PostgreSQL persistence for the ledgers.
package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/finlab-br/patrimonio/internal/domain"
)

// ErrNotFound indicates that the requested row does not exist for the user.
var ErrNotFound = errors.New("not found")

// ContributionRepository defines persistent storage for contributions.
type ContributionRepository interface {
	Create(ctx context.Context, c *domain.Contribution) error
	Get(ctx context.Context, userID string, id uuid.UUID) (*domain.Contribution, error)
	List(ctx context.Context, userID string) ([]domain.Contribution, error)
	Update(ctx context.Context, c *domain.Contribution) error
	Delete(ctx context.Context, userID string, id uuid.UUID) error
	UpdateCorrected(ctx context.Context, userID string, id uuid.UUID, corrected decimal.Decimal) error
}

// PgContributionRepository implements ContributionRepository with PostgreSQL.
type PgContributionRepository struct {
	pool *pgxpool.Pool
}

func NewPgContributionRepository(pool *pgxpool.Pool) *PgContributionRepository {
	return &PgContributionRepository{pool: pool}
}

func (r *PgContributionRepository) Create(ctx context.Context, c *domain.Contribution) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	err := r.pool.QueryRow(ctx,
		`INSERT INTO contributions (id, user_id, date, amount, note)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING created_at`,
		c.ID, c.UserID, c.Date, c.Amount, c.Note).Scan(&c.CreatedAt)
	if err != nil {
		return fmt.Errorf("creating contribution: %w", err)
	}
	return nil
}

func (r *PgContributionRepository) Get(ctx context.Context, userID string, id uuid.UUID) (*domain.Contribution, error) {
	var c domain.Contribution
	err := r.pool.QueryRow(ctx,
		`SELECT id, user_id, date, amount, corrected_amount, note, created_at
		 FROM contributions
		 WHERE user_id = $1 AND id = $2`, userID, id).
		Scan(&c.ID, &c.UserID, &c.Date, &c.Amount, &c.CorrectedAmount, &c.Note, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("getting contribution: %w", err)
	}
	return &c, nil
}

// List returns the user's contributions in chronological order, ties broken
// by creation order.
func (r *PgContributionRepository) List(ctx context.Context, userID string) ([]domain.Contribution, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, user_id, date, amount, corrected_amount, note, created_at
		 FROM contributions
		 WHERE user_id = $1
		 ORDER BY date, created_at`, userID)
	if err != nil {
		return nil, fmt.Errorf("listing contributions: %w", err)
	}
	defer rows.Close()

	var out []domain.Contribution
	for rows.Next() {
		var c domain.Contribution
		if err := rows.Scan(&c.ID, &c.UserID, &c.Date, &c.Amount, &c.CorrectedAmount, &c.Note, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning contribution: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating contributions: %w", err)
	}
	return out, nil
}

// Update rewrites the editable fields and invalidates the corrected cache,
// since a changed date or amount makes the stored correction stale.
func (r *PgContributionRepository) Update(ctx context.Context, c *domain.Contribution) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE contributions
		 SET date = $3, amount = $4, note = $5, corrected_amount = NULL
		 WHERE user_id = $1 AND id = $2`,
		c.UserID, c.ID, c.Date, c.Amount, c.Note)
	if err != nil {
		return fmt.Errorf("updating contribution: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PgContributionRepository) Delete(ctx context.Context, userID string, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM contributions WHERE user_id = $1 AND id = $2`, userID, id)
	if err != nil {
		return fmt.Errorf("deleting contribution: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PgContributionRepository) UpdateCorrected(ctx context.Context, userID string, id uuid.UUID, corrected decimal.Decimal) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE contributions SET corrected_amount = $3 WHERE user_id = $1 AND id = $2`,
		userID, id, corrected)
	if err != nil {
		return fmt.Errorf("updating corrected amount: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
