package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/finlab-br/patrimonio/internal/domain"
)

// PlanRepository stores the single monthly plan each user keeps.
type PlanRepository interface {
	Get(ctx context.Context, userID string) (*domain.MonthlyPlan, error)
	Upsert(ctx context.Context, p *domain.MonthlyPlan) error
}

// PgPlanRepository implements PlanRepository with PostgreSQL.
type PgPlanRepository struct {
	pool *pgxpool.Pool
}

func NewPgPlanRepository(pool *pgxpool.Pool) *PgPlanRepository {
	return &PgPlanRepository{pool: pool}
}

func (r *PgPlanRepository) Get(ctx context.Context, userID string) (*domain.MonthlyPlan, error) {
	var p domain.MonthlyPlan
	err := r.pool.QueryRow(ctx,
		`SELECT user_id, planned_amount, start_date, updated_at
		 FROM monthly_plans
		 WHERE user_id = $1`, userID).
		Scan(&p.UserID, &p.PlannedAmount, &p.StartDate, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("getting plan: %w", err)
	}
	return &p, nil
}

func (r *PgPlanRepository) Upsert(ctx context.Context, p *domain.MonthlyPlan) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO monthly_plans (user_id, planned_amount, start_date)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (user_id)
		 DO UPDATE SET planned_amount = $2, start_date = $3, updated_at = now()
		 RETURNING updated_at`,
		p.UserID, p.PlannedAmount, p.StartDate).Scan(&p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upserting plan: %w", err)
	}
	return nil
}
