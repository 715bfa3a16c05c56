package postgres

import (
	"context"

	"github.com/jackc/pgx/v4/pgxpool"

	"billing-service/internal/domain/model"
	"billing-service/internal/domain/ports/repository"
)

// Ensure creditUsageRepo implements repository.CreditUsageRepository
var _ repository.CreditUsageRepository = (*creditUsageRepo)(nil)

type creditUsageRepo struct {
	pool *pgxpool.Pool
}

func NewCreditUsageRepo(pool *pgxpool.Pool) *creditUsageRepo {
	return &creditUsageRepo{pool: pool}
}

func (r *creditUsageRepo) FindByUser(ctx context.Context, tx repository.Tx, userID string) (*model.CreditUsage, error) {
	const q = `
SELECT id, user_id, used_credits, total_credits, period_start, period_end, created_at, updated_at
  FROM credit_usage
 WHERE user_id=$1
 LIMIT 1;`
	row, err := pickRow(ctx, r.pool, tx, q, userID)
	if err != nil {
		return nil, err
	}
	c := &model.CreditUsage{}
	if err := row.Scan(&c.ID, &c.UserID, &c.UsedCredits, &c.TotalCredits, &c.PeriodStart, &c.PeriodEnd, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, mapScanError(err)
	}
	return c, nil
}

func (r *creditUsageRepo) Save(ctx context.Context, tx repository.Tx, c *model.CreditUsage) error {
	const q = `
INSERT INTO credit_usage (
  id, user_id, used_credits, total_credits, period_start, period_end, created_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8);`
	_, err := execSQL(ctx, r.pool, tx, q,
		c.ID, c.UserID, c.UsedCredits, c.TotalCredits, c.PeriodStart, c.PeriodEnd, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return mapWriteError(err)
	}
	return nil
}

func (r *creditUsageRepo) Update(ctx context.Context, tx repository.Tx, c *model.CreditUsage) error {
	const q = `
UPDATE credit_usage
   SET used_credits=$2, total_credits=$3, period_start=$4, period_end=$5, updated_at=$6
 WHERE user_id=$1;`
	_, err := execSQL(ctx, r.pool, tx, q,
		c.UserID, c.UsedCredits, c.TotalCredits, c.PeriodStart, c.PeriodEnd, c.UpdatedAt)
	if err != nil {
		return mapWriteError(err)
	}
	return nil
}
