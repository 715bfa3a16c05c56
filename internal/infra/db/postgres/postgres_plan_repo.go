package postgres

import (
	"context"

	"github.com/jackc/pgx/v4/pgxpool"

	"billing-service/internal/domain"
	"billing-service/internal/domain/model"
	"billing-service/internal/domain/ports/repository"
)

// Ensure planRepo implements repository.SubscriptionPlanRepository
var _ repository.SubscriptionPlanRepository = (*planRepo)(nil)

type planRepo struct {
	pool *pgxpool.Pool
}

func NewPlanRepo(pool *pgxpool.Pool) *planRepo {
	return &planRepo{pool: pool}
}

const planColumns = `
id, name, provider_product_id, credits, price_cents, currency, interval, created_at, updated_at`

func (r *planRepo) FindByID(ctx context.Context, tx repository.Tx, id int64) (*model.SubscriptionPlan, error) {
	const q = `
SELECT ` + planColumns + `
  FROM subscription_plans
 WHERE id=$1;`
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	return scanPlan(row)
}

func (r *planRepo) FindByProviderProductID(ctx context.Context, tx repository.Tx, productID string) (*model.SubscriptionPlan, error) {
	const q = `
SELECT ` + planColumns + `
  FROM subscription_plans
 WHERE provider_product_id=$1
 LIMIT 1;`
	row, err := pickRow(ctx, r.pool, tx, q, productID)
	if err != nil {
		return nil, err
	}
	return scanPlan(row)
}

func (r *planRepo) ListAll(ctx context.Context, tx repository.Tx) ([]*model.SubscriptionPlan, error) {
	const q = `
SELECT ` + planColumns + `
  FROM subscription_plans
 ORDER BY id ASC;`
	rows, err := queryRows(ctx, r.pool, tx, q)
	if err != nil {
		switch err {
		case domain.ErrInvalidArgument, domain.ErrInvalidExecContext:
			return nil, err
		default:
			return nil, domain.ErrOperationFailed
		}
	}
	defer rows.Close()
	out := []*model.SubscriptionPlan{}
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	return out, nil
}

func (r *planRepo) Save(ctx context.Context, tx repository.Tx, p *model.SubscriptionPlan) error {
	const q = `
INSERT INTO subscription_plans (
  id, name, provider_product_id, credits, price_cents, currency, interval, created_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
ON CONFLICT (id) DO UPDATE SET
  name=$2, provider_product_id=$3, credits=$4, price_cents=$5, currency=$6, interval=$7, updated_at=$9;`
	_, err := execSQL(ctx, r.pool, tx, q,
		p.ID, p.Name, p.ProviderProductID, p.Credits, p.PriceCents, p.Currency, p.Interval, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return mapWriteError(err)
	}
	return nil
}

func scanPlan(row rowScanner) (*model.SubscriptionPlan, error) {
	p := &model.SubscriptionPlan{}
	if err := row.Scan(
		&p.ID, &p.Name, &p.ProviderProductID, &p.Credits, &p.PriceCents, &p.Currency, &p.Interval, &p.CreatedAt, &p.UpdatedAt,
	); err != nil {
		return nil, mapScanError(err)
	}
	return p, nil
}
