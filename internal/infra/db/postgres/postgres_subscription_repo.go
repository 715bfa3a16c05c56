package postgres

import (
	"context"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"billing-service/internal/domain"
	"billing-service/internal/domain/model"
	"billing-service/internal/domain/ports/repository"
)

// Ensure subscriptionRepo implements repository.SubscriptionRepository
var _ repository.SubscriptionRepository = (*subscriptionRepo)(nil)

type subscriptionRepo struct {
	pool *pgxpool.Pool
}

func NewSubscriptionRepo(pool *pgxpool.Pool) *subscriptionRepo {
	return &subscriptionRepo{pool: pool}
}

const subscriptionColumns = `
id, user_id, plan_id, status, current_period_start, current_period_end,
provider_subscription_id, provider_customer_id, created_at, updated_at`

func (r *subscriptionRepo) Save(ctx context.Context, tx repository.Tx, s *model.UserSubscription) error {
	const q = `
INSERT INTO user_subscriptions (
  id, user_id, plan_id, status, current_period_start, current_period_end,
  provider_subscription_id, provider_customer_id, created_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
ON CONFLICT (id) DO UPDATE SET
  plan_id=$3, status=$4, current_period_start=$5, current_period_end=$6,
  provider_subscription_id=$7, provider_customer_id=$8, updated_at=$10;`

	_, err := execSQL(ctx, r.pool, tx, q,
		s.ID, s.UserID, s.PlanID, string(s.Status), s.CurrentPeriodStart, s.CurrentPeriodEnd,
		s.ProviderSubscriptionID, s.ProviderCustomerID, s.CreatedAt, s.UpdatedAt)
	if err != nil {
		return mapWriteError(err)
	}
	return nil
}

func (r *subscriptionRepo) FindByUser(ctx context.Context, tx repository.Tx, userID string) ([]*model.UserSubscription, error) {
	const q = `
SELECT ` + subscriptionColumns + `
  FROM user_subscriptions
 WHERE user_id=$1
 ORDER BY created_at DESC;`
	rows, err := queryRows(ctx, r.pool, tx, q, userID)
	if err != nil {
		switch err {
		case domain.ErrInvalidArgument, domain.ErrInvalidExecContext:
			return nil, err
		default:
			return nil, domain.ErrOperationFailed
		}
	}
	defer rows.Close()
	out := []*model.UserSubscription{}
	for rows.Next() {
		s, err := scanSub(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	return out, nil
}

func (r *subscriptionRepo) FindByProviderSubscriptionID(ctx context.Context, tx repository.Tx, providerSubID string) (*model.UserSubscription, error) {
	const q = `
SELECT ` + subscriptionColumns + `
  FROM user_subscriptions
 WHERE provider_subscription_id=$1
 LIMIT 1;`
	row, err := pickRow(ctx, r.pool, tx, q, providerSubID)
	if err != nil {
		return nil, err
	}
	return scanSub(row)
}

// UpdateStatusByProviderSubscriptionID touches only the status column.
// A missing row is not an error: the provider may push lifecycle events for
// subscriptions this service never recorded.
func (r *subscriptionRepo) UpdateStatusByProviderSubscriptionID(ctx context.Context, tx repository.Tx, providerSubID string, status model.SubscriptionStatus) error {
	const q = `
UPDATE user_subscriptions
   SET status=$2, updated_at=NOW()
 WHERE provider_subscription_id=$1;`
	_, err := execSQL(ctx, r.pool, tx, q, providerSubID, string(status))
	if err != nil {
		return mapWriteError(err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSub(row rowScanner) (*model.UserSubscription, error) {
	s := &model.UserSubscription{}
	var status string
	if err := row.Scan(
		&s.ID, &s.UserID, &s.PlanID, &status, &s.CurrentPeriodStart, &s.CurrentPeriodEnd,
		&s.ProviderSubscriptionID, &s.ProviderCustomerID, &s.CreatedAt, &s.UpdatedAt,
	); err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	s.Status = model.SubscriptionStatus(status)
	return s, nil
}
