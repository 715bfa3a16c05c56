package postgres

import (
	"context"

	"github.com/jackc/pgx/v4/pgxpool"

	"billing-service/internal/domain"
	"billing-service/internal/domain/model"
	"billing-service/internal/domain/ports/repository"
)

// Ensure paymentHistoryRepo implements repository.PaymentHistoryRepository
var _ repository.PaymentHistoryRepository = (*paymentHistoryRepo)(nil)

type paymentHistoryRepo struct {
	pool *pgxpool.Pool
}

func NewPaymentHistoryRepo(pool *pgxpool.Pool) *paymentHistoryRepo {
	return &paymentHistoryRepo{pool: pool}
}

const paymentColumns = `
id, user_id, plan_id, amount, currency, interval, status,
provider_payment_id, provider_subscription_id, created_at, updated_at`

func (r *paymentHistoryRepo) Save(ctx context.Context, tx repository.Tx, p *model.PaymentHistory) error {
	const q = `
INSERT INTO payment_history (
  id, user_id, plan_id, amount, currency, interval, status,
  provider_payment_id, provider_subscription_id, created_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11);`
	_, err := execSQL(ctx, r.pool, tx, q,
		p.ID, p.UserID, p.PlanID, p.Amount, p.Currency, p.Interval, string(p.Status),
		p.ProviderPaymentID, p.ProviderSubscriptionID, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return mapWriteError(err)
	}
	return nil
}

// UpdateByProviderSubscriptionID refreshes the payment row for a renewing
// subscription. Zero rows affected is a no-op by design: subscription rows are
// never created from this path.
func (r *paymentHistoryRepo) UpdateByProviderSubscriptionID(ctx context.Context, tx repository.Tx, p *model.PaymentHistory) error {
	const q = `
UPDATE payment_history
   SET user_id=$2, plan_id=$3, amount=$4, currency=$5, interval=$6, status=$7, updated_at=$8
 WHERE provider_subscription_id=$1;`
	_, err := execSQL(ctx, r.pool, tx, q,
		p.ProviderSubscriptionID, p.UserID, p.PlanID, p.Amount, p.Currency, p.Interval, string(p.Status), p.UpdatedAt)
	if err != nil {
		return mapWriteError(err)
	}
	return nil
}

func (r *paymentHistoryRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.PaymentHistory, error) {
	const q = `
SELECT ` + paymentColumns + `
  FROM payment_history
 WHERE id=$1;`
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	return scanPayment(row)
}

func (r *paymentHistoryRepo) ListByUser(ctx context.Context, tx repository.Tx, userID string) ([]*model.PaymentHistory, error) {
	const q = `
SELECT ` + paymentColumns + `
  FROM payment_history
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
	out := []*model.PaymentHistory{}
	for rows.Next() {
		p, err := scanPayment(rows)
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

func (r *paymentHistoryRepo) HasCompletedByUser(ctx context.Context, tx repository.Tx, userID string) (bool, error) {
	const q = `SELECT EXISTS(SELECT 1 FROM payment_history WHERE user_id=$1 AND status='completed');`
	row, err := pickRow(ctx, r.pool, tx, q, userID)
	if err != nil {
		return false, err
	}
	var exists bool
	if err := row.Scan(&exists); err != nil {
		return false, domain.ErrReadDatabaseRow
	}
	return exists, nil
}

func scanPayment(row rowScanner) (*model.PaymentHistory, error) {
	p := &model.PaymentHistory{}
	var status string
	if err := row.Scan(
		&p.ID, &p.UserID, &p.PlanID, &p.Amount, &p.Currency, &p.Interval, &status,
		&p.ProviderPaymentID, &p.ProviderSubscriptionID, &p.CreatedAt, &p.UpdatedAt,
	); err != nil {
		return nil, mapScanError(err)
	}
	p.Status = model.PaymentStatus(status)
	return p, nil
}
