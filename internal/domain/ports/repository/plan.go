package repository

import (
	"context"

	"billing-service/internal/domain/model"
)

// SubscriptionPlanRepository is the port for plan lookups.
type SubscriptionPlanRepository interface {
	FindByID(ctx context.Context, tx Tx, id int64) (*model.SubscriptionPlan, error)
	FindByProviderProductID(ctx context.Context, tx Tx, productID string) (*model.SubscriptionPlan, error)
	ListAll(ctx context.Context, tx Tx) ([]*model.SubscriptionPlan, error)
	Save(ctx context.Context, tx Tx, plan *model.SubscriptionPlan) error
}
