package repository

import (
	"context"

	"billing-service/internal/domain/model"
)

// PaymentHistoryRepository is the port for the payment log.
type PaymentHistoryRepository interface {
	Save(ctx context.Context, tx Tx, p *model.PaymentHistory) error
	// UpdateByProviderSubscriptionID updates the row keyed by the provider
	// subscription id. A missing row is not an error: subscription payment rows
	// are created out of band and updated once provider ids become known.
	UpdateByProviderSubscriptionID(ctx context.Context, tx Tx, p *model.PaymentHistory) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.PaymentHistory, error)
	ListByUser(ctx context.Context, tx Tx, userID string) ([]*model.PaymentHistory, error)
	HasCompletedByUser(ctx context.Context, tx Tx, userID string) (bool, error)
}
