package repository

import (
	"context"

	"billing-service/internal/domain/model"
)

// SubscriptionRepository is the port for user subscription records.
type SubscriptionRepository interface {
	// FindByUser returns all subscription records for a user, newest first.
	// Returns an empty slice (not ErrNotFound) when the user has none.
	FindByUser(ctx context.Context, tx Tx, userID string) ([]*model.UserSubscription, error)
	FindByProviderSubscriptionID(ctx context.Context, tx Tx, providerSubID string) (*model.UserSubscription, error)
	// Save upserts by id: renewal events overwrite plan, status, period and
	// provider ids unconditionally.
	Save(ctx context.Context, tx Tx, sub *model.UserSubscription) error
	// UpdateStatusByProviderSubscriptionID changes only the status field of the
	// record keyed by the provider-side subscription id.
	UpdateStatusByProviderSubscriptionID(ctx context.Context, tx Tx, providerSubID string, status model.SubscriptionStatus) error
}
