package repository

import (
	"context"

	"billing-service/internal/domain/model"
)

// CreditUsageRepository is the port for per-user credit quota records.
type CreditUsageRepository interface {
	// FindByUser returns the user's credit record or ErrNotFound.
	FindByUser(ctx context.Context, tx Tx, userID string) (*model.CreditUsage, error)
	Save(ctx context.Context, tx Tx, usage *model.CreditUsage) error
	Update(ctx context.Context, tx Tx, usage *model.CreditUsage) error
}
