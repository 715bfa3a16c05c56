// File: internal/usecase/plan_uc.go
package usecase

import (
	"context"

	"github.com/rs/zerolog"

	"billing-service/internal/domain"
	"billing-service/internal/domain/model"
	"billing-service/internal/domain/ports/repository"
)

// Compile-time check
var _ PlanUseCase = (*planUC)(nil)

// PlanUseCase exposes plan lookups for the dashboard API.
type PlanUseCase interface {
	List(ctx context.Context) ([]*model.SubscriptionPlan, error)
	FindByID(ctx context.Context, id int64) (*model.SubscriptionPlan, error)
	FindByProviderProductID(ctx context.Context, productID string) (*model.SubscriptionPlan, error)
}

type planUC struct {
	plans repository.SubscriptionPlanRepository
	log   *zerolog.Logger
}

func NewPlanUseCase(plans repository.SubscriptionPlanRepository, logger *zerolog.Logger) *planUC {
	return &planUC{plans: plans, log: logger}
}

func (uc *planUC) List(ctx context.Context) ([]*model.SubscriptionPlan, error) {
	return uc.plans.ListAll(ctx, repository.NoTX)
}

func (uc *planUC) FindByID(ctx context.Context, id int64) (*model.SubscriptionPlan, error) {
	if id <= 0 {
		return nil, domain.ErrInvalidArgument
	}
	return uc.plans.FindByID(ctx, repository.NoTX, id)
}

func (uc *planUC) FindByProviderProductID(ctx context.Context, productID string) (*model.SubscriptionPlan, error) {
	if productID == "" {
		return nil, domain.ErrInvalidArgument
	}
	return uc.plans.FindByProviderProductID(ctx, repository.NoTX, productID)
}
