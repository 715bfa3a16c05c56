// File: internal/usecase/billing_uc.go
package usecase

import (
	"context"

	"github.com/rs/zerolog"

	"billing-service/internal/domain"
	"billing-service/internal/domain/model"
	"billing-service/internal/domain/ports/repository"
)

// Compile-time check
var _ BillingUseCase = (*billingUC)(nil)

// BillingUseCase serves read-side billing state for the dashboard API.
type BillingUseCase interface {
	UserBilling(ctx context.Context, userID string) (*UserBilling, error)
	PaymentByID(ctx context.Context, id string) (*model.PaymentHistory, error)
	HasPaid(ctx context.Context, userID string) (bool, error)
}

// UserBilling aggregates one user's billing state.
type UserBilling struct {
	Subscriptions []*model.UserSubscription `json:"subscriptions"`
	CreditUsage   *model.CreditUsage        `json:"credit_usage"`
	Payments      []*model.PaymentHistory   `json:"payments"`
}

type billingUC struct {
	subs     repository.SubscriptionRepository
	credits  repository.CreditUsageRepository
	payments repository.PaymentHistoryRepository
	log      *zerolog.Logger
}

func NewBillingUseCase(
	subs repository.SubscriptionRepository,
	credits repository.CreditUsageRepository,
	payments repository.PaymentHistoryRepository,
	logger *zerolog.Logger,
) *billingUC {
	return &billingUC{subs: subs, credits: credits, payments: payments, log: logger}
}

func (uc *billingUC) UserBilling(ctx context.Context, userID string) (*UserBilling, error) {
	if userID == "" {
		return nil, domain.ErrInvalidArgument
	}
	subs, err := uc.subs.FindByUser(ctx, repository.NoTX, userID)
	if err != nil {
		return nil, err
	}
	usage, err := uc.credits.FindByUser(ctx, repository.NoTX, userID)
	if err != nil && err != domain.ErrNotFound {
		return nil, err
	}
	payments, err := uc.payments.ListByUser(ctx, repository.NoTX, userID)
	if err != nil {
		return nil, err
	}
	return &UserBilling{Subscriptions: subs, CreditUsage: usage, Payments: payments}, nil
}

func (uc *billingUC) PaymentByID(ctx context.Context, id string) (*model.PaymentHistory, error) {
	if id == "" {
		return nil, domain.ErrInvalidArgument
	}
	return uc.payments.FindByID(ctx, repository.NoTX, id)
}

func (uc *billingUC) HasPaid(ctx context.Context, userID string) (bool, error) {
	if userID == "" {
		return false, domain.ErrInvalidArgument
	}
	return uc.payments.HasCompletedByUser(ctx, repository.NoTX, userID)
}
