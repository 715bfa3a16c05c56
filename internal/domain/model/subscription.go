package model

import (
	"time"

	"billing-service/internal/domain"
)

type SubscriptionStatus string

const (
	SubscriptionStatusActive    SubscriptionStatus = "active"
	SubscriptionStatusCancelled SubscriptionStatus = "cancelled"
	SubscriptionStatusExpired   SubscriptionStatus = "expired"
)

// UserSubscription is the local record of a user's recurring subscription with
// the payment provider. At most one record per user is authoritative at a time;
// renewal events overwrite it in place (last write wins).
type UserSubscription struct {
	ID                     string             `json:"id"`
	UserID                 string             `json:"user_id"`
	PlanID                 int64              `json:"plan_id"`
	Status                 SubscriptionStatus `json:"status"`
	CurrentPeriodStart     time.Time          `json:"current_period_start"`
	CurrentPeriodEnd       time.Time          `json:"current_period_end"`
	ProviderSubscriptionID string             `json:"provider_subscription_id"`
	ProviderCustomerID     string             `json:"provider_customer_id"`
	CreatedAt              time.Time          `json:"created_at"`
	UpdatedAt              time.Time          `json:"updated_at"`
}

// NewUserSubscription creates an active subscription covering [start, end).
func NewUserSubscription(id, userID string, planID int64, start, end time.Time) (*UserSubscription, error) {
	if id == "" || userID == "" {
		return nil, domain.ErrInvalidArgument
	}
	now := time.Now()
	return &UserSubscription{
		ID:                 id,
		UserID:             userID,
		PlanID:             planID,
		Status:             SubscriptionStatusActive,
		CurrentPeriodStart: start,
		CurrentPeriodEnd:   end,
		CreatedAt:          now,
		UpdatedAt:          now,
	}, nil
}

// IsCurrent reports whether the subscription is active and its period covers t.
func (s *UserSubscription) IsCurrent(t time.Time) bool {
	return s.Status == SubscriptionStatusActive && !t.Before(s.CurrentPeriodStart) && t.Before(s.CurrentPeriodEnd)
}
