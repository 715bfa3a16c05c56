package model

import (
	"time"

	"billing-service/internal/domain"
)

// SubscriptionPlan describes a purchasable product: its provider-side product
// id, the credits it grants per cycle, and its price.
type SubscriptionPlan struct {
	ID                int64     `json:"id"`
	Name              string    `json:"name"`
	ProviderProductID string    `json:"provider_product_id"`
	Credits           int64     `json:"credits"`
	PriceCents        int64     `json:"price_cents"`
	Currency          string    `json:"currency"`
	Interval          string    `json:"interval"` // "month" | "year" | "" for one-time packs
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

func NewSubscriptionPlan(id int64, name, providerProductID string, credits, priceCents int64, interval string) (*SubscriptionPlan, error) {
	if name == "" {
		return nil, domain.ErrInvalidArgument
	}
	now := time.Now()
	return &SubscriptionPlan{
		ID:                id,
		Name:              name,
		ProviderProductID: providerProductID,
		Credits:           credits,
		PriceCents:        priceCents,
		Currency:          "USD",
		Interval:          interval,
		CreatedAt:         now,
		UpdatedAt:         now,
	}, nil
}
