package model

import "time"

type PaymentStatus string

const (
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusRefunded  PaymentStatus = "refunded"
)

// PaymentHistory is one row of the payment log. One-time checkouts append a new
// row; subscription renewals update the existing row keyed by the provider
// subscription id once provider-side ids become known.
type PaymentHistory struct {
	ID                     string        // ULID, sortable by creation time
	UserID                 string
	PlanID                 int64
	Amount                 int64 // minor currency units
	Currency               string
	Interval               string // "month" | "year" | "" for one-time
	Status                 PaymentStatus
	ProviderPaymentID      string // provider payment-intent id
	ProviderSubscriptionID string // empty for one-time purchases
	CreatedAt              time.Time
	UpdatedAt              time.Time
}
